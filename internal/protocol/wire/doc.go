// Package wire encodes and decodes conduit's relay frames.
//
// Every protocol message is a JSON array whose first element is the opcode:
//
//	[1, blob]                          Secret             mobile -> desktop
//	[2, ok]                            SecretResponse     desktop -> mobile
//	[3]                                Handshake          mobile -> desktop
//	[4, version, hostName, token]      HandshakeComplete  desktop -> mobile
//	[5, path]                          Subscribe          mobile -> desktop
//	[6, path]                          Unsubscribe        mobile -> desktop
//	[7, id, path, method, body]        Request            mobile -> desktop
//	[8, id, status, body]              Response           desktop -> mobile
//	[9, path, status, data]            Update             desktop -> mobile
//	[10, echo]                         Ping               mobile -> desktop
//	[11, echo]                         Pong               desktop -> mobile
//
// Once a session is paired, every frame except Secret/SecretResponse travels
// inside an envelope: the relay frame is a JSON string holding the sealed
// token, and the token opens to one of the arrays above.
//
// Decoding is strict: the arity and element types of each inbound opcode are
// fixed, and any mismatch yields ErrMalformed rather than a partial value.
package wire
