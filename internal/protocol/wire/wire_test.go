package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/domain"
	"conduit/internal/protocol/wire"
)

func TestDecodeInbound_Valid(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  wire.Inbound
	}{
		{"secret", `[1,"blob=="]`, wire.Secret{Blob: "blob=="}},
		{"handshake", `[3]`, wire.Handshake{}},
		{"subscribe", `[5,"/Foo/Bar"]`, wire.Subscribe{Path: "/Foo/Bar"}},
		{"unsubscribe", `[6,"/foo"]`, wire.Unsubscribe{Path: "/foo"}},
		{"request", `[7,42,"/a/b","GET",""]`, wire.Request{ID: 42, Path: "/a/b", Method: "GET"}},
		{"request null body", `[7,1,"/a","POST",null]`, wire.Request{ID: 1, Path: "/a", Method: "POST"}},
		{"request body", `[7,2,"/a","PUT","{\"k\":true}"]`, wire.Request{ID: 2, Path: "/a", Method: "PUT", Body: `{"k":true}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := wire.DecodeInbound([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeInbound_PingKeepsEcho(t *testing.T) {
	for _, echo := range []string{`99`, `"abc"`, `{"t":1}`, `null`} {
		got, err := wire.DecodeInbound([]byte(`[10,` + echo + `]`))
		require.NoError(t, err)
		ping, ok := got.(wire.Ping)
		require.True(t, ok)
		assert.JSONEq(t, echo, string(ping.Echo))
	}
}

func TestDecodeInbound_Malformed(t *testing.T) {
	frames := []string{
		``,
		`{}`,
		`"just a string"`,
		`[]`,
		`["1","blob"]`,
		`[1.5,"blob"]`,
		`[1]`,
		`[1,2]`,
		`[1,null]`,
		`[3,"extra"]`,
		`[5]`,
		`[5,7]`,
		`[7,"42","/a","GET",""]`,
		`[7,42,"/a","GET"]`,
		`[7,42,"/a",1,""]`,
		`[7,42,"/a","GET",{}]`,
		`[10]`,
		`[2,true]`,
		`[8,1,200,null]`,
		`[99]`,
	}
	for _, f := range frames {
		_, err := wire.DecodeInbound([]byte(f))
		assert.ErrorIs(t, err, wire.ErrMalformed, "frame %q", f)
	}
}

func TestEncodeOutbound(t *testing.T) {
	cases := []struct {
		op   wire.Outbound
		want string
	}{
		{wire.SecretResponse{OK: true}, `[2,true]`},
		{wire.SecretResponse{OK: false}, `[2,false]`},
		{wire.HandshakeComplete{Version: "2.1.0", HostName: "desk", Token: "tok"}, `[4,"2.1.0","desk","tok"]`},
		{wire.Response{ID: 42, Status: 200, Body: json.RawMessage(`{"x":1}`)}, `[8,42,200,{"x":1}]`},
		{wire.Response{ID: 7, Status: 204}, `[8,7,204,null]`},
		{wire.Update{Path: "/foo/bar", Status: 404, Data: json.RawMessage(`null`)}, `[9,"/foo/bar",404,null]`},
		{wire.Pong{Echo: json.RawMessage(`99`)}, `[11,99]`},
	}
	for _, tc := range cases {
		got, err := wire.Encode(tc.op)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got))
	}
}

func TestEnvelopeFrame(t *testing.T) {
	frame, err := wire.EncodeEnvelope("abc+/=")
	require.NoError(t, err)
	assert.Equal(t, `"abc+/="`, string(frame))

	token, err := wire.DecodeEnvelope(frame)
	require.NoError(t, err)
	assert.Equal(t, "abc+/=", token)

	for _, bad := range []string{`[1,"x"]`, `""`, `42`, `not json`} {
		_, err := wire.DecodeEnvelope([]byte(bad))
		assert.ErrorIs(t, err, wire.ErrMalformed, "frame %q", bad)
	}
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, `null`, string(wire.NormalizeBody(nil)))
	assert.Equal(t, `null`, string(wire.NormalizeBody([]byte("  \n"))))
	assert.Equal(t, `{"x":1}`, string(wire.NormalizeBody([]byte(`{"x":1}`))))
	assert.Equal(t, `"plain text"`, string(wire.NormalizeBody([]byte("plain text"))))
}

func TestOffer_RoundTripAndValidation(t *testing.T) {
	offer := domain.PairingOffer{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Identity: "device-1",
		Device:   "Pixel",
		Browser:  "Chrome",
	}
	raw, err := wire.EncodeOffer(offer)
	require.NoError(t, err)

	got, err := wire.DecodeOffer(raw)
	require.NoError(t, err)
	assert.Equal(t, offer, got)

	bad := []string{
		`not json`,
		`{"secret":"","identity":"i","device":"d","browser":"b"}`,
		`{"secret":"AAAA","identity":"","device":"d","browser":"b"}`,
		`{"secret":"AAAA","identity":"i","browser":"b"}`,
		`{"secret":"AAAA","identity":"i","device":"d","browser":""}`,
		`{"secret":"***","identity":"i","device":"d","browser":"b"}`,
	}
	for _, b := range bad {
		_, err := wire.DecodeOffer([]byte(b))
		assert.ErrorIs(t, err, wire.ErrMalformed, "offer %s", b)
	}
}
