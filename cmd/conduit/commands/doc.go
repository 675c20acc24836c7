// Package commands defines the conduit CLI and wires dependencies for subcommands.
//
// Commands
//
//   - serve            Run the desktop daemon: relay link, pairing, request proxying
//   - keygen           Generate the desktop's RSA key pair
//   - pubkey           Print the public key and its fingerprint
//   - register         Register the public key with the relay and print the pairing code
//   - devices list     Show approved mobile devices
//   - devices revoke   Forget an approved device
//
// # Implementation
//
// The root command resolves configuration (defaults, config.toml, environment,
// flags), initialises logging and builds the app.Wire before any subcommand
// runs.
package commands
