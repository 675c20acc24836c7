// Package store provides file-based persistence for conduit's desktop state.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. All methods are concurrency-safe via
// internal locking. Files live under the configured home directory and are
// written atomically (temp file then rename) with mode 0600.
//
// The package includes stores for:
//   - Approved mobile devices (DeviceFileStore)
//   - Relay registrations, keyed by relay URL (RegistrationFileStore)
//   - The desktop's private key, optionally sealed with a passphrase (KeyFileStore)
package store
