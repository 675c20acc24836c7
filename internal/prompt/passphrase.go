package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"conduit/internal/util/memzero"
)

// ReadPassphrase reads a passphrase from the terminal with echo disabled.
// With confirm set it asks twice and fails on mismatch.
func ReadPassphrase(label string, confirm bool) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTerminal
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(first) == 0 {
		return nil, errors.New("passphrase is empty")
	}
	if !confirm {
		return first, nil
	}

	fmt.Fprintf(os.Stderr, "Confirm %s: ", label)
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		memzero.Zero(first)
		return nil, fmt.Errorf("reading passphrase confirmation: %w", err)
	}
	defer memzero.Zero(second)
	if !bytes.Equal(first, second) {
		memzero.Zero(first)
		return nil, errors.New("passphrases do not match")
	}
	return first, nil
}
