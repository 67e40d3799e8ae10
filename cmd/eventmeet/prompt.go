package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readSecret prompts on stderr and reads a line without echo when stdin is a
// terminal; piped input is read as a plain line.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassphrase reads a backup passphrase; when confirm is set it is asked
// for twice and both entries must match.
func readPassphrase(cmd *cobra.Command, confirm bool) (string, error) {
	if p := os.Getenv("EVENTMEET_BACKUP_PASSPHRASE"); p != "" {
		return p, nil
	}

	p, err := readSecret(cmd, "Backup passphrase: ")
	if err != nil {
		return "", err
	}
	if !confirm || !term.IsTerminal(int(os.Stdin.Fd())) {
		return p, nil
	}

	again, err := readSecret(cmd, "Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if p != again {
		return "", fmt.Errorf("passphrases do not match")
	}
	return p, nil
}
