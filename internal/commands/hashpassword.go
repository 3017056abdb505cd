// Package commands implements the CLI subcommands that are more than wiring.
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/klabast/wb-services/advent-kalender/internal/app"
)

var (
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// HashPasswordOptions configures the hash-password subcommand.
type HashPasswordOptions struct {
	AuthFile       string
	Overwrite      bool
	InsecureUnmask bool
}

// PasswordReader reads one password after printing prompt.
type PasswordReader func(prompt string) (string, error)

// HashPassword asks for credentials and writes the auth file. Passwords are
// read with readPassword; a nil reader picks masked terminal input, or plain
// lines from in when InsecureUnmask is set.
func HashPassword(opts HashPasswordOptions, in io.Reader, out io.Writer, readPassword PasswordReader) error {
	path, err := app.ResolveAuthFile(opts.AuthFile)
	if err != nil {
		return err
	}

	lines := bufio.NewReader(in)
	readLine := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		s, err := lines.ReadString('\n')
		if err != nil && (err != io.EOF || s == "") {
			return "", err
		}
		return strings.TrimRight(s, "\r\n"), nil
	}

	username, err := readLine("Enter username: ")
	if err != nil {
		return fmt.Errorf("error reading username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}

	if readPassword == nil {
		if opts.InsecureUnmask {
			fmt.Fprintln(out, "WARNING: Password will be visible on screen!")
			readPassword = readLine
		} else {
			readPassword = func(prompt string) (string, error) {
				return readPasswordWithMask(prompt, out)
			}
		}
	}

	password, err := readPassword("Enter password:   ")
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("error reading password confirmation: %w", err)
	}
	if password == "" {
		return ErrEmptyPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	return app.CreateAuthFile(path, username, password, opts.Overwrite, lines, out)
}

// readPasswordWithMask reads a password from the terminal and echoes
// asterisks.
func readPasswordWithMask(prompt string, out io.Writer) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// not a terminal: fall back to hidden input
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(password), err
	}
	defer term.Restore(fd, oldState)

	var password []byte
	reader := bufio.NewReader(os.Stdin)
	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}
		switch char {
		case '\n', '\r':
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		case 127, 8:
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(out, "\b \b")
			}
		case 3: // Ctrl+C
			fmt.Fprint(out, "\r\n")
			return "", app.ErrAborted
		default:
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Fprint(out, "*")
			}
		}
	}
	fmt.Fprint(out, "\r\n")
	return string(password), nil
}
