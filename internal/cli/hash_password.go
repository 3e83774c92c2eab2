// Package cli implements the lending desk subcommands other than serve.
package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrlokans/lendingdesk/internal/auth"
)

// HashPasswordCommand prints a bcrypt hash for ADMIN_PASSWORD_HASH.
type HashPasswordCommand struct {
	Cost  int
	Stdin bool // read the password from a pipe instead of prompting

	in  io.Reader
	out io.Writer

	// readPassword prompts without echo; replaced in tests
	readPassword func(prompt string) (string, error)
}

func NewHashPasswordCommand() *HashPasswordCommand {
	return &HashPasswordCommand{
		in:           os.Stdin,
		out:          os.Stdout,
		readPassword: readTerminalPassword,
	}
}

func (cmd *HashPasswordCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)

	fs.IntVar(&cmd.Cost, "cost", 12, "bcrypt cost factor")
	fs.BoolVar(&cmd.Stdin, "stdin", false, "Read the password from standard input instead of prompting")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s hash-password [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print a bcrypt hash of the librarian password.\n")
		fmt.Fprintf(os.Stderr, "Put the result in ADMIN_PASSWORD_HASH.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s hash-password\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  echo \"$PASSWORD\" | %s hash-password -stdin\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *HashPasswordCommand) Run() error {
	var password string
	if cmd.Stdin {
		line, err := bufio.NewReader(cmd.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	} else {
		first, err := cmd.readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		second, err := cmd.readPassword("Repeat password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if first != second {
			return errors.New("passwords do not match")
		}
		password = first
	}

	hash, err := auth.HashPassword(password, cmd.Cost)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.out, hash)
	return nil
}

func readTerminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}
