package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sectoken/tkeyfile/pkcs11session"
)

// promptPIN reads a PIN from the controlling terminal without local
// echo, falling back to a single line from stdin when stdin isn't a
// TTY (e.g. piped input in scripts or tests).
func promptPIN(seed string) (string, error) {
	fmt.Fprintf(os.Stderr, "Enter PIN for %s: ", seed)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pin, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(pin), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func openManager() (*pkcs11session.Manager, error) {
	if err := requireLibraryPath(); err != nil {
		return nil, err
	}
	warn := pkcs11session.WarningCallbackFunc(func(err error) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	})
	return pkcs11session.Open(libraryPath, pkcs11session.PinCallbackFunc(promptPIN), warn)
}
