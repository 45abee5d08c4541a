package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errEmptyInput = errors.New("no value entered")

// readPassword is swapped in tests; the real one needs a terminal.
var readPassword = term.ReadPassword

// ReadLine shows prompt on w and returns the next trimmed line from r. A
// last line without a newline still counts. Blank answers are an error.
func ReadLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprintf(w, "%s: ", prompt)

	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errEmptyInput
	}
	return line, nil
}

// ReadSecret reads a line from the terminal with echo off. The caller
// wipes the result with common.Wipe once done.
func ReadSecret(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprintf(w, "%s: ", prompt)
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errEmptyInput
	}
	return secret, nil
}
