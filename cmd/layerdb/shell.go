package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"

	"layerdb/pkg/layerdb"
)

const shellPrompt = "layerdb> "

// readWriter combines separate read and write halves into an io.ReadWriter.
type readWriter struct {
	io.Reader
	io.Writer
}

// lineReader yields one input line at a time; io.EOF ends the session.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	sc *bufio.Scanner
}

func (s scannerReader) ReadLine() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

// runShell reads commands until quit or end of input. On a terminal it
// switches to raw mode and uses x/term for line editing and history;
// otherwise it reads plain lines, which keeps it scriptable.
func runShell(registry *CommandRegistry, db *layerdb.DB, stdin io.Reader, stdout io.Writer) error {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		prev, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), prev) }()

		terminal := term.NewTerminal(readWriter{stdin, stdout}, shellPrompt)
		return shellLoop(registry, db, terminal, terminal)
	}
	return shellLoop(registry, db, scannerReader{sc: bufio.NewScanner(stdin)}, stdout)
}

// splitLine splits off the command name and the first argument. The rest
// of the line is passed through as one argument with its spacing intact.
func splitLine(line string) []string {
	var args []string
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	for len(args) < 2 && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			return append(args, rest)
		}
		args = append(args, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	if rest != "" {
		args = append(args, rest)
	}
	return args
}

func shellLoop(registry *CommandRegistry, db *layerdb.DB, in lineReader, out io.Writer) error {
	for {
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := splitLine(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit", "exit":
			return nil
		case "help":
			_, _ = fmt.Fprint(out, registry.HelpText())
			_, _ = fmt.Fprintf(out, "  %-22s %s\n", "quit", "close the store and exit")
			continue
		}

		if err := registry.Run(db, out, args); err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}
