package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Prompter asks y/N questions on a terminal
type Prompter struct {
	In          io.Reader
	Out         io.Writer
	AssumeYes   bool
	Interactive bool
}

// NewPrompter wires a Prompter to the process's stdin and stdout
func NewPrompter(assumeYes bool) Prompter {
	return Prompter{
		In:          os.Stdin,
		Out:         os.Stdout,
		AssumeYes:   assumeYes,
		Interactive: isTerminal(os.Stdin),
	}
}

// Confirm prints question and reads an answer. Only "y" and "yes" confirm.
// AssumeYes confirms without asking and a non-interactive input declines.
func (p Prompter) Confirm(question string) bool {
	if p.AssumeYes {
		return true
	}
	if !p.Interactive {
		return false
	}

	fmt.Fprintf(p.Out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
