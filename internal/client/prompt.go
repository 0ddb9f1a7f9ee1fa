package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/accvault/internal/models"
)

// Prompter reads answers line by line from an interactive session.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter returns a Prompter reading from in and printing questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Registration asks for the registration fields that were not given.
func (p *Prompter) Registration(in models.Registration) (models.Registration, error) {
	fields := []struct {
		label string
		dst   *string
	}{
		{"Username", &in.Username},
		{"Password", &in.Password},
		{"Full name", &in.FullName},
		{"Email", &in.Email},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		v, err := p.Ask(f.label)
		if err != nil {
			return in, err
		}
		*f.dst = v
	}
	return in, nil
}
