package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/and161185/appealkit/internal/errs"
)

// prompter asks questions on the error stream so stdout stays clean for
// machine output.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

func (p *prompter) say(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// ask reads one trimmed line. End of input without an answer means there
// is nobody to ask.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.w, "%s: ", label)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(p.w)
		return "", fmt.Errorf("%w: no answer for %s", errs.ErrValidation, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// askDefault returns have when set, otherwise asks.
func (p *prompter) askDefault(label, have string) (string, error) {
	if have != "" {
		return have, nil
	}
	return p.ask(label)
}

// yes asks a y/N question.
func (p *prompter) yes(label string) bool {
	ans, err := p.ask(label + " [y/N]")
	if err != nil {
		return false
	}
	ans = strings.ToLower(ans)
	return ans == "y" || ans == "yes"
}
