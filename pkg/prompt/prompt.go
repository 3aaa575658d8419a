// Package prompt implements the interactive questions the bootstrapper asks.
// Input and output are injected so scripted runs and tests can answer
// deterministically.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks blocking questions on out and reads answers from in.
// Reaching EOF on in yields the question's default answer.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New builds a Prompter reading answers from in and writing questions to out
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Say prints a line to the operator.
func (p *Prompter) Say(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}

// YesNo asks a y/n question. Empty input picks def, anything unrecognized
// re-prompts.
func (p *Prompter) YesNo(question string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	for {
		fmt.Fprintf(p.out, "%s [%s] ", question, hint)
		line, ok := p.readLine()
		if !ok {
			return def
		}
		switch strings.ToLower(line) {
		case "":
			return def
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Line asks a free-form question and returns the trimmed answer. An empty
// answer is allowed and returned as-is.
func (p *Prompter) Line(question string) string {
	fmt.Fprintf(p.out, "%s ", question)
	line, _ := p.readLine()
	return line
}

// Choice presents numbered options and returns the selected index. Empty
// input picks def, out-of-range or non-numeric input re-prompts.
func (p *Prompter) Choice(question string, options []string, def int) int {
	for {
		fmt.Fprintln(p.out, question)
		for i, opt := range options {
			marker := " "
			if i == def {
				marker = "*"
			}
			fmt.Fprintf(p.out, " %s %d) %s\n", marker, i+1, opt)
		}
		fmt.Fprintf(p.out, "Choice [%d]: ", def+1)

		line, ok := p.readLine()
		if !ok || line == "" {
			return def
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d.\n", len(options))
	}
}
