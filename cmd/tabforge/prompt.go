package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tabforge"
)

// defaultRows is used when no row count is given and the answer at the
// prompt cannot be parsed.
const defaultRows = 30

// errQuit reports that the user chose to leave at the file prompt.
var errQuit = errors.New("quit")

// prompter reads interactive answers line by line. Prompts go to out so
// tests can drive it with plain buffers.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints the prompt and returns one trimmed input line.
func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// fileName asks for the sample file until a name is given. Answering q
// in any case returns errQuit.
func (p *prompter) fileName() (string, error) {
	for {
		name, err := p.ask("\nEnter the name of your sample data file (or 'q' to quit): ")
		if err != nil {
			return "", err
		}
		if strings.EqualFold(name, "q") {
			return "", errQuit
		}
		if name != "" {
			return name, nil
		}
		fmt.Fprintln(p.out, "Error: You must enter a file name. Please try again.")
	}
}

// desiredRows asks once and falls back to def on a blank or unparsable
// answer.
func (p *prompter) desiredRows(def int) int {
	answer, err := p.ask("Enter the number of rows you want in the new dataset: ")
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintf(p.out, "Invalid number of rows, using default of %d.\n", def)
		return def
	}
	return n
}

// modelChoice shows the catalog menu and maps the answer to a model ID.
// Unknown answers fall back to the catalog default without re-prompting.
func (p *prompter) modelChoice() string {
	fmt.Fprintln(p.out, "Please select a model:")
	for _, m := range tabforge.Catalog {
		fmt.Fprintf(p.out, "%s. %s\n", m.Choice, m.ID)
	}
	answer, err := p.ask("Enter the number of your choice: ")
	if err != nil {
		return tabforge.DefaultModel
	}
	return tabforge.ModelByChoice(answer)
}

// maxTokens asks until it gets a positive integer; a blank answer keeps
// the default.
func (p *prompter) maxTokens(def int) int {
	for {
		answer, err := p.ask(fmt.Sprintf("Enter the maximum number of tokens (default is %d): ", def))
		if err != nil || answer == "" {
			return def
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n > 0 {
			return n
		}
		fmt.Fprintln(p.out, "Error: Please enter a valid positive integer.")
	}
}

// temperature asks until it gets a value in [0, 1]; a blank answer keeps
// the default.
func (p *prompter) temperature(def float64) float64 {
	for {
		answer, err := p.ask(fmt.Sprintf("Enter the temperature (between 0 and 1) (default is %g): ", def))
		if err != nil || answer == "" {
			return def
		}
		v, convErr := strconv.ParseFloat(answer, 64)
		if convErr == nil && v >= 0 && v <= 1 {
			return v
		}
		fmt.Fprintln(p.out, "Error: Please enter a number between 0 and 1.")
	}
}
