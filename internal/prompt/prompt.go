// Package prompt asks the user to pick one ticket out of a search result.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danielolaszy/jbranch/pkg/models"
)

// QuitInput is the answer that cancels the selection.
const QuitInput = "q"

var (
	// ErrQuit is returned when the user cancels the selection.
	ErrQuit = errors.New("selection cancelled")
	// ErrInvalidChoice is returned for any answer that is neither a listed
	// number nor QuitInput.
	ErrInvalidChoice = errors.New("invalid choice")
)

// Prompter reads answers line by line from in and writes the menu to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	header lipgloss.Style
	number lipgloss.Style
	key    lipgloss.Style
}

// New returns a Prompter. Styling degrades to plain text when out is not a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	renderer := lipgloss.NewRenderer(out)
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		header: renderer.NewStyle().Bold(true),
		number: renderer.NewStyle().Faint(true),
		key:    renderer.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	}
}

// SelectTicket prints a 1-based numbered list of tickets and returns the key of
// the one the user picks.
func (p *Prompter) SelectTicket(tickets []models.JiraTicket) (string, error) {
	if len(tickets) == 0 {
		return "", fmt.Errorf("%w: nothing to choose from", ErrInvalidChoice)
	}

	fmt.Fprintln(p.out, p.header.Render("Multiple issues found, please specify one:"))

	choices := make(map[string]string, len(tickets))
	for i, ticket := range tickets {
		n := strconv.Itoa(i + 1)
		choices[n] = ticket.Key
		fmt.Fprintf(p.out, "%s %s - %s\n",
			p.number.Render(fmt.Sprintf("%2s.", n)),
			p.key.Render(ticket.Key),
			ticket.Title)
	}

	fmt.Fprintf(p.out, "Please select an issue (press number or '%s' for exit): ", QuitInput)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}

	choice := strings.TrimSpace(line)
	if choice == QuitInput {
		return "", ErrQuit
	}
	if key, ok := choices[choice]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
}
