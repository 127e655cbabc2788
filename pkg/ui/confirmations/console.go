// Package confirmations asks the operator before irreversible device
// operations.
package confirmations

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsoleDialog prompts on a terminal
type ConsoleDialog struct {
	in  io.Reader
	out io.Writer
}

// NewConsoleDialog creates a dialog bound to stdin and stdout
func NewConsoleDialog() *ConsoleDialog {
	return &ConsoleDialog{in: os.Stdin, out: os.Stdout}
}

// NewDialog creates a dialog over arbitrary streams
func NewDialog(in io.Reader, out io.Writer) *ConsoleDialog {
	return &ConsoleDialog{in: in, out: out}
}

// Confirm lists the items and asks for approval. Anything but y or yes,
// including an empty answer or end of input, is a refusal.
func (d *ConsoleDialog) Confirm(title string, items []string) (bool, error) {
	fmt.Fprintf(d.out, "\n%s\n\n", title)
	for i, item := range items {
		prefix := "├──"
		if i == len(items)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(d.out, "%s %s\n", prefix, item)
	}
	fmt.Fprint(d.out, "\nThis cannot be undone. Continue? [y/N]: ")

	response, err := bufio.NewReader(d.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}

// AutoApprove confirms everything. Used for --yes.
type AutoApprove struct{}

// Confirm always approves
func (AutoApprove) Confirm(string, []string) (bool, error) {
	return true, nil
}
