// Package ui writes pipeline results in the format the user asked for:
// rich terminal output, plain text, or JSON.
package ui

import (
	"fmt"
	"io"

	"github.com/arthur-debert/fwprov/pkg/commands"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/ui/json"
	"github.com/arthur-debert/fwprov/pkg/ui/terminal"
	"github.com/arthur-debert/fwprov/pkg/ui/text"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Renderer is implemented by every output format
type Renderer interface {
	// RenderResult reports what a pipeline did, including a partial run
	RenderResult(res *commands.Result) error

	// RenderLayout prints a resolved partition layout
	RenderLayout(entries []types.PartitionEntry) error

	// RenderHeader prints the header of an update image
	RenderHeader(h *update.Header) error

	RenderError(err error) error
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer for format. FormatAuto is resolved
// against output.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		return NewRenderer(DetectFormat(output), output)
	case FormatTerminal:
		return terminal.New(output), nil
	case FormatText:
		return text.New(output), nil
	case FormatJSON:
		return json.New(output), nil
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}
