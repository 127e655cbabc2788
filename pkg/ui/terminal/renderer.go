// Package terminal renders results with tables and adaptive colors
package terminal

import (
	"fmt"
	"io"

	"github.com/arthur-debert/fwprov/pkg/commands"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/style"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/ui/output/styles"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Renderer writes styled output
type Renderer struct {
	output io.Writer
}

// New creates a terminal renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w}
}

// RenderResult prints the steps, then whatever the pipeline produced
func (r *Renderer) RenderResult(res *commands.Result) error {
	inv := res.Invocation
	title := fmt.Sprintf("%s %s (%s)", inv.Command, inv.Method, inv.Variant)
	if _, err := fmt.Fprintln(r.output, styles.GetStyle("Header").Render(title)); err != nil {
		return err
	}
	if _, err := io.WriteString(r.output, style.RenderSteps(res.Steps, res.Failed)); err != nil {
		return err
	}

	if res.Plan != nil {
		plan, err := style.RenderPlan(*res.Plan)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(r.output, "\n%s", plan); err != nil {
			return err
		}
	}
	if res.Header != nil {
		if _, err := fmt.Fprintf(r.output, "\n%s", style.RenderHeader(res.Header)); err != nil {
			return err
		}
	}
	if res.Release != nil {
		line := fmt.Sprintf("Published %s %s to %s", res.Release.ModuleType, res.Release.Version, res.Release.Image)
		if _, err := fmt.Fprintf(r.output, "\n%s\n", styles.GetStyle("Success").Render(line)); err != nil {
			return err
		}
	}
	if res.ReadPath != "" {
		if _, err := fmt.Fprintf(r.output, "\nSaved to %s\n", styles.GetStyle("FilePath").Render(res.ReadPath)); err != nil {
			return err
		}
	}
	for _, a := range res.Artifacts {
		if _, err := fmt.Fprintf(r.output, "  %s\n", styles.GetStyle("Muted").Render(a)); err != nil {
			return err
		}
	}
	return nil
}

// RenderLayout prints the layout as a colored table
func (r *Renderer) RenderLayout(entries []types.PartitionEntry) error {
	out, err := style.RenderLayout(entries, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.output, out)
	return err
}

// RenderHeader prints an update image header
func (r *Renderer) RenderHeader(h *update.Header) error {
	_, err := io.WriteString(r.output, style.RenderHeader(h))
	return err
}

// RenderError prints the error and any details it carries
func (r *Renderer) RenderError(err error) error {
	if _, werr := fmt.Fprintln(r.output, styles.GetStyle("Error").Render("Error: "+err.Error())); werr != nil {
		return werr
	}
	for k, v := range errors.GetErrorDetails(err) {
		if _, werr := fmt.Fprintf(r.output, "  %s: %v\n", styles.GetStyle("Muted").Render(k), v); werr != nil {
			return werr
		}
	}
	return nil
}

// RenderMessage prints an informational line
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, styles.GetStyle("Info").Render(msg))
	return err
}
