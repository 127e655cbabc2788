// Package text renders results as plain aligned text, for pipes and logs
package text

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/arthur-debert/fwprov/pkg/commands"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/style"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Renderer writes unstyled output
type Renderer struct {
	output io.Writer
}

// New creates a text renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w}
}

func (r *Renderer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// RenderResult prints one line per step and the pipeline outputs
func (r *Renderer) RenderResult(res *commands.Result) error {
	inv := res.Invocation
	fmt.Fprintf(r.output, "%s %s (%s)\n", inv.Command, inv.Method, inv.Variant)
	for _, s := range res.Steps {
		fmt.Fprintf(r.output, "  done    %s\n", s)
	}
	if res.Failed != "" {
		fmt.Fprintf(r.output, "  failed  %s\n", res.Failed)
	}

	if res.Plan != nil {
		rows := make([][]string, 0, len(res.Plan.Writes))
		for _, w := range res.Plan.Writes {
			rows = append(rows, []string{w.Partition, types.FormatHex(w.Offset), w.Source})
		}
		if err := r.table(style.PlanHeader, rows); err != nil {
			return err
		}
		for _, name := range res.Plan.Skipped {
			fmt.Fprintf(r.output, "skipped %s: not in partition table\n", name)
		}
	}
	if res.Header != nil {
		if err := r.RenderHeader(res.Header); err != nil {
			return err
		}
	}
	if res.Release != nil {
		fmt.Fprintf(r.output, "published %s %s to %s\n", res.Release.ModuleType, res.Release.Version, res.Release.Image)
	}
	if res.ReadPath != "" {
		fmt.Fprintf(r.output, "saved to %s\n", res.ReadPath)
	}
	for _, a := range res.Artifacts {
		fmt.Fprintf(r.output, "artifact %s\n", a)
	}
	return nil
}

// RenderLayout prints the layout as aligned columns
func (r *Renderer) RenderLayout(entries []types.PartitionEntry) error {
	return r.table(style.LayoutHeader, style.LayoutRows(entries))
}

// RenderHeader prints the header fields one per line
func (r *Renderer) RenderHeader(h *update.Header) error {
	_, err := fmt.Fprintf(r.output, "module_type: %s\napp_size: %d\ndata_size: %d\ndata_sha256: %s\n",
		h.ModuleType, h.AppSize, h.DataSize, h.DataSHA256)
	return err
}

// RenderError prints the error followed by its details in key order
func (r *Renderer) RenderError(err error) error {
	if _, werr := fmt.Fprintf(r.output, "Error: %v\n", err); werr != nil {
		return werr
	}
	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.output, "  %s: %v\n", k, details[k])
	}
	return nil
}

// RenderMessage prints msg as is
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
