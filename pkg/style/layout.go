// Package style renders partition layouts, flash plans and pipeline
// results for the terminal. Tables are drawn with pterm; colors come from
// the semantic styles in pkg/ui/output/styles.
package style

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/ui/output/styles"
)

// LayoutHeader is the header row of a layout table
var LayoutHeader = []string{"Name", "Type", "SubType", "Offset", "Size", "End", "Flags"}

// LayoutRows returns one unstyled row per entry. The synthetic entries
// have no size, so their Size and End cells are "-".
func LayoutRows(entries []types.PartitionEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		size, end := "-", "-"
		if e.SizeKnown {
			size, end = types.FormatHex(e.Size), types.FormatEnd(e.End())
		}
		rows = append(rows, []string{e.Name, e.Type, e.SubType, e.HexOffset(), size, end, e.Flags})
	}
	return rows
}

// RenderLayout draws the layout as a table. color=false leaves cells
// unstyled.
func RenderLayout(entries []types.PartitionEntry, color bool) (string, error) {
	if len(entries) == 0 {
		return styles.GetStyle("Muted").Render("No partitions"), nil
	}

	rows := LayoutRows(entries)
	if color {
		for i, e := range entries {
			rows[i][0] = styles.PartitionStyle(e.Type, e.Synthetic).Render(rows[i][0])
			rows[i][3] = styles.GetStyle("Offset").Render(rows[i][3])
		}
	}

	data := append(pterm.TableData{LayoutHeader}, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render layout: %w", err)
	}
	return out, nil
}
