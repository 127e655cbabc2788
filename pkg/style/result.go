package style

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/ui/output/styles"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Step indicators
const (
	DoneMark   = "✓"
	FailedMark = "✗"
	SkipMark   = "!"
)

// RenderSteps lists completed steps and, last, the failed one
func RenderSteps(steps []string, failed string) string {
	var b strings.Builder
	ok := styles.GetStyle("Success")
	for _, s := range steps {
		fmt.Fprintf(&b, "  %s %s\n", ok.Render(DoneMark), styles.GetStyle("Step").Render(s))
	}
	if failed != "" {
		fmt.Fprintf(&b, "  %s %s\n", styles.GetStyle("Error").Render(FailedMark), failed)
	}
	return b.String()
}

// PlanHeader is the header row of a flash plan table
var PlanHeader = []string{"Partition", "Offset", "Source"}

// RenderPlan draws the resolved writes, followed by one warning line per
// skipped partition
func RenderPlan(plan types.FlashPlan) (string, error) {
	var b strings.Builder

	if plan.Empty() {
		b.WriteString(styles.GetStyle("Warning").Render("Nothing to flash"))
		b.WriteString("\n")
	} else {
		data := pterm.TableData{PlanHeader}
		for _, w := range plan.Writes {
			data = append(data, []string{
				w.Partition,
				styles.GetStyle("Offset").Render(types.FormatHex(w.Offset)),
				styles.GetStyle("FilePath").Render(w.Source),
			})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return "", fmt.Errorf("failed to render flash plan: %w", err)
		}
		b.WriteString(table)
		b.WriteString("\n")
	}

	for _, name := range plan.Skipped {
		fmt.Fprintf(&b, "  %s %s not in partition table, skipped\n", styles.GetStyle("Warning").Render(SkipMark), name)
	}
	return b.String(), nil
}

// RenderHeader summarizes an update image header
func RenderHeader(h *update.Header) string {
	label := styles.GetStyle("SubHeader")
	return fmt.Sprintf("%s %s\n%s %d bytes\n%s %d bytes\n%s %s\n",
		label.Render("Module type:"), h.ModuleType,
		label.Render("App:        "), h.AppSize,
		label.Render("Data:       "), h.DataSize,
		label.Render("Data SHA256:"), h.DataSHA256)
}
