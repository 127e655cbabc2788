// Package json provides machine-readable JSON output
package json

import (
	"encoding/json"
	"io"

	"github.com/arthur-debert/fwprov/pkg/commands"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/publish"
	"github.com/arthur-debert/fwprov/pkg/style"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Renderer encodes one JSON document per call
type Renderer struct {
	encoder *json.Encoder
}

// New creates a JSON renderer
func New(output io.Writer) *Renderer {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return &Renderer{encoder: encoder}
}

type writeView struct {
	Partition string `json:"partition"`
	Offset    string `json:"offset"`
	Source    string `json:"source"`
}

type planView struct {
	Writes  []writeView `json:"writes"`
	Skipped []string    `json:"skipped,omitempty"`
}

type headerView struct {
	ModuleType string `json:"module_type"`
	AppSize    int64  `json:"app_size"`
	DataSize   int64  `json:"data_size"`
	DataSHA256 string `json:"data_sha256"`
}

type resultView struct {
	Command   string           `json:"command"`
	Method    string           `json:"method"`
	Variant   string           `json:"variant"`
	Steps     []string         `json:"steps"`
	Failed    string           `json:"failed,omitempty"`
	Artifacts []string         `json:"artifacts,omitempty"`
	Plan      *planView        `json:"plan,omitempty"`
	Header    *headerView      `json:"header,omitempty"`
	Release   *publish.Release `json:"release,omitempty"`
	ReadPath  string           `json:"read_path,omitempty"`
}

func toHeaderView(h *update.Header) *headerView {
	return &headerView{ModuleType: h.ModuleType, AppSize: h.AppSize, DataSize: h.DataSize, DataSHA256: h.DataSHA256}
}

// RenderResult implements ui.Renderer
func (r *Renderer) RenderResult(res *commands.Result) error {
	v := resultView{
		Command:   string(res.Invocation.Command),
		Method:    string(res.Invocation.Method),
		Variant:   string(res.Invocation.Variant),
		Steps:     res.Steps,
		Failed:    res.Failed,
		Artifacts: res.Artifacts,
		Release:   res.Release,
		ReadPath:  res.ReadPath,
	}
	if v.Steps == nil {
		v.Steps = []string{}
	}
	if res.Plan != nil {
		p := &planView{Writes: []writeView{}, Skipped: res.Plan.Skipped}
		for _, w := range res.Plan.Writes {
			p.Writes = append(p.Writes, writeView{w.Partition, types.FormatHex(w.Offset), w.Source})
		}
		v.Plan = p
	}
	if res.Header != nil {
		v.Header = toHeaderView(res.Header)
	}
	return r.encoder.Encode(v)
}

// RenderLayout implements ui.Renderer
func (r *Renderer) RenderLayout(entries []types.PartitionEntry) error {
	return r.encoder.Encode(style.LayoutView(entries))
}

// RenderHeader implements ui.Renderer
func (r *Renderer) RenderHeader(h *update.Header) error {
	return r.encoder.Encode(toHeaderView(h))
}

// RenderError encodes the message, code and details
func (r *Renderer) RenderError(err error) error {
	obj := map[string]interface{}{
		"error": err.Error(),
		"code":  errors.GetErrorCode(err),
	}
	if details := errors.GetErrorDetails(err); len(details) > 0 {
		obj["details"] = details
	}
	return r.encoder.Encode(obj)
}

// RenderMessage implements ui.Renderer
func (r *Renderer) RenderMessage(msg string) error {
	return r.encoder.Encode(map[string]string{"message": msg})
}
