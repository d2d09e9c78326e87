package output

import (
	"encoding/json"
	"io"

	"trade-quote/core/pipeline"
	"trade-quote/core/types"
)

// JSONFormatter writes the result as JSON. Without ShowPhases only the
// summary is written.
type JSONFormatter struct {
	Indent string
}

// Format returns the format type
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render writes the result
func (f *JSONFormatter) Render(w io.Writer, result *pipeline.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	if opts.ShowPhases {
		return enc.Encode(result)
	}
	return enc.Encode(struct {
		Summary types.QuoteSummary `json:"summary"`
	}{Summary: result.Summary})
}
