// Package input - Normalized quote input envelope
// The CLI and any other caller produce this format; the engine consumes
// only the Request built from it.
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"trade-quote/core/determinism"
	"trade-quote/core/pipeline"
	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// Envelope is one quote document: the quote defaults, the products and
// optionally the admin settings and reporting conversion
type Envelope struct {
	// Source information
	Source SourceInfo `json:"-"`

	// Quote holds quote-level values, including defaults for both-level fields
	Quote types.QuoteDefaults `json:"quote"`

	// Products are the line items in input order
	Products []types.Product `json:"products"`

	// Admin overrides the configured admin settings when present
	Admin *types.AdminSettings `json:"admin,omitempty"`

	// Reporting requests a second-currency summary
	Reporting *types.CurrencyConversion `json:"reporting,omitempty"`
}

// SourceInfo describes where the input came from
type SourceInfo struct {
	Type SourceType
	Path string
	Hash determinism.ContentHash
}

// SourceType indicates the source of input
type SourceType int

const (
	SourceFile  SourceType = iota // Local file
	SourceStdin                   // Standard input
)

// String returns the source type name
func (t SourceType) String() string {
	switch t {
	case SourceFile:
		return "file"
	case SourceStdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// StdinPath selects standard input
const StdinPath = "-"

// Load reads an envelope from a file, or from stdin when path is "-"
func Load(path string) (*Envelope, error) {
	if path == StdinPath {
		env, err := Parse(os.Stdin)
		if err != nil {
			return nil, err
		}
		env.Source.Type = SourceStdin
		return env, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Input(fmt.Sprintf("open quote file %s", path), err)
	}
	defer f.Close()

	env, err := Parse(f)
	if err != nil {
		if e, ok := errors.As(err); ok {
			e.WithContext("path", path)
		}
		return nil, err
	}
	env.Source = SourceInfo{Type: SourceFile, Path: path, Hash: env.Source.Hash}
	return env, nil
}

// Parse decodes an envelope. Unknown top-level keys are rejected so a
// misspelt section is not silently ignored.
func Parse(r io.Reader) (*Envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Input("read quote input", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, errors.Input("decode quote input", err)
	}
	if env.Quote.Values == nil {
		return nil, errors.Input("quote input has no \"quote\" section", nil)
	}
	if len(env.Products) == 0 {
		return nil, errors.Input("quote input has no products", nil)
	}

	env.Source.Hash = determinism.ComputeHash(data)
	return &env, nil
}

// Request builds the engine request. fallbackAdmin is used when the
// envelope carries no admin section.
func (e *Envelope) Request(fallbackAdmin types.AdminSettings) pipeline.Request {
	admin := fallbackAdmin
	if e.Admin != nil {
		admin = *e.Admin
	}
	return pipeline.Request{
		Quote:     e.Quote,
		Products:  e.Products,
		Admin:     admin,
		Reporting: e.Reporting,
	}
}
