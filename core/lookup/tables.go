// Package lookup provides the derived-variable tables: seller region,
// origin VAT, internal markup and date-sensitive destination VAT.
// Tables are immutable once built and safe for concurrent reads.
package lookup

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

//go:embed default_tables.hcl
var defaultTablesHCL []byte

// DefaultTablesFile is the name reported for the embedded tables
const DefaultTablesFile = "default_tables.hcl"

// tableFile is the HCL document layout
type tableFile struct {
	Sellers      []sellerBlock      `hcl:"seller,block"`
	Origins      []originBlock      `hcl:"origin,block"`
	Markups      []markupBlock      `hcl:"internal_markup,block"`
	Destinations []destinationBlock `hcl:"destination_vat,block"`
}

type sellerBlock struct {
	Name   string `hcl:"name,label"`
	Region string `hcl:"region"`
}

type originBlock struct {
	Country          string `hcl:"country,label"`
	VATRate          string `hcl:"vat_rate"`
	PriceExcludesVAT bool   `hcl:"price_excludes_vat,optional"`
}

type markupBlock struct {
	Origin string `hcl:"origin,label"`
	Region string `hcl:"region,label"`
	Rate   string `hcl:"rate"`
}

type destinationBlock struct {
	Region         string `hcl:"region,label"`
	Rate           string `hcl:"rate"`
	ChangeoverDate string `hcl:"changeover_date,optional"`
	ChangeoverRate string `hcl:"changeover_rate,optional"`
}

// Origin is one supplier-country row
type Origin struct {
	Country          string
	VATRate          decimal.Decimal
	PriceExcludesVAT bool
}

// DestinationVAT is one region's VAT schedule
type DestinationVAT struct {
	Region         types.Region
	Rate           decimal.Decimal
	ChangeoverDate time.Time
	ChangeoverRate decimal.Decimal
}

// RateOn returns the rate in force on a date
func (d DestinationVAT) RateOn(ref time.Time) decimal.Decimal {
	if !d.ChangeoverDate.IsZero() && !ref.Before(d.ChangeoverDate) {
		return d.ChangeoverRate
	}
	return d.Rate
}

type markupKey struct {
	origin string
	region types.Region
}

// Tables holds the parsed lookup data
type Tables struct {
	source       string
	sellers      map[string]types.Region
	sellerNames  map[string]string
	origins      map[string]Origin
	markups      map[markupKey]decimal.Decimal
	destinations map[types.Region]DestinationVAT
}

// Default parses the embedded tables. The embedded file is part of the
// build, so a parse failure is a programming error.
func Default() *Tables {
	t, err := Parse(defaultTablesHCL, DefaultTablesFile)
	if err != nil {
		panic(fmt.Sprintf("embedded lookup tables are invalid: %v", err))
	}
	return t
}

// Load reads tables from an HCL file, or the embedded defaults when path is empty
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("read lookup tables %s", path), err)
	}
	return Parse(src, path)
}

// Parse builds tables from HCL source
func Parse(src []byte, filename string) (*Tables, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagnosticsError(filename, diags)
	}

	var doc tableFile
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, diagnosticsError(filename, diags)
	}

	return build(filename, doc)
}

func diagnosticsError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("%s:%d: %s: %s", filename, line, diag.Summary, diag.Detail))
	}
	return errors.Config("invalid lookup tables", fmt.Errorf("%s", strings.Join(msgs, "; ")))
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func parseRate(filename, where, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.Config(fmt.Sprintf("%s: %s has malformed rate %q", filename, where, raw), err)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(types.One) {
		return decimal.Zero, errors.Config(fmt.Sprintf("%s: %s rate %s must be a fraction in [0, 1)", filename, where, raw), nil)
	}
	return d, nil
}

func duplicate(filename, table, key string) error {
	return errors.Config(fmt.Sprintf("%s: duplicate %s entry %q", filename, table, key), nil)
}

func build(filename string, doc tableFile) (*Tables, error) {
	t := &Tables{
		source:       filename,
		sellers:      make(map[string]types.Region, len(doc.Sellers)),
		sellerNames:  make(map[string]string, len(doc.Sellers)),
		origins:      make(map[string]Origin, len(doc.Origins)),
		markups:      make(map[markupKey]decimal.Decimal, len(doc.Markups)),
		destinations: make(map[types.Region]DestinationVAT, len(doc.Destinations)),
	}

	for _, d := range doc.Destinations {
		region := types.Region(strings.ToUpper(strings.TrimSpace(d.Region)))
		if _, ok := t.destinations[region]; ok {
			return nil, duplicate(filename, "destination_vat", d.Region)
		}
		rate, err := parseRate(filename, "destination_vat "+d.Region, d.Rate)
		if err != nil {
			return nil, err
		}
		entry := DestinationVAT{Region: region, Rate: rate, ChangeoverRate: rate}
		if d.ChangeoverDate != "" {
			on, err := time.Parse("2006-01-02", d.ChangeoverDate)
			if err != nil {
				return nil, errors.Config(fmt.Sprintf("%s: destination_vat %s has malformed changeover_date", filename, d.Region), err)
			}
			if d.ChangeoverRate == "" {
				return nil, errors.Config(fmt.Sprintf("%s: destination_vat %s has changeover_date without changeover_rate", filename, d.Region), nil)
			}
			next, err := parseRate(filename, "destination_vat "+d.Region+" changeover", d.ChangeoverRate)
			if err != nil {
				return nil, err
			}
			entry.ChangeoverDate = on
			entry.ChangeoverRate = next
		}
		t.destinations[region] = entry
	}

	for _, s := range doc.Sellers {
		key := normalize(s.Name)
		if _, ok := t.sellers[key]; ok {
			return nil, duplicate(filename, "seller", s.Name)
		}
		region := types.Region(strings.ToUpper(strings.TrimSpace(s.Region)))
		if _, ok := t.destinations[region]; !ok {
			return nil, errors.Config(fmt.Sprintf("%s: seller %q uses region %s with no destination_vat entry", filename, s.Name, region), nil)
		}
		t.sellers[key] = region
		t.sellerNames[key] = s.Name
	}

	for _, o := range doc.Origins {
		key := normalize(o.Country)
		if _, ok := t.origins[key]; ok {
			return nil, duplicate(filename, "origin", o.Country)
		}
		rate, err := parseRate(filename, "origin "+o.Country, o.VATRate)
		if err != nil {
			return nil, err
		}
		t.origins[key] = Origin{Country: o.Country, VATRate: rate, PriceExcludesVAT: o.PriceExcludesVAT}
	}

	for _, m := range doc.Markups {
		key := markupKey{origin: normalize(m.Origin), region: types.Region(strings.ToUpper(strings.TrimSpace(m.Region)))}
		where := fmt.Sprintf("internal_markup %s/%s", m.Origin, m.Region)
		if _, ok := t.markups[key]; ok {
			return nil, duplicate(filename, "internal_markup", m.Origin+"/"+m.Region)
		}
		if _, ok := t.origins[key.origin]; !ok {
			return nil, errors.Config(fmt.Sprintf("%s: %s references unknown origin", filename, where), nil)
		}
		rate, err := parseRate(filename, where, m.Rate)
		if err != nil {
			return nil, err
		}
		t.markups[key] = rate
	}

	return t, nil
}

// Source names the file the tables were parsed from
func (t *Tables) Source() string {
	return t.source
}

// Sellers lists seller identities and their regions, sorted by name
func (t *Tables) Sellers() [][2]string {
	keys := make([]string, 0, len(t.sellers))
	for k := range t.sellers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, len(keys))
	for i, k := range keys {
		out[i] = [2]string{t.sellerNames[k], string(t.sellers[k])}
	}
	return out
}

// Origins lists supplier countries, sorted by name
func (t *Tables) Origins() []Origin {
	out := make([]Origin, 0, len(t.origins))
	for _, o := range t.origins {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// Destinations lists region VAT schedules, sorted by region
func (t *Tables) Destinations() []DestinationVAT {
	out := make([]DestinationVAT, 0, len(t.destinations))
	for _, d := range t.destinations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// MarkupCount is the number of internal markup rows
func (t *Tables) MarkupCount() int {
	return len(t.markups)
}
