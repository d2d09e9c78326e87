package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDefaultTablesParse(t *testing.T) {
	tables := Default()
	assert.Equal(t, DefaultTablesFile, tables.Source())
	assert.Len(t, tables.Sellers(), 6)
	assert.Len(t, tables.Destinations(), 3)
	assert.Greater(t, tables.MarkupCount(), 20)
}

func TestSellerRegion(t *testing.T) {
	tables := Default()

	region, err := tables.SellerRegion("  master bearing llc ")
	require.NoError(t, err)
	assert.Equal(t, types.RegionRU, region)

	region, err = tables.SellerRegion("TEXCEL OTOMOTIV TICARET LTD STI")
	require.NoError(t, err)
	assert.Equal(t, types.RegionTR, region)

	_, err = tables.SellerRegion("ACME GMBH")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeUnknownDerivedKey))
	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "ACME GMBH", e.Context["key"])
}

func TestOriginVATRate(t *testing.T) {
	tables := Default()
	tests := []struct {
		country string
		want    string
	}{
		{"Turkey", "0.2"},
		{"Turkey (transit zone)", "0"},
		{"EU (intra-EU route)", "0"},
		{"Poland", "0.23"},
		{"china", "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			got, err := tables.OriginVATRate(tt.country)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := tables.OriginVATRate("Atlantis")
	assert.True(t, errors.IsType(err, errors.TypeUnknownDerivedKey))
}

func TestInternalMarkupIsTwoDimensional(t *testing.T) {
	tables := Default()

	ru, err := tables.InternalMarkup("Turkey", types.RegionRU)
	require.NoError(t, err)
	tr, err := tables.InternalMarkup("Turkey", types.RegionTR)
	require.NoError(t, err)
	assert.Equal(t, "0.1", ru.String())
	assert.True(t, tr.IsZero())

	// CN has no row for Poland
	_, err = tables.InternalMarkup("Poland", types.RegionCN)
	assert.True(t, errors.IsType(err, errors.TypeUnknownDerivedKey))
}

func TestDestinationVATChangeover(t *testing.T) {
	tables := Default()
	tests := []struct {
		name   string
		region types.Region
		ref    string
		want   string
	}{
		{"RU before changeover", types.RegionRU, "2025-12-31", "0.2"},
		{"RU on changeover", types.RegionRU, "2026-01-01", "0.22"},
		{"RU after changeover", types.RegionRU, "2027-06-30", "0.22"},
		{"TR before", types.RegionTR, "2025-12-31", "0"},
		{"TR after", types.RegionTR, "2026-01-01", "0"},
		{"CN after", types.RegionCN, "2030-01-01", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tables.DestinationVATRate(tt.region, date(tt.ref))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := tables.DestinationVATRate(types.Region("KZ"), date("2026-01-01"))
	assert.True(t, errors.IsType(err, errors.TypeUnknownDerivedKey))
}

func TestDerive(t *testing.T) {
	tables := Default()

	d, err := tables.Derive("UPDOOR LIMITED", "China", date("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, types.RegionCN, d.SellerRegion)
	assert.True(t, d.PriceExcludesVAT)
	assert.Equal(t, "0.13", d.OriginVAT.String())
	assert.True(t, d.InternalMarkup.IsZero())
	assert.True(t, d.DestinationVAT.IsZero())

	_, err = tables.Derive("UPDOOR LIMITED", "Latvia", date("2026-02-01"))
	assert.True(t, errors.IsType(err, errors.TypeUnknownDerivedKey))
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "syntax error",
			src:  `seller "A" { region = }`,
		},
		{
			name: "duplicate seller",
			src: `
destination_vat "RU" { rate = "0.2" }
seller "A" { region = "RU" }
seller " a " { region = "RU" }
`,
		},
		{
			name: "malformed rate",
			src:  `origin "X" { vat_rate = "twenty" }`,
		},
		{
			name: "percent instead of fraction",
			src:  `origin "X" { vat_rate = "20" }`,
		},
		{
			name: "seller region without destination",
			src:  `seller "A" { region = "KZ" }`,
		},
		{
			name: "markup for unknown origin",
			src:  `internal_markup "X" "RU" { rate = "0.1" }`,
		},
		{
			name: "changeover without rate",
			src: `
destination_vat "RU" {
  rate            = "0.2"
  changeover_date = "2026-01-01"
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.hcl")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
		})
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	tables, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTablesFile, tables.Source())

	_, err = Load("/nonexistent/tables.hcl")
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}
