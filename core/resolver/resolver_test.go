package resolver

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// TestResolveTwoTierOrder covers product > quote > fallback, including the zero override regression
func TestResolveTwoTierOrder(t *testing.T) {
	tests := []struct {
		name     string
		product  types.Values
		quote    types.Values
		fallback any
		want     any
	}{
		{
			name:     "zero product override wins over non-zero quote default",
			product:  types.Values{types.FieldMarkup: 0},
			quote:    types.Values{types.FieldMarkup: 15},
			fallback: 10,
			want:     0,
		},
		{
			name:     "json zero override wins",
			product:  types.Values{types.FieldSupplierDiscount: json.Number("0")},
			quote:    types.Values{types.FieldSupplierDiscount: json.Number("5")},
			fallback: nil,
			want:     json.Number("0"),
		},
		{
			name:     "false override wins",
			product:  types.Values{types.FieldSupplierCountry: false},
			quote:    types.Values{types.FieldSupplierCountry: "Turkey"},
			fallback: "",
			want:     false,
		},
		{
			name:     "empty string override falls through to quote",
			product:  types.Values{types.FieldMarkup: "  "},
			quote:    types.Values{types.FieldMarkup: 15},
			fallback: 10,
			want:     15,
		},
		{
			name:     "nil override falls through to quote",
			product:  types.Values{types.FieldMarkup: nil},
			quote:    types.Values{types.FieldMarkup: 15},
			fallback: 10,
			want:     15,
		},
		{
			name:     "nil quote default falls through to fallback",
			product:  types.Values{},
			quote:    types.Values{types.FieldMarkup: nil},
			fallback: 10,
			want:     10,
		},
		{
			name:     "missing everywhere returns fallback",
			product:  nil,
			quote:    nil,
			fallback: "USD",
			want:     "USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := types.FieldMarkup
			for f := range tt.product {
				field = f
			}
			for f := range tt.quote {
				field = f
			}
			got, err := Resolve(field, types.NewProduct(tt.product), types.NewQuoteDefaults(tt.quote), tt.fallback)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolveRejectsSingleOwnerFields guards against two-tier reads of quote, product and admin fields
func TestResolveRejectsSingleOwnerFields(t *testing.T) {
	product := types.NewProduct(types.Values{types.FieldRateForexRisk: 0})
	quote := types.NewQuoteDefaults(types.Values{types.FieldRateForexRisk: 3})

	for _, f := range []types.Field{
		types.FieldRateForexRisk,
		types.FieldRateFinComm,
		types.FieldCustomsLogisticsPmtDue,
		types.FieldSellerCompany,
		types.FieldIncoterms,
		types.FieldQuantity,
		types.Field("not_a_field"),
	} {
		_, err := Resolve(f, product, quote, nil)
		require.Error(t, err, "field %s", f)
		assert.True(t, errors.IsType(err, errors.TypeTierMismatch), "field %s", f)
	}

	_, err := QuoteValue(types.FieldMarkup, quote, nil)
	assert.True(t, errors.IsType(err, errors.TypeTierMismatch))
	_, err = ProductValue(types.FieldSellerCompany, product, nil)
	assert.True(t, errors.IsType(err, errors.TypeTierMismatch))
}

// TestEveryBothLevelFieldResolves checks the catalogue and Resolve agree
func TestEveryBothLevelFieldResolves(t *testing.T) {
	for _, f := range types.FieldsInTier(types.TierBoth) {
		_, err := Resolve(f, types.Product{}, types.QuoteDefaults{}, nil)
		assert.NoError(t, err, "field %s", f)
	}
}

// TestToDecimalNeverFails checks invalid input yields the default and floats go through text
func TestToDecimalNeverFails(t *testing.T) {
	def := decimal.NewFromInt(-1)
	tests := []struct {
		in   any
		want string
	}{
		{0.1, "0.1"},
		{float32(0.2), "0.2"},
		{1200, "1200"},
		{int64(7), "7"},
		{"1 200,50", "1200.5"},
		{"1,200.50", "1200.5"},
		{"15%", "15"},
		{json.Number("0.0300"), "0.03"},
		{decimal.RequireFromString("2.5"), "2.5"},
		{"abc", "-1"},
		{"", "-1"},
		{nil, "-1"},
		{true, "-1"},
		{[]int{1}, "-1"},
	}
	for _, tt := range tests {
		got := ToDecimal(tt.in, def)
		assert.Equal(t, tt.want, got.String(), "input %#v", tt.in)
	}

	// 0.1 + 0.2 through float64 would be 0.30000000000000004
	sum := ToDecimal(0.1, def).Add(ToDecimal(0.2, def))
	assert.True(t, sum.Equal(decimal.RequireFromString("0.3")))
}

// TestToIntAndToString check the remaining coercions
func TestToIntAndToString(t *testing.T) {
	assert.Equal(t, 10, ToInt(json.Number("10"), -1))
	assert.Equal(t, 0, ToInt("0", -1))
	assert.Equal(t, 3, ToInt(3.0, -1))
	assert.Equal(t, 12, ToInt("12.00", -1))
	assert.Equal(t, -1, ToInt(3.9, -1))
	assert.Equal(t, -1, ToInt("10.9", -1))
	assert.Equal(t, -1, ToInt("1e30", -1))
	assert.Equal(t, -1, ToInt(json.Number("-1e30"), -1))
	assert.Equal(t, -1, ToInt("ten", -1))
	assert.Equal(t, -1, ToInt(nil, -1))
	assert.Equal(t, -1, ToInt(true, -1))

	assert.Equal(t, "Turkey", ToString("  Turkey ", "x"))
	assert.Equal(t, "12", ToString(12, "x"))
	assert.Equal(t, "x", ToString("", "x"))
	assert.Equal(t, "x", ToString(struct{}{}, "x"))
}

// TestResolveProductAppliesPercentAndOverrides checks the typed view of a product
func TestResolveProductAppliesPercentAndOverrides(t *testing.T) {
	quote := types.NewQuoteDefaults(types.Values{
		types.FieldMarkup:              json.Number("15"),
		types.FieldCurrencyOfBasePrice: "eur",
		types.FieldExchangeRate:        "1.08",
		types.FieldSupplierCountry:     "Turkey",
	})
	product := types.NewProduct(types.Values{
		types.FieldSKU:          "SKF-6205",
		types.FieldBasePriceVAT: json.Number("1200"),
		types.FieldQuantity:     json.Number("10"),
		types.FieldMarkup:       json.Number("0"),
		types.FieldImportTariff: "5",
	})

	in, err := ResolveProduct(2, product, quote)
	require.NoError(t, err)
	assert.Equal(t, 2, in.Index)
	assert.Equal(t, "SKF-6205", in.SKU)
	assert.Equal(t, 10, in.Quantity)
	assert.True(t, in.Markup.IsZero())
	assert.Equal(t, types.Currency("EUR"), in.Currency)
	assert.Equal(t, "1.08", in.ExchangeRate.String())
	assert.Equal(t, "0.05", in.ImportTariff.String())
	assert.Equal(t, "Turkey", in.SupplierCountry)
}

// TestResolveProductRejectsFractionalQuantity leaves quantity at zero so validation reports it
func TestResolveProductRejectsFractionalQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity any
	}{
		{"fractional text", "10.9"},
		{"fractional number", json.Number("2.5")},
		{"overflow", "1e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := types.NewProduct(types.Values{
				types.FieldSKU:          "SKF-6205",
				types.FieldBasePriceVAT: json.Number("1200"),
				types.FieldQuantity:     tt.quantity,
			})
			in, err := ResolveProduct(0, product, types.NewQuoteDefaults(types.Values{}))
			require.NoError(t, err)
			assert.Equal(t, 0, in.Quantity)
		})
	}
}

// TestResolveQuoteDefaults checks quote fallbacks
func TestResolveQuoteDefaults(t *testing.T) {
	terms, err := ResolveQuote(types.NewQuoteDefaults(types.Values{
		types.FieldIncoterms:    "ddp",
		types.FieldDeliveryTime: json.Number("30"),
		types.FieldQuoteDate:    "2025-12-15",
		types.FieldDMFeeType:    "percent",
		types.FieldDMFeeValue:   json.Number("2"),
	}))
	require.NoError(t, err)
	assert.Equal(t, types.IncotermsDDP, terms.Incoterms)
	assert.Equal(t, types.SaleSupply, terms.SaleType)
	assert.True(t, terms.AdvanceFromClient.Equal(types.One))
	assert.True(t, terms.AdvanceToSupplier.Equal(types.One))
	assert.Equal(t, "0.02", terms.DMFeeValue.String())
	assert.Equal(t, "2026-01-14", terms.ReferenceDate().Format("2006-01-02"))
}
