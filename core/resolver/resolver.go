// Package resolver implements two-tier variable resolution.
// A both-level field is taken from the product override when present,
// else from the quote default, else from a fallback. Every other tier is
// read only from its single owning source.
package resolver

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// Resolve returns the effective raw value of a both-level field.
// Only nil and blank strings count as absent: an override of 0 or false wins.
func Resolve(field types.Field, product types.Product, quote types.QuoteDefaults, fallback any) (any, error) {
	if err := requireTier(field, types.TierBoth); err != nil {
		return nil, err
	}
	if v, ok := product.Values.Lookup(field); ok && !IsAbsent(v) {
		return v, nil
	}
	if v, ok := quote.Values.Lookup(field); ok && !IsAbsent(v) {
		return v, nil
	}
	return fallback, nil
}

// ProductValue reads a product-only field
func ProductValue(field types.Field, product types.Product, fallback any) (any, error) {
	if err := requireTier(field, types.TierProduct); err != nil {
		return nil, err
	}
	return valueOr(product.Values, field, fallback), nil
}

// QuoteValue reads a quote-only field
func QuoteValue(field types.Field, quote types.QuoteDefaults, fallback any) (any, error) {
	if err := requireTier(field, types.TierQuote); err != nil {
		return nil, err
	}
	return valueOr(quote.Values, field, fallback), nil
}

func valueOr(values types.Values, field types.Field, fallback any) any {
	if v, ok := values.Lookup(field); ok && !IsAbsent(v) {
		return v
	}
	return fallback
}

func requireTier(field types.Field, want types.Tier) error {
	if got := field.Tier(); got != want {
		return errors.Newf(errors.TypeTierMismatch,
			"field %q is %s-level and cannot be read as %s-level", field, got, want).
			WithContext("field", string(field))
	}
	return nil
}

var timeZero time.Time

// reader keeps the first tier error so the typed builders stay linear
type reader struct {
	product types.Product
	quote   types.QuoteDefaults
	err     error
}

func (r *reader) keep(v any, err error) any {
	if err != nil && r.err == nil {
		r.err = err
	}
	return v
}

func (r *reader) both(f types.Field, fallback any) any {
	return r.keep(Resolve(f, r.product, r.quote, fallback))
}

func (r *reader) own(f types.Field, fallback any) any {
	return r.keep(ProductValue(f, r.product, fallback))
}

func (r *reader) q(f types.Field, fallback any) any {
	return r.keep(QuoteValue(f, r.quote, fallback))
}

func (r *reader) qDecimal(f types.Field) decimal.Decimal {
	return ToDecimal(r.q(f, nil), decimal.Zero)
}

func (r *reader) qPercent(f types.Field, fallback int64) decimal.Decimal {
	return types.Percent(ToDecimal(r.q(f, nil), decimal.NewFromInt(fallback)))
}

// ResolveProduct builds the typed inputs of one product
func ResolveProduct(index int, product types.Product, quote types.QuoteDefaults) (types.ProductInputs, error) {
	r := &reader{product: product, quote: quote}
	in := types.ProductInputs{
		Index:        index,
		SKU:          ToString(r.own(types.FieldSKU, nil), ""),
		Name:         ToString(r.own(types.FieldName, nil), ""),
		CustomsCode:  ToString(r.own(types.FieldCustomsCode, nil), ""),
		BasePriceVAT: ToDecimal(r.own(types.FieldBasePriceVAT, nil), decimal.Zero),
		Quantity:     ToInt(r.own(types.FieldQuantity, nil), 0),
		WeightKg:     ToDecimal(r.own(types.FieldWeightKg, nil), decimal.Zero),

		Currency:         types.Currency(strings.ToUpper(ToString(r.both(types.FieldCurrencyOfBasePrice, nil), ""))),
		SupplierCountry:  ToString(r.both(types.FieldSupplierCountry, nil), ""),
		SupplierDiscount: types.Percent(ToDecimal(r.both(types.FieldSupplierDiscount, nil), decimal.Zero)),
		ExchangeRate:     ToDecimal(r.both(types.FieldExchangeRate, nil), decimal.Zero),
		ImportTariff:     types.Percent(ToDecimal(r.both(types.FieldImportTariff, nil), decimal.Zero)),
		Markup:           types.Percent(ToDecimal(r.both(types.FieldMarkup, nil), decimal.Zero)),
	}

	excise := ToDecimal(r.both(types.FieldExciseTax, nil), decimal.Zero)
	if exciseBasis(r) == types.ExcisePercent {
		excise = types.Percent(excise)
	}
	in.ExciseTax = excise

	if r.err != nil {
		return types.ProductInputs{}, r.err
	}
	return in, nil
}

func exciseBasis(r *reader) types.ExciseBasis {
	basis := types.ExciseBasis(strings.ToLower(ToString(r.q(types.FieldExciseBasis, nil), string(types.ExcisePerKg))))
	if basis != types.ExcisePercent {
		return types.ExcisePerKg
	}
	return basis
}

// ResolveQuote builds the typed quote terms
func ResolveQuote(quote types.QuoteDefaults) (types.QuoteTerms, error) {
	r := &reader{quote: quote}
	t := types.QuoteTerms{
		ID:            ToString(r.q(types.FieldQuoteID, nil), ""),
		SellerCompany: ToString(r.q(types.FieldSellerCompany, nil), ""),
		SaleType:      types.SaleType(strings.ToLower(ToString(r.q(types.FieldSaleType, nil), string(types.SaleSupply)))),
		Incoterms:     types.Incoterms(strings.ToUpper(ToString(r.q(types.FieldIncoterms, nil), ""))),
		Currency:      types.Currency(strings.ToUpper(ToString(r.q(types.FieldCurrencyOfQuote, nil), ""))),
		QuoteDate:     ToDate(r.q(types.FieldQuoteDate, nil), timeZero),
		DeliveryDate:  ToDate(r.q(types.FieldDeliveryDate, nil), timeZero),
		DeliveryDays:  ToInt(r.q(types.FieldDeliveryTime, nil), 0),

		AdvanceFromClient: r.qPercent(types.FieldAdvanceFromClient, 100),
		AdvanceOnLoading:  r.qPercent(types.FieldAdvanceOnLoading, 0),
		AdvanceOnGoing:    r.qPercent(types.FieldAdvanceOnGoingToCountry, 0),
		AdvanceOnCustoms:  r.qPercent(types.FieldAdvanceOnCustoms, 0),
		AdvanceToSupplier: r.qPercent(types.FieldAdvanceToSupplier, 100),

		TimeToAdvance:            ToInt(r.q(types.FieldTimeToAdvance, nil), 0),
		TimeToAdvanceOnReceiving: ToInt(r.q(types.FieldTimeToAdvanceOnReceiving, nil), 0),

		Logistics: types.LogisticsCosts{
			SupplierHub:      r.qDecimal(types.FieldLogisticsSupplierHub),
			HubCustoms:       r.qDecimal(types.FieldLogisticsHubCustoms),
			CustomsClearance: r.qDecimal(types.FieldLogisticsClearance),
			BrokerageHub:     r.qDecimal(types.FieldBrokerageHub),
			BrokerageCustoms: r.qDecimal(types.FieldBrokerageCustoms),
			Warehousing:      r.qDecimal(types.FieldWarehousingAtCustoms),
			Documentation:    r.qDecimal(types.FieldCustomsDocumentation),
			BrokerageExtra:   r.qDecimal(types.FieldBrokerageExtra),
		},
		InsuranceRate: r.qPercent(types.FieldRateInsurance, 0),

		DMFeeType:   types.DMFeeType(strings.ToLower(ToString(r.q(types.FieldDMFeeType, nil), string(types.DMFeeFixed)))),
		ExciseBasis: exciseBasis(r),
	}

	t.DMFeeValue = r.qDecimal(types.FieldDMFeeValue)
	if t.DMFeeType == types.DMFeePercent {
		t.DMFeeValue = types.Percent(t.DMFeeValue)
	}

	if r.err != nil {
		return types.QuoteTerms{}, r.err
	}
	return t, nil
}
