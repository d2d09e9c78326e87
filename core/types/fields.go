// Package types - Input field catalogue and raw value maps
package types

import (
	"bytes"
	"encoding/json"

	"trade-quote/core/determinism"
)

// Field names one raw input variable
type Field string

// Tier identifies which source owns a field
type Tier int

const (
	// TierUnknown is returned for fields outside the catalogue
	TierUnknown Tier = iota

	// TierProduct fields are read only from the product record
	TierProduct

	// TierQuote fields are read only from the quote defaults
	TierQuote

	// TierBoth fields may be overridden per product over a quote default
	TierBoth

	// TierAdmin fields are organisation-wide settings
	TierAdmin
)

// String returns the tier name
func (t Tier) String() string {
	switch t {
	case TierProduct:
		return "product"
	case TierQuote:
		return "quote"
	case TierBoth:
		return "both"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Product-only fields
const (
	FieldSKU          Field = "sku"
	FieldName         Field = "name"
	FieldBasePriceVAT Field = "base_price_vat"
	FieldQuantity     Field = "quantity"
	FieldWeightKg     Field = "weight_in_kg"
	FieldCustomsCode  Field = "customs_code"
)

// Both-level fields
const (
	FieldCurrencyOfBasePrice Field = "currency_of_base_price"
	FieldSupplierCountry     Field = "supplier_country"
	FieldSupplierDiscount    Field = "supplier_discount"
	FieldExchangeRate        Field = "exchange_rate"
	FieldImportTariff        Field = "import_tariff"
	FieldExciseTax           Field = "excise_tax"
	FieldMarkup              Field = "markup"
)

// Quote-only fields
const (
	FieldQuoteID                  Field = "id"
	FieldSellerCompany            Field = "seller_company"
	FieldSaleType                 Field = "offer_sale_type"
	FieldIncoterms                Field = "offer_incoterms"
	FieldCurrencyOfQuote          Field = "currency_of_quote"
	FieldQuoteDate                Field = "quote_date"
	FieldDeliveryDate             Field = "delivery_date"
	FieldDeliveryTime             Field = "delivery_time"
	FieldAdvanceFromClient        Field = "advance_from_client"
	FieldAdvanceOnLoading         Field = "advance_on_loading"
	FieldAdvanceOnGoingToCountry  Field = "advance_on_going_to_country_destination"
	FieldAdvanceOnCustoms         Field = "advance_on_customs_clearance"
	FieldAdvanceToSupplier        Field = "advance_to_supplier"
	FieldTimeToAdvance            Field = "time_to_advance"
	FieldTimeToAdvanceOnReceiving Field = "time_to_advance_on_receiving"
	FieldLogisticsSupplierHub     Field = "logistics_supplier_hub"
	FieldLogisticsHubCustoms      Field = "logistics_hub_customs"
	FieldLogisticsClearance       Field = "logistics_customs_clearance"
	FieldBrokerageHub             Field = "brokerage_hub"
	FieldBrokerageCustoms         Field = "brokerage_customs"
	FieldWarehousingAtCustoms     Field = "warehousing_at_customs"
	FieldCustomsDocumentation     Field = "customs_documentation"
	FieldBrokerageExtra           Field = "brokerage_extra"
	FieldRateInsurance            Field = "rate_insurance"
	FieldDMFeeType                Field = "dm_fee_type"
	FieldDMFeeValue               Field = "dm_fee_value"
	FieldExciseBasis              Field = "excise_basis"
)

// Admin-only fields
const (
	FieldRateForexRisk          Field = "rate_forex_risk"
	FieldRateFinComm            Field = "rate_fin_comm"
	FieldRateLoanInterestDaily  Field = "rate_loan_interest_daily"
	FieldRateLoanInterestAnnual Field = "rate_loan_interest_annual"
	FieldCustomsLogisticsPmtDue Field = "customs_logistics_pmt_due"
)

var fieldTiers = map[Field]Tier{
	FieldSKU:          TierProduct,
	FieldName:         TierProduct,
	FieldBasePriceVAT: TierProduct,
	FieldQuantity:     TierProduct,
	FieldWeightKg:     TierProduct,
	FieldCustomsCode:  TierProduct,

	FieldCurrencyOfBasePrice: TierBoth,
	FieldSupplierCountry:     TierBoth,
	FieldSupplierDiscount:    TierBoth,
	FieldExchangeRate:        TierBoth,
	FieldImportTariff:        TierBoth,
	FieldExciseTax:           TierBoth,
	FieldMarkup:              TierBoth,

	FieldQuoteID:                  TierQuote,
	FieldSellerCompany:            TierQuote,
	FieldSaleType:                 TierQuote,
	FieldIncoterms:                TierQuote,
	FieldCurrencyOfQuote:          TierQuote,
	FieldQuoteDate:                TierQuote,
	FieldDeliveryDate:             TierQuote,
	FieldDeliveryTime:             TierQuote,
	FieldAdvanceFromClient:        TierQuote,
	FieldAdvanceOnLoading:         TierQuote,
	FieldAdvanceOnGoingToCountry:  TierQuote,
	FieldAdvanceOnCustoms:         TierQuote,
	FieldAdvanceToSupplier:        TierQuote,
	FieldTimeToAdvance:            TierQuote,
	FieldTimeToAdvanceOnReceiving: TierQuote,
	FieldLogisticsSupplierHub:     TierQuote,
	FieldLogisticsHubCustoms:      TierQuote,
	FieldLogisticsClearance:       TierQuote,
	FieldBrokerageHub:             TierQuote,
	FieldBrokerageCustoms:         TierQuote,
	FieldWarehousingAtCustoms:     TierQuote,
	FieldCustomsDocumentation:     TierQuote,
	FieldBrokerageExtra:           TierQuote,
	FieldRateInsurance:            TierQuote,
	FieldDMFeeType:                TierQuote,
	FieldDMFeeValue:               TierQuote,
	FieldExciseBasis:              TierQuote,

	FieldRateForexRisk:          TierAdmin,
	FieldRateFinComm:            TierAdmin,
	FieldRateLoanInterestDaily:  TierAdmin,
	FieldRateLoanInterestAnnual: TierAdmin,
	FieldCustomsLogisticsPmtDue: TierAdmin,
}

// Tier returns the owning tier of a field
func (f Field) Tier() Tier {
	return fieldTiers[f]
}

// FieldsInTier lists the catalogue fields of one tier, sorted by name
func FieldsInTier(t Tier) []Field {
	var out []Field
	for _, f := range determinism.SortedKeys(fieldTiers) {
		if fieldTiers[f] == t {
			out = append(out, f)
		}
	}
	return out
}

// Values holds raw, uncoerced input values keyed by field.
// JSON numbers are kept as json.Number so no float64 ever reaches a decimal.
type Values map[Field]any

// Lookup returns the raw value and whether the key was present at all
func (v Values) Lookup(f Field) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v[f]
	return val, ok
}

// UnmarshalJSON decodes an object keeping numbers as json.Number
func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw := map[string]any{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for k, val := range raw {
		out[Field(k)] = val
	}
	*v = out
	return nil
}

// Product is one line item's raw input record. Read-only to the engine.
type Product struct {
	Values Values
}

// NewProduct wraps raw values as a product record
func NewProduct(values Values) Product {
	return Product{Values: values}
}

// UnmarshalJSON reads a flat product object
func (p *Product) UnmarshalJSON(data []byte) error {
	return p.Values.UnmarshalJSON(data)
}

// MarshalJSON writes a flat product object
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[Field]any(p.Values))
}

// QuoteDefaults holds the quote-wide raw values shared by every product
type QuoteDefaults struct {
	Values Values
}

// NewQuoteDefaults wraps raw values as quote defaults
func NewQuoteDefaults(values Values) QuoteDefaults {
	return QuoteDefaults{Values: values}
}

// UnmarshalJSON reads a flat quote object
func (q *QuoteDefaults) UnmarshalJSON(data []byte) error {
	return q.Values.UnmarshalJSON(data)
}

// MarshalJSON writes a flat quote object
func (q QuoteDefaults) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[Field]any(q.Values))
}
