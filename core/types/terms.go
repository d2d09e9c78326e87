// Package types - Resolved, typed quote and product inputs
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Incoterms is the commercial delivery convention of a quote
type Incoterms string

const (
	IncotermsDDP Incoterms = "DDP"
	IncotermsDAP Incoterms = "DAP"
	IncotermsCIF Incoterms = "CIF"
	IncotermsFOB Incoterms = "FOB"
	IncotermsFCA Incoterms = "FCA"
	IncotermsEXW Incoterms = "EXW"
)

// SellerPaysDuty reports whether customs duty is on the seller
func (i Incoterms) SellerPaysDuty() bool {
	return i == IncotermsDDP
}

// DeliversIntoDestination reports whether the goods are placed in the destination country,
// which makes sales VAT and import VAT apply
func (i Incoterms) DeliversIntoDestination() bool {
	return i == IncotermsDDP
}

// RequiresLogistics is false only for the ex-works convention
func (i Incoterms) RequiresLogistics() bool {
	return i != IncotermsEXW
}

// SaleType is the commercial nature of the deal
type SaleType string

const (
	SaleSupply  SaleType = "supply"
	SaleTransit SaleType = "transit"
	SaleExport  SaleType = "export"
)

// DMFeeType selects how the decision-maker fee is expressed
type DMFeeType string

const (
	DMFeeFixed   DMFeeType = "fixed"
	DMFeePercent DMFeeType = "percent"
)

// ExciseBasis selects how excise_tax is applied
type ExciseBasis string

const (
	ExcisePerKg   ExciseBasis = "per_kg"
	ExcisePercent ExciseBasis = "percent"
)

// LogisticsCosts are the quote-level logistics and brokerage totals
type LogisticsCosts struct {
	SupplierHub      decimal.Decimal `json:"logistics_supplier_hub"`
	HubCustoms       decimal.Decimal `json:"logistics_hub_customs"`
	CustomsClearance decimal.Decimal `json:"logistics_customs_clearance"`
	BrokerageHub     decimal.Decimal `json:"brokerage_hub"`
	BrokerageCustoms decimal.Decimal `json:"brokerage_customs"`
	Warehousing      decimal.Decimal `json:"warehousing_at_customs"`
	Documentation    decimal.Decimal `json:"customs_documentation"`
	BrokerageExtra   decimal.Decimal `json:"brokerage_extra"`
}

// FirstLeg is the supplier-to-hub cost, before insurance
func (l LogisticsCosts) FirstLeg() decimal.Decimal {
	return l.SupplierHub
}

// SecondLeg is everything from the hub onward, brokerage included
func (l LogisticsCosts) SecondLeg() decimal.Decimal {
	return Sum(l.HubCustoms, l.CustomsClearance, l.BrokerageHub, l.BrokerageCustoms,
		l.Warehousing, l.Documentation, l.BrokerageExtra)
}

// HasTransport reports whether any logistics or brokerage component is positive
func (l LogisticsCosts) HasTransport() bool {
	for _, c := range []decimal.Decimal{l.SupplierHub, l.HubCustoms, l.CustomsClearance,
		l.BrokerageHub, l.BrokerageCustoms, l.Warehousing, l.Documentation, l.BrokerageExtra} {
		if c.IsPositive() {
			return true
		}
	}
	return false
}

// QuoteTerms is the typed view of QuoteDefaults. Rates are fractions.
type QuoteTerms struct {
	ID            string    `json:"id"`
	SellerCompany string    `json:"seller_company"`
	SaleType      SaleType  `json:"offer_sale_type"`
	Incoterms     Incoterms `json:"offer_incoterms"`
	Currency      Currency  `json:"currency_of_quote"`
	QuoteDate     time.Time `json:"quote_date"`
	DeliveryDate  time.Time `json:"delivery_date"`
	DeliveryDays  int       `json:"delivery_time"`

	AdvanceFromClient decimal.Decimal `json:"advance_from_client"`
	AdvanceOnLoading  decimal.Decimal `json:"advance_on_loading"`
	AdvanceOnGoing    decimal.Decimal `json:"advance_on_going_to_country_destination"`
	AdvanceOnCustoms  decimal.Decimal `json:"advance_on_customs_clearance"`
	AdvanceToSupplier decimal.Decimal `json:"advance_to_supplier"`

	TimeToAdvance            int `json:"time_to_advance"`
	TimeToAdvanceOnReceiving int `json:"time_to_advance_on_receiving"`

	Logistics     LogisticsCosts  `json:"logistics"`
	InsuranceRate decimal.Decimal `json:"rate_insurance"`

	DMFeeType  DMFeeType       `json:"dm_fee_type"`
	DMFeeValue decimal.Decimal `json:"dm_fee_value"`

	ExciseBasis ExciseBasis `json:"excise_basis"`
}

// ReferenceDate is the date destination VAT is looked up on:
// the delivery date, or the quote date plus the delivery time.
func (q QuoteTerms) ReferenceDate() time.Time {
	if !q.DeliveryDate.IsZero() {
		return q.DeliveryDate
	}
	if q.QuoteDate.IsZero() {
		return time.Time{}
	}
	return q.QuoteDate.AddDate(0, 0, q.DeliveryDays)
}

// TotalAdvance sums every client payment stage
func (q QuoteTerms) TotalAdvance() decimal.Decimal {
	return Sum(q.AdvanceFromClient, q.AdvanceOnLoading, q.AdvanceOnGoing, q.AdvanceOnCustoms)
}

// ImportVATApplies reports whether deductible import VAT is recoverable
func (q QuoteTerms) ImportVATApplies() bool {
	return q.Incoterms.DeliversIntoDestination() && q.SaleType != SaleExport
}

// ProductInputs is the typed, two-tier-resolved view of one product. Rates are fractions.
type ProductInputs struct {
	Index       int    `json:"index"`
	SKU         string `json:"sku"`
	Name        string `json:"name,omitempty"`
	CustomsCode string `json:"customs_code,omitempty"`

	BasePriceVAT decimal.Decimal `json:"base_price_vat"`
	Quantity     int             `json:"quantity"`
	WeightKg     decimal.Decimal `json:"weight_in_kg"`

	Currency         Currency        `json:"currency_of_base_price"`
	SupplierCountry  string          `json:"supplier_country"`
	SupplierDiscount decimal.Decimal `json:"supplier_discount"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	ImportTariff     decimal.Decimal `json:"import_tariff"`
	ExciseTax        decimal.Decimal `json:"excise_tax"`
	Markup           decimal.Decimal `json:"markup"`
}

// AdminSettings are organisation-wide rates, supplied by the caller and never mutated.
// Rates are fractions (0.03 = 3%).
type AdminSettings struct {
	ForexRiskRate               decimal.Decimal `json:"rate_forex_risk"`
	FinCommissionRate           decimal.Decimal `json:"rate_fin_comm"`
	LoanInterestDaily           decimal.Decimal `json:"rate_loan_interest_daily"`
	LoanInterestAnnual          decimal.Decimal `json:"rate_loan_interest_annual"`
	CustomsLogisticsPaymentDays int             `json:"customs_logistics_pmt_due"`
}

// DaysInYear converts an annual loan rate to a daily one
const DaysInYear = 365

// DailyRate returns the daily loan rate, deriving it from the annual rate when unset
func (a AdminSettings) DailyRate() decimal.Decimal {
	if !a.LoanInterestDaily.IsZero() {
		return a.LoanInterestDaily
	}
	return a.LoanInterestAnnual.Div(decimal.NewFromInt(DaysInYear))
}

// Region is the seller's legal region
type Region string

const (
	RegionRU Region = "RU"
	RegionTR Region = "TR"
	RegionCN Region = "CN"
)

// DerivedVariables are looked up once per product from the static tables
type DerivedVariables struct {
	SellerRegion     Region          `json:"seller_region"`
	OriginVAT        decimal.Decimal `json:"vat_seller_country"`
	PriceExcludesVAT bool            `json:"price_excludes_vat"`
	InternalMarkup   decimal.Decimal `json:"internal_markup"`
	DestinationVAT   decimal.Decimal `json:"rate_vat_destination"`
}
