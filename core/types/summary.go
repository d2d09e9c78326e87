// Package types - Quote summary and currency metadata
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyConversion converts quote-currency totals into a reporting currency.
// It has no usable zero value: a conversion must name its currency and rate.
type CurrencyConversion struct {
	// Currency is the reporting currency
	Currency Currency `json:"currency"`

	// Rate is reporting-currency units per one quote-currency unit
	Rate decimal.Decimal `json:"rate"`

	// Source names where the rate came from
	Source string `json:"source"`

	// AsOf is when the rate was observed
	AsOf time.Time `json:"as_of"`
}

// RateSourceIdentity marks a conversion into the quote currency itself
const RateSourceIdentity = "identity"

// Identity is the explicit conversion into the quote currency itself
func Identity(currency Currency, asOf time.Time) CurrencyConversion {
	return CurrencyConversion{
		Currency: currency,
		Rate:     One,
		Source:   RateSourceIdentity,
		AsOf:     asOf,
	}
}

// Totals are sums across every product's PhaseResult
type Totals struct {
	Purchase       decimal.Decimal `json:"purchase_total"`
	Internal       decimal.Decimal `json:"internal_total"`
	Logistics      decimal.Decimal `json:"logistics_total"`
	Insurance      decimal.Decimal `json:"insurance_total"`
	Duty           decimal.Decimal `json:"customs_duty"`
	Excise         decimal.Decimal `json:"excise"`
	SupplierGross  decimal.Decimal `json:"supplier_gross"`
	Financing      decimal.Decimal `json:"financing"`
	CreditInterest decimal.Decimal `json:"credit_interest"`
	COGS           decimal.Decimal `json:"cogs_total"`
	Profit         decimal.Decimal `json:"profit"`
	DMFee          decimal.Decimal `json:"dm_fee"`
	Forex          decimal.Decimal `json:"forex_reserve"`
	AgentFee       decimal.Decimal `json:"financial_agent_fee"`
	SaleNoVAT      decimal.Decimal `json:"sale_total_no_vat"`
	SalesVAT       decimal.Decimal `json:"sales_vat"`
	DeductibleVAT  decimal.Decimal `json:"deductible_import_vat"`
	NetVAT         decimal.Decimal `json:"net_vat_payable"`
	SaleWithVAT    decimal.Decimal `json:"sale_total_with_vat"`
	TransitComm    decimal.Decimal `json:"transit_commission"`
}

// Convert multiplies every total by a rate at storage precision
func (t Totals) Convert(rate decimal.Decimal) Totals {
	c := func(d decimal.Decimal) decimal.Decimal { return RoundMoney(d.Mul(rate)) }
	return Totals{
		Purchase:       c(t.Purchase),
		Internal:       c(t.Internal),
		Logistics:      c(t.Logistics),
		Insurance:      c(t.Insurance),
		Duty:           c(t.Duty),
		Excise:         c(t.Excise),
		SupplierGross:  c(t.SupplierGross),
		Financing:      c(t.Financing),
		CreditInterest: c(t.CreditInterest),
		COGS:           c(t.COGS),
		Profit:         c(t.Profit),
		DMFee:          c(t.DMFee),
		Forex:          c(t.Forex),
		AgentFee:       c(t.AgentFee),
		SaleNoVAT:      c(t.SaleNoVAT),
		SalesVAT:       c(t.SalesVAT),
		DeductibleVAT:  c(t.DeductibleVAT),
		NetVAT:         c(t.NetVAT),
		SaleWithVAT:    c(t.SaleWithVAT),
		TransitComm:    c(t.TransitComm),
	}
}

// QuoteSummary is the quote-level output, produced once per run
type QuoteSummary struct {
	QuoteID       string          `json:"quote_id"`
	ProductCount  int             `json:"product_count"`
	QuoteCurrency Currency        `json:"quote_currency"`
	Totals        Totals          `json:"totals"`
	Aggregates    QuoteAggregates `json:"aggregates"`

	// Margin is profit over sale total excluding VAT
	Margin decimal.Decimal `json:"margin"`

	Reporting       CurrencyConversion `json:"reporting"`
	ReportingTotals Totals             `json:"reporting_totals"`

	InputHash string `json:"input_hash"`
}
