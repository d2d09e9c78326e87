// Package aggregate builds the quote summary from per-product results.
// Every engine value is in the quote currency; a second currency is only
// ever produced here, from an explicit conversion.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// marginPlaces is the precision of the margin ratio
const marginPlaces int32 = 4

// CheckConversion rejects a conversion that does not state a usable rate
func CheckConversion(quoteCurrency types.Currency, conv types.CurrencyConversion) error {
	currency := types.Currency(strings.TrimSpace(string(conv.Currency)))
	if currency == "" {
		return errors.RateUnknown("reporting conversion has no currency").
			WithContext("quote_currency", quoteCurrency.String())
	}
	if !conv.Rate.IsPositive() {
		return errors.RateUnknown(fmt.Sprintf("no usable %s/%s rate", quoteCurrency, currency)).
			WithContext("rate", conv.Rate.String())
	}
	if strings.EqualFold(string(currency), string(quoteCurrency)) && !conv.Rate.Equal(types.One) {
		return errors.RateUnknown(fmt.Sprintf("conversion from %s into itself must have rate 1, got %s", quoteCurrency, conv.Rate)).
			WithContext("rate", conv.Rate.String())
	}
	return nil
}

// Totals sums every monetary field across product results
func Totals(products []types.PhaseResult) types.Totals {
	var t types.Totals
	t.Purchase = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Purchase.Total })
	t.Internal = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Internal.Total })
	t.Logistics = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Logistics.Total })
	t.Insurance = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Logistics.InsuranceShare })
	t.Duty = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Duties.Duty })
	t.Excise = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Duties.Excise })
	t.SupplierGross = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Duties.SupplierGross })
	t.Financing = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Financing.Initial })
	t.CreditInterest = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Financing.Credit })
	t.COGS = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.COGS.Total })
	t.Profit = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Sales.Profit })
	t.DMFee = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Sales.DMFee })
	t.Forex = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Sales.Forex })
	t.AgentFee = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Sales.AgentFee })
	t.SaleNoVAT = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Sales.Total })
	t.SalesVAT = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.VAT.SalesVAT })
	t.DeductibleVAT = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.VAT.DeductibleVAT })
	t.NetVAT = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.VAT.NetVAT })
	t.SaleWithVAT = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.VAT.TotalWithVAT })
	t.TransitComm = sum(products, func(p types.PhaseResult) decimal.Decimal { return p.Transit.Commission })
	return t
}

func sum(products []types.PhaseResult, value func(types.PhaseResult) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(value(p))
	}
	return total
}

// Margin is profit over the sale total excluding VAT, zero for an empty sale
func Margin(t types.Totals) decimal.Decimal {
	if !t.SaleNoVAT.IsPositive() {
		return decimal.Zero
	}
	return t.Profit.Div(t.SaleNoVAT).Round(marginPlaces)
}

// Summarize builds the quote summary. The conversion is mandatory: a
// missing or non-positive rate is RATE_UNKNOWN and is never replaced by 1.
func Summarize(products []types.PhaseResult, aggregates types.QuoteAggregates, terms types.QuoteTerms, conv types.CurrencyConversion) (types.QuoteSummary, error) {
	if err := CheckConversion(terms.Currency, conv); err != nil {
		return types.QuoteSummary{}, err
	}

	totals := Totals(products)
	conv.Currency = types.Currency(strings.ToUpper(strings.TrimSpace(string(conv.Currency))))

	return types.QuoteSummary{
		QuoteID:         terms.ID,
		ProductCount:    len(products),
		QuoteCurrency:   terms.Currency,
		Totals:          totals,
		Aggregates:      aggregates,
		Margin:          Margin(totals),
		Reporting:       conv,
		ReportingTotals: totals.Convert(conv.Rate),
	}, nil
}
