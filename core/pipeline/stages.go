package pipeline

import (
	"github.com/shopspring/decimal"

	"trade-quote/core/lookup"
	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// run is the state of one quote calculation. Inputs are frozen before the
// first stage. Per-product stages write only results[i]; quote stages write
// only aggregates (and, for the distribution base, each product's key).
type run struct {
	quoteID   string
	tables    *lookup.Tables
	terms     types.QuoteTerms
	admin     types.AdminSettings
	dailyRate decimal.Decimal
	inputs    []types.ProductInputs
	results   []types.PhaseResult
	agg       types.QuoteAggregates

	// keys are the distribution keys, written once by the distribution barrier
	keys []decimal.Decimal
}

// productStage computes one product's output for a stage
type productStage func(r *run, i int) error

// quoteStage computes a quote-level barrier
type quoteStage func(r *run) error

// stage is one step of the pipeline. Exactly one of product and quote is set.
type stage struct {
	name    string
	product productStage
	quote   quoteStage
}

// stages is the fixed pipeline order
var stages = []stage{
	{name: types.PhaseDerived, product: deriveVariables},
	{name: types.PhasePurchase, product: purchasePrice},
	{name: types.PhaseDistribution, quote: distributionBase},
	{name: types.PhaseInternal, product: internalPricing},
	{name: types.PhaseInsurance, quote: insuranceBase},
	{name: types.PhaseLogistics, product: logisticsDistribution},
	{name: types.PhaseDuties, product: dutiesAndVATRestoration},
	{name: types.PhaseSupplierPayment, quote: supplierPayment},
	{name: types.PhaseRevenue, quote: revenueEstimation},
	{name: types.PhaseFinancing, quote: financingCosts},
	{name: types.PhaseCreditSales, quote: creditSalesInterest},
	{name: types.PhaseDistributeFin, product: distributeFinancing},
	{name: types.PhaseCOGS, product: finalCOGS},
	{name: types.PhaseSales, product: salesPrice},
	{name: types.PhaseVAT, product: vat},
	{name: types.PhaseTransit, product: transitCommission},
}

// StageNames lists the pipeline stages in execution order
func StageNames() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}

// productError attaches the product and stage to a failure
func productError(err error, stageName string, in types.ProductInputs) error {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Wrapf(errors.TypeInternal, err, "stage %s failed", stageName)
	}
	return e.WithContext("stage", stageName).
		WithContext("product_index", in.Index).
		WithContext("sku", in.SKU)
}

// quoteError attaches the stage to a quote-level failure
func quoteError(err error, stageName string) error {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Wrapf(errors.TypeInternal, err, "stage %s failed", stageName)
	}
	return e.WithContext("stage", stageName)
}

// perUnit divides a total by quantity at money precision
func perUnit(total decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, errors.DivisionGuard("quantity").WithContext("field", string(types.FieldQuantity))
	}
	return types.RoundMoney(total.Div(decimal.NewFromInt(int64(quantity)))), nil
}

// share apportions a quote-level amount to product i by distribution key.
// Every product but the last gets its rounded share; the last gets the
// remainder, so the shares add up to the rounded amount exactly.
func (r *run) share(amount decimal.Decimal, i int) decimal.Decimal {
	amount = types.RoundMoney(amount)
	last := len(r.keys) - 1
	if i != last {
		return types.RoundMoney(amount.Mul(r.keys[i]))
	}
	rest := amount
	for j := 0; j < last; j++ {
		rest = rest.Sub(types.RoundMoney(amount.Mul(r.keys[j])))
	}
	return rest
}

// sumProducts adds one value across every product result
func (r *run) sumProducts(value func(types.PhaseResult) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, res := range r.results {
		total = total.Add(value(res))
	}
	return total
}
