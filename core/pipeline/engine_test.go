package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trade-quote/core/lookup"
	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newEngine(opts ...Option) *Engine {
	return New(lookup.Default(), append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

// exwRequest is one Russian product sold ex works with every fee zeroed
func exwRequest() Request {
	return Request{
		Quote: types.NewQuoteDefaults(types.Values{
			types.FieldQuoteID:             "Q-EXW",
			types.FieldSellerCompany:       "MASTER BEARING LLC",
			types.FieldIncoterms:           "EXW",
			types.FieldCurrencyOfQuote:     "USD",
			types.FieldQuoteDate:           "2025-12-01",
			types.FieldDeliveryTime:        30,
			types.FieldCurrencyOfBasePrice: "USD",
			types.FieldExchangeRate:        1,
			types.FieldSupplierCountry:     "Russia",
			types.FieldMarkup:              10,
		}),
		Products: []types.Product{
			types.NewProduct(types.Values{
				types.FieldSKU:          "SKF-6205",
				types.FieldBasePriceVAT: 1200,
				types.FieldQuantity:     10,
			}),
		},
	}
}

// ddpRequest is a two-product delivered-duty-paid quote from Turkey
func ddpRequest(deliveryDays int) Request {
	return Request{
		Quote: types.NewQuoteDefaults(types.Values{
			types.FieldQuoteID:                  "Q-DDP",
			types.FieldSellerCompany:            "MASTER BEARING LLC",
			types.FieldIncoterms:                "DDP",
			types.FieldCurrencyOfQuote:          "USD",
			types.FieldQuoteDate:                "2025-12-01",
			types.FieldDeliveryTime:             deliveryDays,
			types.FieldCurrencyOfBasePrice:      "USD",
			types.FieldExchangeRate:             1,
			types.FieldSupplierCountry:          "Turkey",
			types.FieldImportTariff:             5,
			types.FieldMarkup:                   15,
			types.FieldLogisticsSupplierHub:     1000,
			types.FieldLogisticsHubCustoms:      500,
			types.FieldRateInsurance:            "0.3",
			types.FieldAdvanceFromClient:        30,
			types.FieldAdvanceOnCustoms:         20,
			types.FieldTimeToAdvance:            7,
			types.FieldTimeToAdvanceOnReceiving: 15,
			types.FieldDMFeeType:                "fixed",
			types.FieldDMFeeValue:               250,
		}),
		Products: []types.Product{
			types.NewProduct(types.Values{
				types.FieldSKU:          "SKF-6205",
				types.FieldBasePriceVAT: 1200,
				types.FieldQuantity:     10,
			}),
			types.NewProduct(types.Values{
				types.FieldSKU:          "SKF-6206",
				types.FieldBasePriceVAT: 600,
				types.FieldQuantity:     5,
				types.FieldMarkup:       0,
			}),
		},
		Admin: types.AdminSettings{
			ForexRiskRate:               dec("0.03"),
			FinCommissionRate:           dec("0.02"),
			LoanInterestAnnual:          dec("0.25"),
			CustomsLogisticsPaymentDays: 10,
		},
	}
}

func TestEndToEndSingleProduct(t *testing.T) {
	result, err := newEngine().Calculate(context.Background(), exwRequest())
	require.NoError(t, err)
	require.Len(t, result.Products, 1)

	p := result.Products[0]
	// 1200 / 1.20 × 10
	assert.True(t, p.Purchase.Total.Equal(dec("10000")), "purchase total %s", p.Purchase.Total)
	assert.True(t, p.DistributionKey.Equal(types.One))
	assert.True(t, p.COGS.Total.Equal(dec("10000")), "cogs %s", p.COGS.Total)
	assert.True(t, p.Sales.Profit.Equal(dec("1000")))
	// 10000 × 1.10
	assert.True(t, p.Sales.Total.Equal(dec("11000")), "sale total %s", p.Sales.Total)
	assert.True(t, p.Sales.UnitPrice.Equal(dec("1100")))
	assert.True(t, p.VAT.SalesVAT.IsZero())
	assert.True(t, p.Duties.SupplierGross.Equal(dec("12000")))

	assert.Equal(t, "Q-EXW", result.Summary.QuoteID)
	assert.True(t, result.Summary.Totals.SaleNoVAT.Equal(dec("11000")))
	assert.Equal(t, types.RateSourceIdentity, result.Summary.Reporting.Source)
	assert.NotEmpty(t, result.Summary.InputHash)
	assert.NotEmpty(t, p.ID)
}

func TestDistributionAndLogistics(t *testing.T) {
	result, err := newEngine().Calculate(context.Background(), ddpRequest(20))
	require.NoError(t, err)
	a, b := result.Products[0], result.Products[1]

	// 10000 and 2500 of 12500
	assert.True(t, a.DistributionKey.Equal(dec("0.8")))
	assert.True(t, b.DistributionKey.Equal(dec("0.2")))
	assert.True(t, result.Aggregates.Distribution.PurchaseGrandTotal.Equal(dec("12500")))

	// internal totals 11000 + 2750 at 10% markup; 13750 × 0.3% = 41.25, rounded up to 41.3
	assert.True(t, result.Aggregates.Insurance.InternalGrandTotal.Equal(dec("13750")))
	assert.True(t, result.Aggregates.Insurance.Insurance.Equal(dec("41.3")), "insurance %s", result.Aggregates.Insurance.Insurance)

	// (1000 + 41.3) × 0.8 and × 0.2
	assert.True(t, a.Logistics.FirstLeg.Equal(dec("833.04")), "first leg %s", a.Logistics.FirstLeg)
	assert.True(t, b.Logistics.FirstLeg.Equal(dec("208.26")), "first leg %s", b.Logistics.FirstLeg)
	assert.True(t, a.Logistics.SecondLeg.Equal(dec("400")))
	assert.True(t, b.Logistics.SecondLeg.Equal(dec("100")))

	// 5% × (11000 + 833.04) = 591.652
	assert.True(t, a.Duties.Duty.Equal(dec("591.65")), "duty %s", a.Duties.Duty)
	assert.True(t, b.Duties.Duty.Equal(dec("147.91")), "duty %s", b.Duties.Duty)

	// fixed DM fee is split by key
	assert.True(t, a.Sales.DMFee.Equal(dec("200")))
	assert.True(t, b.Sales.DMFee.Equal(dec("50")))
}

func TestDistributionKeysSumToOne(t *testing.T) {
	req := exwRequest()
	req.Products = nil
	for _, price := range []int{1, 7, 13, 333, 1234} {
		req.Products = append(req.Products, types.NewProduct(types.Values{
			types.FieldSKU:          "SKU",
			types.FieldBasePriceVAT: price,
			types.FieldQuantity:     3,
		}))
	}

	result, err := newEngine(WithWorkers(3)).Calculate(context.Background(), req)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range result.Products {
		assert.True(t, p.DistributionKey.IsPositive())
		sum = sum.Add(p.DistributionKey)
	}
	assert.True(t, sum.Equal(types.One), "keys sum to %s", sum)
}

func TestQuoteAmountsAllocateExactly(t *testing.T) {
	req := ddpRequest(45)
	req.Products = nil
	for i := 0; i < 3; i++ {
		req.Products = append(req.Products, types.NewProduct(types.Values{
			types.FieldSKU:          "SKF-6205",
			types.FieldBasePriceVAT: 1200,
			types.FieldQuantity:     10,
		}))
	}

	result, err := newEngine().Calculate(context.Background(), req)
	require.NoError(t, err)
	agg := result.Aggregates
	require.True(t, agg.CreditSales.Interest.IsPositive())

	sum := func(value func(types.PhaseResult) decimal.Decimal) decimal.Decimal {
		total := decimal.Zero
		for _, p := range result.Products {
			total = total.Add(value(p))
		}
		return total
	}

	tests := []struct {
		name  string
		quote decimal.Decimal
		value func(types.PhaseResult) decimal.Decimal
	}{
		{"first leg", dec("1000").Add(agg.Insurance.Insurance), func(p types.PhaseResult) decimal.Decimal { return p.Logistics.FirstLeg }},
		{"second leg", dec("500"), func(p types.PhaseResult) decimal.Decimal { return p.Logistics.SecondLeg }},
		{"insurance", agg.Insurance.Insurance, func(p types.PhaseResult) decimal.Decimal { return p.Logistics.InsuranceShare }},
		{"financing", agg.Financing.TotalInitialFinancing, func(p types.PhaseResult) decimal.Decimal { return p.Financing.Initial }},
		{"credit interest", agg.CreditSales.Interest, func(p types.PhaseResult) decimal.Decimal { return p.Financing.Credit }},
		{"fixed dm fee", dec("250"), func(p types.PhaseResult) decimal.Decimal { return p.Sales.DMFee }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sum(tt.value)
			assert.True(t, got.Equal(tt.quote), "products sum to %s, quote amount %s", got, tt.quote)
		})
	}

	// 250 / 3: the last product absorbs the remainder
	assert.True(t, result.Products[0].Sales.DMFee.Equal(dec("83.33")))
	assert.True(t, result.Products[2].Sales.DMFee.Equal(dec("83.34")))
}

func TestFractionalQuantityFailsValidation(t *testing.T) {
	req := exwRequest()
	req.Products[0].Values[types.FieldQuantity] = "10.9"

	result, err := newEngine().Calculate(context.Background(), req)
	assert.Nil(t, result)
	require.True(t, errors.IsType(err, errors.TypeValidation), "got %v", err)
	e, _ := errors.As(err)
	require.Len(t, e.Violations, 1)
	assert.Equal(t, "quantity", e.Violations[0].Field)
}

func TestCostBreakdownIsConsistent(t *testing.T) {
	result, err := newEngine().Calculate(context.Background(), ddpRequest(40))
	require.NoError(t, err)

	agg := result.Aggregates
	assert.True(t, agg.Financing.TotalInitialFinancing.IsPositive())
	assert.True(t, agg.CreditSales.Receivable.IsPositive(), "50% is paid after delivery")
	assert.True(t, agg.CreditSales.Interest.IsPositive())
	assert.True(t, agg.SupplierPayment.ImportVATEstimate.IsPositive())

	for _, p := range result.Products {
		want := types.Sum(p.Purchase.Total, p.Logistics.Total, p.Duties.Duty, p.Duties.Excise,
			p.Financing.Initial, p.Financing.Credit)
		assert.True(t, p.COGS.Total.Equal(want))
		assert.True(t, p.VAT.NetVAT.Equal(p.VAT.SalesVAT.Sub(p.VAT.DeductibleVAT)))
		assert.True(t, p.Sales.AgentFee.IsPositive(), "RU seller pays the agent fee")
		assert.True(t, p.Transit.Commission.IsZero(), "supply sale has no transit commission")
	}
}

func TestDestinationVATFollowsReferenceDate(t *testing.T) {
	engine := newEngine()

	// 2025-12-01 + 20 days is before the changeover
	before, err := engine.Calculate(context.Background(), ddpRequest(20))
	require.NoError(t, err)
	// 2025-12-01 + 40 days is after it
	after, err := engine.Calculate(context.Background(), ddpRequest(40))
	require.NoError(t, err)

	for _, p := range before.Products {
		assert.True(t, p.Derived.DestinationVAT.Equal(dec("0.20")))
		assert.True(t, p.VAT.SalesVAT.Equal(types.RoundMoney(p.Sales.Total.Mul(dec("0.20")))))
	}
	for _, p := range after.Products {
		assert.True(t, p.Derived.DestinationVAT.Equal(dec("0.22")))
		assert.True(t, p.VAT.SalesVAT.Equal(types.RoundMoney(p.Sales.Total.Mul(dec("0.22")))))
	}
}

func TestTransitCommission(t *testing.T) {
	req := ddpRequest(20)
	req.Quote.Values[types.FieldSaleType] = "transit"

	result, err := newEngine().Calculate(context.Background(), req)
	require.NoError(t, err)
	for _, p := range result.Products {
		want := types.Sum(p.Sales.Profit, p.Sales.DMFee, p.Sales.Forex, p.Sales.AgentFee,
			p.Financing.Initial, p.Financing.Credit)
		assert.True(t, p.Transit.Commission.Equal(want))
		assert.False(t, p.Transit.Commission.IsNegative())
		assert.True(t, p.Transit.Commission.LessThan(p.COGS.Total), "commission never includes COGS")
	}
}

func TestExportSkipsAgentFeeAndImportVAT(t *testing.T) {
	req := ddpRequest(20)
	req.Quote.Values[types.FieldSaleType] = "export"

	result, err := newEngine().Calculate(context.Background(), req)
	require.NoError(t, err)
	for _, p := range result.Products {
		assert.True(t, p.Sales.AgentFee.IsZero())
		assert.True(t, p.VAT.DeductibleVAT.IsZero())
	}
	assert.True(t, result.Aggregates.SupplierPayment.ImportVATEstimate.IsZero())
}

func TestIdempotent(t *testing.T) {
	first, err := newEngine(WithWorkers(1)).Calculate(context.Background(), ddpRequest(40))
	require.NoError(t, err)
	second, err := newEngine(WithWorkers(8)).Calculate(context.Background(), ddpRequest(40))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestFailedProductFailsQuote(t *testing.T) {
	req := ddpRequest(20)
	req.Products[1].Values[types.FieldSupplierCountry] = "Atlantis"

	result, err := newEngine().Calculate(context.Background(), req)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeUnknownDerivedKey))

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Context["product_index"])
	assert.Equal(t, types.PhaseDerived, e.Context["stage"])
}

func TestFailedProductIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	req := ddpRequest(20)
	req.Products[1].Values[types.FieldSupplierCountry] = "Atlantis"

	_, err := New(lookup.Default(), WithLogger(zap.New(core))).Calculate(context.Background(), req)
	require.Error(t, err)

	failed := logs.FilterMessage("product failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, int64(1), fields["product_index"])
	assert.Equal(t, types.PhaseDerived, fields["phase"])
	assert.Equal(t, "SKF-6206", fields["sku"])
}

func TestValidationRunsFirst(t *testing.T) {
	req := exwRequest()
	req.Products[0].Values[types.FieldQuantity] = 0
	delete(req.Quote.Values, types.FieldSellerCompany)

	result, err := newEngine().Calculate(context.Background(), req)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
	e, _ := errors.As(err)
	assert.Len(t, e.Violations, 2)
}

func TestZeroDistributionBaseIsGuarded(t *testing.T) {
	req := exwRequest()
	// 0.001 / 1.20 rounds to 0.00
	req.Products[0].Values[types.FieldBasePriceVAT] = "0.001"

	result, err := newEngine().Calculate(context.Background(), req)
	assert.Nil(t, result)
	assert.True(t, errors.IsType(err, errors.TypeDivisionGuard), "got %v", err)
}

func TestReportingConversion(t *testing.T) {
	req := exwRequest()
	req.Reporting = &types.CurrencyConversion{Currency: "EUR", Rate: dec("0.92"), Source: "ecb"}

	result, err := newEngine().Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Summary.ReportingTotals.SaleNoVAT.Equal(dec("10120")))

	req.Reporting = &types.CurrencyConversion{Currency: "EUR"}
	_, err = newEngine().Calculate(context.Background(), req)
	assert.True(t, errors.IsType(err, errors.TypeRateUnknown))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine().Calculate(ctx, exwRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageNames(t *testing.T) {
	names := StageNames()
	assert.Equal(t, types.PhaseDerived, names[0])
	assert.Equal(t, types.PhaseTransit, names[len(names)-1])
	assert.Len(t, names, 16)
}
