package pipeline

import (
	"github.com/shopspring/decimal"

	"trade-quote/core/financing"
	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// distributionBase sums purchase totals and assigns each product its key.
// The last key is 1 minus the others so the keys add up to exactly 1.
func distributionBase(r *run) error {
	base := r.sumProducts(func(res types.PhaseResult) decimal.Decimal { return res.Purchase.Total })
	if !base.IsPositive() {
		return errors.DivisionGuard("distribution base (sum of purchase totals)").
			WithContext("purchase_grand_total", base.String())
	}

	keys := make([]decimal.Decimal, len(r.results))
	assigned := decimal.Zero
	last := len(r.results) - 1
	for i := range r.results {
		if i == last {
			keys[i] = types.One.Sub(assigned)
		} else {
			keys[i] = r.results[i].Purchase.Total.Div(base)
			assigned = assigned.Add(keys[i])
		}
		r.results[i].DistributionKey = keys[i]
	}
	r.keys = keys

	r.agg.Distribution = types.DistributionBase{PurchaseGrandTotal: base}
	return nil
}

// insurancePlaces is the precision insurance is rounded up to
const insurancePlaces int32 = 1

// insuranceBase prices insurance on the internal grand total
func insuranceBase(r *run) error {
	grand := r.sumProducts(func(res types.PhaseResult) decimal.Decimal { return res.Internal.Total })
	r.agg.Insurance = types.InsuranceBase{
		InternalGrandTotal: grand,
		Insurance:          grand.Mul(r.terms.InsuranceRate).RoundCeil(insurancePlaces),
	}
	return nil
}

// supplierPayment computes the amount owed to the supplier and the total before forwarding
func supplierPayment(r *run) error {
	gross := r.sumProducts(func(res types.PhaseResult) decimal.Decimal { return res.Duties.SupplierGross })
	duty := r.sumProducts(func(res types.PhaseResult) decimal.Decimal { return res.Duties.Duty })
	excise := r.sumProducts(func(res types.PhaseResult) decimal.Decimal { return res.Duties.Excise })

	importVAT := decimal.Zero
	if r.terms.ImportVATApplies() {
		importVAT = r.sumProducts(func(res types.PhaseResult) decimal.Decimal {
			return types.RoundMoney(importVATBase(res).Mul(res.Derived.DestinationVAT))
		})
	}

	advance := types.RoundMoney(gross.Mul(r.terms.AdvanceToSupplier))
	commission := types.RoundMoney(advance.Mul(r.admin.FinCommissionRate))
	payment := gross.Add(commission)

	r.agg.SupplierPayment = types.SupplierPaymentPhase{
		SupplierGrossTotal:  gross,
		SupplierAdvance:     advance,
		FinancingCommission: commission,
		SupplierPayment:     payment,
		DutyTotal:           duty,
		ExciseTotal:         excise,
		ImportVATEstimate:   importVAT,
		BeforeForwarding:    types.Sum(payment, duty, excise, importVAT),
	}
	return nil
}

// revenueEstimation estimates quote revenue before financing
func revenueEstimation(r *run) error {
	base := decimal.Zero
	for i, res := range r.results {
		base = base.Add(types.RoundMoney(res.Internal.Total.Mul(types.One.Add(r.inputs[i].Markup))))
	}

	forex := types.RoundMoney(base.Mul(r.admin.ForexRiskRate))
	dm := types.RoundMoney(r.terms.DMFeeValue)
	if r.terms.DMFeeType == types.DMFeePercent {
		dm = types.RoundMoney(base.Mul(r.terms.DMFeeValue))
	}

	r.agg.Revenue = types.RevenuePhase{
		BaseRevenue:     base,
		ForexReserve:    forex,
		DMFee:           dm,
		RevenueEstimate: types.Sum(base, forex, dm),
	}
	return nil
}

// financingCosts finances the supplier advance over two stages and the
// operational costs over the remaining customs and logistics period
func financingCosts(r *run) error {
	sp := r.agg.SupplierPayment
	clientAdvance := types.RoundMoney(r.agg.Revenue.RevenueEstimate.Mul(r.terms.AdvanceFromClient))

	principal := sp.SupplierAdvance.Add(sp.FinancingCommission)
	repayment := decimal.Min(clientAdvance, principal)
	supplier := financing.TwoStage(financing.Loan{
		Principal:    principal,
		Repayment:    repayment,
		RepaymentDay: r.terms.TimeToAdvance,
		EndDay:       r.terms.DeliveryDays,
		Rate:         r.dailyRate,
	})

	logistics := r.sumProducts(func(res types.PhaseResult) decimal.Decimal { return res.Logistics.Total })
	leftover := clientAdvance.Sub(repayment)
	operational := types.NonNegative(sp.BeforeForwarding.Sub(sp.SupplierPayment).Add(logistics).Sub(leftover))

	days := r.terms.DeliveryDays - r.admin.CustomsLogisticsPaymentDays
	if days < 0 {
		days = 0
	}
	operationalInterest := financing.FutureValueInterest(operational, r.dailyRate, days)

	r.agg.Financing = types.FinancingPhase{
		ClientAdvance:         clientAdvance,
		SupplierPrincipal:     principal,
		SupplierResidual:      supplier.Residual,
		SupplierInterest:      supplier.Total,
		OperationalPrincipal:  operational,
		OperationalInterest:   operationalInterest,
		TotalInitialFinancing: supplier.Total.Add(operationalInterest),
	}
	return nil
}

// creditSalesInterest charges interest on the part of revenue the client pays after delivery
func creditSalesInterest(r *run) error {
	if !r.terms.AdvanceFromClient.LessThan(types.One) {
		r.agg.CreditSales = types.CreditSalesPhase{Receivable: decimal.Zero, Interest: decimal.Zero}
		return nil
	}
	outstanding := types.NonNegative(types.One.Sub(r.terms.TotalAdvance()))
	receivable := types.RoundMoney(r.agg.Revenue.RevenueEstimate.Mul(outstanding))
	r.agg.CreditSales = types.CreditSalesPhase{
		Receivable: receivable,
		Interest:   financing.FutureValueInterest(receivable, r.dailyRate, r.terms.TimeToAdvanceOnReceiving),
	}
	return nil
}
