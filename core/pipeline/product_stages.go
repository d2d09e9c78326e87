package pipeline

import (
	"strconv"

	"github.com/shopspring/decimal"

	"trade-quote/core/determinism"
	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

var productIDs = determinism.NewIDGenerator("product")

// deriveVariables looks up region, origin VAT, internal markup and destination VAT
func deriveVariables(r *run, i int) error {
	in := r.inputs[i]
	derived, err := r.tables.Derive(r.terms.SellerCompany, in.SupplierCountry, r.terms.ReferenceDate())
	if err != nil {
		return err
	}
	r.results[i] = types.PhaseResult{
		ID:       string(productIDs.Generate(r.quoteID, strconv.Itoa(in.Index), in.SKU)),
		Index:    in.Index,
		SKU:      in.SKU,
		Quantity: in.Quantity,
		Derived:  derived,
	}
	return nil
}

// purchasePrice removes origin VAT, applies the discount and converts to quote currency
func purchasePrice(r *run, i int) error {
	in := r.inputs[i]
	d := r.results[i].Derived

	if in.Quantity <= 0 {
		return errors.DivisionGuard("quantity").WithContext("field", string(types.FieldQuantity))
	}
	if !in.ExchangeRate.IsPositive() {
		return errors.DivisionGuard("exchange rate").WithContext("field", string(types.FieldExchangeRate))
	}

	noVAT := in.BasePriceVAT
	if !d.PriceExcludesVAT {
		noVAT = in.BasePriceVAT.Div(types.One.Add(d.OriginVAT))
	}
	noVAT = types.RoundMoney(noVAT)
	discounted := types.RoundMoney(noVAT.Mul(types.One.Sub(in.SupplierDiscount)))
	unit := types.RoundMoney(discounted.Div(in.ExchangeRate))

	r.results[i].Purchase = types.PurchasePhase{
		PriceNoVAT:      noVAT,
		PriceDiscounted: discounted,
		UnitPrice:       unit,
		Total:           types.RoundMoney(unit.Mul(decimal.NewFromInt(int64(in.Quantity)))),
	}
	return nil
}

// internalPricing applies the internal transfer markup to the purchase total
func internalPricing(r *run, i int) error {
	res := r.results[i]
	total := types.RoundMoney(res.Purchase.Total.Mul(types.One.Add(res.Derived.InternalMarkup)))
	unit, err := perUnit(total, res.Quantity)
	if err != nil {
		return err
	}
	r.results[i].Internal = types.InternalPhase{UnitPrice: unit, Total: total}
	return nil
}

// logisticsDistribution apportions both logistics legs and insurance by distribution key
func logisticsDistribution(r *run, i int) error {
	logistics := r.terms.Logistics
	insurance := r.agg.Insurance.Insurance

	first := r.share(logistics.FirstLeg().Add(insurance), i)
	second := r.share(logistics.SecondLeg(), i)
	r.results[i].Logistics = types.LogisticsPhase{
		FirstLeg:       first,
		SecondLeg:      second,
		InsuranceShare: r.share(insurance, i),
		Total:          first.Add(second),
	}
	return nil
}

// dutiesAndVATRestoration computes duty, excise and the VAT-inclusive supplier amount
func dutiesAndVATRestoration(r *run, i int) error {
	in := r.inputs[i]
	res := r.results[i]

	duty := decimal.Zero
	if r.terms.Incoterms.SellerPaysDuty() {
		duty = types.RoundMoney(in.ImportTariff.Mul(res.Internal.Total.Add(res.Logistics.FirstLeg)))
	}

	var excise decimal.Decimal
	switch r.terms.ExciseBasis {
	case types.ExcisePercent:
		excise = types.RoundMoney(in.ExciseTax.Mul(res.Internal.Total))
	default:
		excise = types.RoundMoney(in.ExciseTax.Mul(in.WeightKg).Mul(decimal.NewFromInt(int64(in.Quantity))))
	}

	gross := res.Purchase.Total
	if !res.Derived.PriceExcludesVAT {
		gross = types.RoundMoney(gross.Mul(types.One.Add(res.Derived.OriginVAT)))
	}

	r.results[i].Duties = types.DutiesPhase{
		Duty:          duty,
		Excise:        excise,
		SupplierGross: gross,
	}
	return nil
}

// distributeFinancing apportions quote-level financing and credit interest
func distributeFinancing(r *run, i int) error {
	r.results[i].Financing = types.FinancingShare{
		Initial: r.share(r.agg.Financing.TotalInitialFinancing, i),
		Credit:  r.share(r.agg.CreditSales.Interest, i),
	}
	return nil
}

// finalCOGS sums every cost line of a product
func finalCOGS(r *run, i int) error {
	res := r.results[i]
	total := types.Sum(
		res.Purchase.Total,
		res.Logistics.Total,
		res.Duties.Duty,
		res.Duties.Excise,
		res.Financing.Initial,
		res.Financing.Credit,
	)
	unit, err := perUnit(total, res.Quantity)
	if err != nil {
		return err
	}
	r.results[i].COGS = types.COGSPhase{Total: total, Unit: unit}
	return nil
}

// agentFeeApplies is false for TR sellers and for exports
func agentFeeApplies(region types.Region, sale types.SaleType) bool {
	return region != types.RegionTR && sale != types.SaleExport
}

// salesPrice stacks markup, decision-maker fee, forex reserve and agent fee on COGS
func salesPrice(r *run, i int) error {
	in := r.inputs[i]
	res := r.results[i]
	cogs := res.COGS.Total

	profit := types.RoundMoney(cogs.Mul(in.Markup))

	var dm decimal.Decimal
	if r.terms.DMFeeType == types.DMFeePercent {
		dm = types.RoundMoney(cogs.Add(profit).Mul(r.terms.DMFeeValue))
	} else {
		dm = r.share(r.terms.DMFeeValue, i)
	}

	forex := types.RoundMoney(types.Sum(cogs, profit, dm).Mul(r.admin.ForexRiskRate))

	agent := decimal.Zero
	if agentFeeApplies(res.Derived.SellerRegion, r.terms.SaleType) {
		agent = types.RoundMoney(types.Sum(cogs, profit, dm, forex).Mul(r.admin.FinCommissionRate))
	}

	total := types.Sum(cogs, profit, dm, forex, agent)
	unit, err := perUnit(total, res.Quantity)
	if err != nil {
		return err
	}

	r.results[i].Sales = types.SalesPhase{
		Profit:    profit,
		DMFee:     dm,
		Forex:     forex,
		AgentFee:  agent,
		UnitPrice: unit,
		Total:     total,
	}
	return nil
}

// importVATBase is the amount import VAT is charged on
func importVATBase(res types.PhaseResult) decimal.Decimal {
	return types.Sum(res.Internal.Total, res.Duties.Duty, res.Duties.Excise, res.Logistics.FirstLeg)
}

// vat computes sales VAT, deductible import VAT and the VAT-inclusive price
func vat(r *run, i int) error {
	res := r.results[i]
	rate := res.Derived.DestinationVAT

	sales := decimal.Zero
	if r.terms.Incoterms.DeliversIntoDestination() {
		sales = types.RoundMoney(res.Sales.Total.Mul(rate))
	}
	deductible := decimal.Zero
	if r.terms.ImportVATApplies() {
		deductible = types.RoundMoney(importVATBase(res).Mul(rate))
	}

	totalWithVAT := res.Sales.Total.Add(sales)
	unit, err := perUnit(totalWithVAT, res.Quantity)
	if err != nil {
		return err
	}

	r.results[i].VAT = types.VATPhase{
		SalesVAT:      sales,
		DeductibleVAT: deductible,
		NetVAT:        sales.Sub(deductible),
		UnitWithVAT:   unit,
		TotalWithVAT:  totalWithVAT,
	}
	return nil
}

// transitCommission is the fee, markup and financing income of a transit sale; COGS is excluded
func transitCommission(r *run, i int) error {
	if r.terms.SaleType != types.SaleTransit {
		r.results[i].Transit = types.TransitPhase{Commission: decimal.Zero}
		return nil
	}
	res := r.results[i]
	r.results[i].Transit = types.TransitPhase{
		Commission: types.Sum(
			res.Sales.Profit,
			res.Sales.DMFee,
			res.Sales.Forex,
			res.Sales.AgentFee,
			res.Financing.Initial,
			res.Financing.Credit,
		),
	}
	return nil
}
