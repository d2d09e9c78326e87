package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"trade-quote/core/pipeline"
	"trade-quote/core/types"
	"trade-quote/core/ui"
)

// CLIFormatter renders tables for a terminal
type CLIFormatter struct{}

// Format returns the format type
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

func money(d decimal.Decimal) string {
	return d.StringFixed(types.MoneyPlaces)
}

func percent(d decimal.Decimal) string {
	return d.Mul(types.Hundred).StringFixed(2) + "%"
}

// Render prints the product table, optional stage detail, quote aggregates and summary
func (f *CLIFormatter) Render(w io.Writer, result *pipeline.Result, opts Options) error {
	out := ui.NewWriter(w, opts.NoColor)
	currency := result.Summary.QuoteCurrency.String()

	out.Header("Products (" + currency + ")")
	table := out.NewTable("#", "SKU", "Qty", "Purchase", "COGS", "Sale excl. VAT", "VAT", "Sale incl. VAT").
		AlignRight(0, 2, 3, 4, 5, 6, 7)
	for _, p := range result.Products {
		table.AddRow(
			strconv.Itoa(p.Index+1),
			p.SKU,
			strconv.Itoa(p.Quantity),
			money(p.Purchase.Total),
			money(p.COGS.Total),
			money(p.Sales.Total),
			money(p.VAT.SalesVAT),
			money(p.VAT.TotalWithVAT),
		)
	}
	table.Render()

	if opts.ShowPhases {
		for _, p := range result.Products {
			renderPhases(out, p)
		}
	}

	renderAggregates(out, result.Aggregates)

	s := result.Summary
	box := out.NewQuoteSummary()
	box.QuoteID = s.QuoteID
	box.Currency = currency
	box.SaleNoVAT = money(s.Totals.SaleNoVAT)
	box.SaleWithVAT = money(s.Totals.SaleWithVAT)
	box.Profit = money(s.Totals.Profit)
	box.Margin = percent(s.Margin)
	box.Products = s.ProductCount
	box.Reporting = s.Reporting.Currency.String()
	box.ReportingSum = fmt.Sprintf("%s %s (rate %s, %s)", money(s.ReportingTotals.SaleWithVAT), box.Reporting, s.Reporting.Rate, s.Reporting.Source)
	box.Render()
	return nil
}

func renderPhases(out *ui.Writer, p types.PhaseResult) {
	out.Header(fmt.Sprintf("Product %d: %s", p.Index+1, p.SKU))
	d := p.Derived
	out.Info("region %s, origin VAT %s, internal markup %s, destination VAT %s",
		d.SellerRegion, percent(d.OriginVAT), percent(d.InternalMarkup), percent(d.DestinationVAT))

	table := out.NewTable("Stage", "Line", "Amount").AlignRight(2)
	rows := []struct {
		stage, line string
		value       decimal.Decimal
	}{
		{types.PhasePurchase, "price excl. VAT", p.Purchase.PriceNoVAT},
		{types.PhasePurchase, "after discount", p.Purchase.PriceDiscounted},
		{types.PhasePurchase, "unit price", p.Purchase.UnitPrice},
		{types.PhasePurchase, "total", p.Purchase.Total},
		{types.PhaseInternal, "internal total", p.Internal.Total},
		{types.PhaseLogistics, "first leg", p.Logistics.FirstLeg},
		{types.PhaseLogistics, "second leg", p.Logistics.SecondLeg},
		{types.PhaseLogistics, "insurance share", p.Logistics.InsuranceShare},
		{types.PhaseDuties, "customs duty", p.Duties.Duty},
		{types.PhaseDuties, "excise", p.Duties.Excise},
		{types.PhaseDuties, "supplier gross", p.Duties.SupplierGross},
		{types.PhaseDistributeFin, "financing", p.Financing.Initial},
		{types.PhaseDistributeFin, "credit interest", p.Financing.Credit},
		{types.PhaseCOGS, "COGS", p.COGS.Total},
		{types.PhaseSales, "profit", p.Sales.Profit},
		{types.PhaseSales, "DM fee", p.Sales.DMFee},
		{types.PhaseSales, "forex reserve", p.Sales.Forex},
		{types.PhaseSales, "agent fee", p.Sales.AgentFee},
		{types.PhaseSales, "sale excl. VAT", p.Sales.Total},
		{types.PhaseVAT, "sales VAT", p.VAT.SalesVAT},
		{types.PhaseVAT, "deductible import VAT", p.VAT.DeductibleVAT},
		{types.PhaseVAT, "net VAT", p.VAT.NetVAT},
		{types.PhaseVAT, "sale incl. VAT", p.VAT.TotalWithVAT},
		{types.PhaseTransit, "transit commission", p.Transit.Commission},
	}
	for _, r := range rows {
		table.AddRow(r.stage, r.line, money(r.value))
	}
	table.AddRow(types.PhaseDistribution, "distribution key", p.DistributionKey.StringFixed(6))
	table.Render()
}

func renderAggregates(out *ui.Writer, a types.QuoteAggregates) {
	out.Header("Quote aggregates")
	table := out.NewTable("Stage", "Line", "Amount").AlignRight(2)
	table.AddRow(types.PhaseDistribution, "purchase grand total", money(a.Distribution.PurchaseGrandTotal))
	table.AddRow(types.PhaseInsurance, "insurance", money(a.Insurance.Insurance))
	table.AddRow(types.PhaseSupplierPayment, "supplier payment", money(a.SupplierPayment.SupplierPayment))
	table.AddRow(types.PhaseSupplierPayment, "total before forwarding", money(a.SupplierPayment.BeforeForwarding))
	table.AddRow(types.PhaseRevenue, "revenue estimate", money(a.Revenue.RevenueEstimate))
	table.AddRow(types.PhaseFinancing, "supplier interest", money(a.Financing.SupplierInterest))
	table.AddRow(types.PhaseFinancing, "operational interest", money(a.Financing.OperationalInterest))
	table.AddRow(types.PhaseCreditSales, "credit sales interest", money(a.CreditSales.Interest))
	table.Render()
}
