// Package types - Per-product phase results and quote-level aggregates
package types

import "github.com/shopspring/decimal"

// Phase names, in pipeline order
const (
	PhaseDerived         = "derived_lookup"
	PhasePurchase        = "purchase_price"
	PhaseDistribution    = "distribution_base"
	PhaseInternal        = "internal_pricing"
	PhaseInsurance       = "insurance"
	PhaseLogistics       = "logistics_distribution"
	PhaseDuties          = "duties_vat_restoration"
	PhaseSupplierPayment = "supplier_payment"
	PhaseRevenue         = "revenue_estimation"
	PhaseFinancing       = "financing_costs"
	PhaseCreditSales     = "credit_sales_interest"
	PhaseDistributeFin   = "distribute_financing"
	PhaseCOGS            = "final_cogs"
	PhaseSales           = "sales_price"
	PhaseVAT             = "vat"
	PhaseTransit         = "transit_commission"
)

// PurchasePhase is stage 1
type PurchasePhase struct {
	PriceNoVAT      decimal.Decimal `json:"price_no_vat"`
	PriceDiscounted decimal.Decimal `json:"price_after_discount"`
	UnitPrice       decimal.Decimal `json:"unit_price_quote_currency"`
	Total           decimal.Decimal `json:"purchase_total"`
}

// InternalPhase is stage 2.5
type InternalPhase struct {
	UnitPrice decimal.Decimal `json:"internal_unit_price"`
	Total     decimal.Decimal `json:"internal_total"`
}

// LogisticsPhase is stage 3
type LogisticsPhase struct {
	FirstLeg       decimal.Decimal `json:"logistics_first_leg"`
	SecondLeg      decimal.Decimal `json:"logistics_second_leg"`
	InsuranceShare decimal.Decimal `json:"insurance_share"`
	Total          decimal.Decimal `json:"logistics_total"`
}

// DutiesPhase is stage 4
type DutiesPhase struct {
	Duty          decimal.Decimal `json:"customs_duty"`
	Excise        decimal.Decimal `json:"excise"`
	SupplierGross decimal.Decimal `json:"supplier_gross"`
}

// FinancingShare is stage 9
type FinancingShare struct {
	Initial decimal.Decimal `json:"financing_share"`
	Credit  decimal.Decimal `json:"credit_interest_share"`
}

// COGSPhase is stage 10
type COGSPhase struct {
	Total decimal.Decimal `json:"cogs_total"`
	Unit  decimal.Decimal `json:"cogs_unit"`
}

// SalesPhase is stage 11
type SalesPhase struct {
	Profit    decimal.Decimal `json:"profit"`
	DMFee     decimal.Decimal `json:"dm_fee"`
	Forex     decimal.Decimal `json:"forex_reserve"`
	AgentFee  decimal.Decimal `json:"financial_agent_fee"`
	UnitPrice decimal.Decimal `json:"sale_unit_no_vat"`
	Total     decimal.Decimal `json:"sale_total_no_vat"`
}

// VATPhase is stage 12
type VATPhase struct {
	SalesVAT      decimal.Decimal `json:"sales_vat"`
	DeductibleVAT decimal.Decimal `json:"deductible_import_vat"`
	NetVAT        decimal.Decimal `json:"net_vat_payable"`
	UnitWithVAT   decimal.Decimal `json:"sale_unit_with_vat"`
	TotalWithVAT  decimal.Decimal `json:"sale_total_with_vat"`
}

// TransitPhase is stage 13
type TransitPhase struct {
	Commission decimal.Decimal `json:"transit_commission"`
}

// PhaseResult is the full per-product record. Each stage writes exactly one
// of the embedded stage records, in pipeline order, and never revisits it.
type PhaseResult struct {
	ID              string           `json:"id"`
	Index           int              `json:"index"`
	SKU             string           `json:"sku"`
	Quantity        int              `json:"quantity"`
	Derived         DerivedVariables `json:"derived"`
	Purchase        PurchasePhase    `json:"purchase"`
	DistributionKey decimal.Decimal  `json:"distribution_key"`
	Internal        InternalPhase    `json:"internal"`
	Logistics       LogisticsPhase   `json:"logistics"`
	Duties          DutiesPhase      `json:"duties"`
	Financing       FinancingShare   `json:"financing"`
	COGS            COGSPhase        `json:"cogs"`
	Sales           SalesPhase       `json:"sales"`
	VAT             VATPhase         `json:"vat"`
	Transit         TransitPhase     `json:"transit"`
}

// DistributionBase is stage 2
type DistributionBase struct {
	PurchaseGrandTotal decimal.Decimal `json:"purchase_grand_total"`
}

// InsuranceBase is the quote-level barrier after stage 2.5
type InsuranceBase struct {
	InternalGrandTotal decimal.Decimal `json:"internal_grand_total"`
	Insurance          decimal.Decimal `json:"insurance_total"`
}

// SupplierPaymentPhase is stage 5
type SupplierPaymentPhase struct {
	SupplierGrossTotal  decimal.Decimal `json:"supplier_gross_total"`
	SupplierAdvance     decimal.Decimal `json:"supplier_advance"`
	FinancingCommission decimal.Decimal `json:"financing_commission"`
	SupplierPayment     decimal.Decimal `json:"supplier_payment"`
	DutyTotal           decimal.Decimal `json:"duty_total"`
	ExciseTotal         decimal.Decimal `json:"excise_total"`
	ImportVATEstimate   decimal.Decimal `json:"import_vat_estimate"`
	BeforeForwarding    decimal.Decimal `json:"total_before_forwarding"`
}

// RevenuePhase is stage 6
type RevenuePhase struct {
	BaseRevenue     decimal.Decimal `json:"base_revenue"`
	ForexReserve    decimal.Decimal `json:"forex_reserve"`
	DMFee           decimal.Decimal `json:"dm_fee"`
	RevenueEstimate decimal.Decimal `json:"revenue_estimate"`
}

// FinancingPhase is stage 7
type FinancingPhase struct {
	ClientAdvance         decimal.Decimal `json:"client_advance"`
	SupplierPrincipal     decimal.Decimal `json:"supplier_principal"`
	SupplierResidual      decimal.Decimal `json:"supplier_residual"`
	SupplierInterest      decimal.Decimal `json:"supplier_interest"`
	OperationalPrincipal  decimal.Decimal `json:"operational_principal"`
	OperationalInterest   decimal.Decimal `json:"operational_interest"`
	TotalInitialFinancing decimal.Decimal `json:"total_initial_financing"`
}

// CreditSalesPhase is stage 8
type CreditSalesPhase struct {
	Receivable decimal.Decimal `json:"receivable"`
	Interest   decimal.Decimal `json:"credit_sales_interest"`
}

// QuoteAggregates are the quote-level outputs of the barrier stages
type QuoteAggregates struct {
	Distribution    DistributionBase     `json:"distribution"`
	Insurance       InsuranceBase        `json:"insurance"`
	SupplierPayment SupplierPaymentPhase `json:"supplier_payment"`
	Revenue         RevenuePhase         `json:"revenue"`
	Financing       FinancingPhase       `json:"financing"`
	CreditSales     CreditSalesPhase     `json:"credit_sales"`
}
