// Package validation checks a quote before any computation begins.
// Structural checks run through go-playground/validator; business rules
// are checked by hand. Every violation is collected, never the first only.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// quoteLevel is a quote-wide violation
const quoteLevel = -1

// Rule names for business rules
const (
	RuleLogisticsRequired = "logistics_required"
	RuleAdvanceTotal      = "advance_total"
	RuleReferenceDate     = "reference_date"
	RuleProductsRequired  = "products_required"
)

type quoteCheck struct {
	SellerCompany     string          `json:"seller_company" validate:"required"`
	Incoterms         string          `json:"offer_incoterms" validate:"required,oneof=DDP DAP CIF FOB FCA EXW"`
	Currency          string          `json:"currency_of_quote" validate:"required,alpha,len=3"`
	DeliveryDays      int             `json:"delivery_time" validate:"gt=0"`
	SaleType          string          `json:"offer_sale_type" validate:"oneof=supply transit export"`
	DMFeeType         string          `json:"dm_fee_type" validate:"oneof=fixed percent"`
	DMFeeValue        decimal.Decimal `json:"dm_fee_value" validate:"dgte=0"`
	InsuranceRate     decimal.Decimal `json:"rate_insurance" validate:"dgte=0"`
	AdvanceFromClient decimal.Decimal `json:"advance_from_client" validate:"dgte=0,dlte=1"`
	AdvanceToSupplier decimal.Decimal `json:"advance_to_supplier" validate:"dgte=0,dlte=1"`
	TimeToAdvance     int             `json:"time_to_advance" validate:"gte=0"`
	TimeOnReceiving   int             `json:"time_to_advance_on_receiving" validate:"gte=0"`
}

type productCheck struct {
	SKU              string          `json:"sku" validate:"required"`
	BasePriceVAT     decimal.Decimal `json:"base_price_vat" validate:"dgt=0"`
	Quantity         int             `json:"quantity" validate:"gt=0"`
	Currency         string          `json:"currency_of_base_price" validate:"required"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate" validate:"dgt=0"`
	SupplierCountry  string          `json:"supplier_country" validate:"required"`
	SupplierDiscount decimal.Decimal `json:"supplier_discount" validate:"dgte=0,dlt=1"`
	ImportTariff     decimal.Decimal `json:"import_tariff" validate:"dgte=0"`
	ExciseTax        decimal.Decimal `json:"excise_tax" validate:"dgte=0"`
	Markup           decimal.Decimal `json:"markup" validate:"dgte=0"`
	WeightKg         decimal.Decimal `json:"weight_in_kg" validate:"dgte=0"`
}

type adminCheck struct {
	ForexRiskRate      decimal.Decimal `json:"rate_forex_risk" validate:"dgte=0,dlt=1"`
	FinCommissionRate  decimal.Decimal `json:"rate_fin_comm" validate:"dgte=0,dlt=1"`
	LoanInterestDaily  decimal.Decimal `json:"rate_loan_interest_daily" validate:"dgte=0,dlt=1"`
	LoanInterestAnnual decimal.Decimal `json:"rate_loan_interest_annual" validate:"dgte=0"`
	PaymentDays        int             `json:"customs_logistics_pmt_due" validate:"gte=0"`
}

// Validator checks quotes. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports json field names and compares decimals numerically
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// decimals reach the d* tags as their exact text
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	for _, b := range decimalBounds {
		if err := v.RegisterValidation(b.tag, compareDecimal(b.accept)); err != nil {
			panic(err)
		}
	}
	return &Validator{validate: v}
}

// decimalBounds are gt/gte/lt/lte for decimal fields, compared with Cmp
var decimalBounds = []struct {
	tag    string
	rule   string
	accept func(cmp int) bool
}{
	{"dgt", "gt", func(c int) bool { return c > 0 }},
	{"dgte", "gte", func(c int) bool { return c >= 0 }},
	{"dlt", "lt", func(c int) bool { return c < 0 }},
	{"dlte", "lte", func(c int) bool { return c <= 0 }},
}

func compareDecimal(accept func(int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return accept(value.Cmp(bound))
	}
}

// rule reports a decimal bound under its numeric tag name
func rule(tag string) string {
	for _, b := range decimalBounds {
		if b.tag == tag {
			return b.rule
		}
	}
	return tag
}

// Validate returns a VALIDATION_ERROR listing every violation, or nil
func (v *Validator) Validate(terms types.QuoteTerms, products []types.ProductInputs, admin types.AdminSettings) error {
	var violations []errors.Violation

	violations = append(violations, v.check(quoteLevel, quoteCheck{
		SellerCompany:     terms.SellerCompany,
		Incoterms:         string(terms.Incoterms),
		Currency:          string(terms.Currency),
		DeliveryDays:      terms.DeliveryDays,
		SaleType:          string(terms.SaleType),
		DMFeeType:         string(terms.DMFeeType),
		DMFeeValue:        terms.DMFeeValue,
		InsuranceRate:     terms.InsuranceRate,
		AdvanceFromClient: terms.AdvanceFromClient,
		AdvanceToSupplier: terms.AdvanceToSupplier,
		TimeToAdvance:     terms.TimeToAdvance,
		TimeOnReceiving:   terms.TimeToAdvanceOnReceiving,
	})...)

	violations = append(violations, v.check(quoteLevel, adminCheck{
		ForexRiskRate:      admin.ForexRiskRate,
		FinCommissionRate:  admin.FinCommissionRate,
		LoanInterestDaily:  admin.LoanInterestDaily,
		LoanInterestAnnual: admin.LoanInterestAnnual,
		PaymentDays:        admin.CustomsLogisticsPaymentDays,
	})...)

	violations = append(violations, BusinessRules(terms, len(products))...)

	for _, p := range products {
		violations = append(violations, v.check(p.Index, productCheck{
			SKU:              p.SKU,
			BasePriceVAT:     p.BasePriceVAT,
			Quantity:         p.Quantity,
			Currency:         string(p.Currency),
			ExchangeRate:     p.ExchangeRate,
			SupplierCountry:  p.SupplierCountry,
			SupplierDiscount: p.SupplierDiscount,
			ImportTariff:     p.ImportTariff,
			ExciseTax:        p.ExciseTax,
			Markup:           p.Markup,
			WeightKg:         p.WeightKg,
		})...)
	}

	if len(violations) > 0 {
		return errors.Validation(violations)
	}
	return nil
}

// BusinessRules checks the cross-field rules of a quote
func BusinessRules(terms types.QuoteTerms, productCount int) []errors.Violation {
	var violations []errors.Violation

	if productCount == 0 {
		violations = append(violations, errors.Violation{
			ProductIndex: quoteLevel,
			Field:        "products",
			Rule:         RuleProductsRequired,
			Message:      "a quote needs at least one product",
		})
	}

	if terms.Incoterms.RequiresLogistics() && !terms.Logistics.HasTransport() {
		violations = append(violations, errors.Violation{
			ProductIndex: quoteLevel,
			Field:        "logistics",
			Rule:         RuleLogisticsRequired,
			Message:      fmt.Sprintf("%s delivery needs at least one positive logistics cost", terms.Incoterms),
		})
	}

	if total := terms.TotalAdvance(); total.GreaterThan(types.One) {
		violations = append(violations, errors.Violation{
			ProductIndex: quoteLevel,
			Field:        "advance_from_client",
			Rule:         RuleAdvanceTotal,
			Message:      fmt.Sprintf("advance payments add up to %s%%, more than 100%%", total.Mul(types.Hundred).String()),
		})
	}

	if terms.QuoteDate.IsZero() && terms.DeliveryDate.IsZero() {
		violations = append(violations, errors.Violation{
			ProductIndex: quoteLevel,
			Field:        "quote_date",
			Rule:         RuleReferenceDate,
			Message:      "quote_date or delivery_date is required to date destination VAT",
		})
	}

	return violations
}

func (v *Validator) check(index int, s interface{}) []errors.Violation {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []errors.Violation{{ProductIndex: index, Field: "-", Rule: "invalid", Message: err.Error()}}
	}
	out := make([]errors.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.Violation{
			ProductIndex: index,
			Field:        fe.Field(),
			Rule:         rule(fe.Tag()),
			Message:      message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch rule(fe.Tag()) {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "alpha":
		return "must contain letters only"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
