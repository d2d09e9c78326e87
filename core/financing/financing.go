// Package financing computes interest on trade financing.
//
// Two conventions are offered. FutureValueInterest compounds a single
// principal daily over a period. TwoStage borrows a principal on day 0,
// applies a partial repayment on a given day, and compounds the residual
// over the rest of the period; each sub-period compounds separately.
package financing

import (
	"github.com/shopspring/decimal"

	"trade-quote/core/types"
)

// FutureValueInterest returns principal × ((1 + rate)^days − 1) at money precision.
// Non-positive principal or days yield zero.
func FutureValueInterest(principal, dailyRate decimal.Decimal, days int) decimal.Decimal {
	if !principal.IsPositive() || days <= 0 || dailyRate.IsZero() {
		return decimal.Zero
	}
	growth := types.One.Add(dailyRate).Pow(decimal.NewFromInt(int64(days)))
	return types.RoundMoney(principal.Mul(growth.Sub(types.One)))
}

// Loan describes a principal partially repaid partway through its term
type Loan struct {
	// Principal is borrowed on day 0
	Principal decimal.Decimal

	// Repayment is applied on RepaymentDay. It may reduce the principal, never increase it.
	Repayment decimal.Decimal

	// RepaymentDay is the day the repayment arrives
	RepaymentDay int

	// EndDay is the day the residual is settled
	EndDay int

	// Rate is the daily interest rate
	Rate decimal.Decimal
}

// TwoStageInterest is the breakdown of a two-stage calculation
type TwoStageInterest struct {
	StageOne decimal.Decimal `json:"stage_one_interest"`
	Residual decimal.Decimal `json:"residual_principal"`
	StageTwo decimal.Decimal `json:"stage_two_interest"`
	Total    decimal.Decimal `json:"total_interest"`
}

// TwoStage computes interest on the full principal up to the repayment day,
// then on the residual principal up to the end day. Stage two is skipped
// when the repayment covers the principal.
func TwoStage(loan Loan) TwoStageInterest {
	repaymentDay := loan.RepaymentDay
	if repaymentDay < 0 {
		repaymentDay = 0
	}
	if repaymentDay > loan.EndDay {
		repaymentDay = loan.EndDay
	}

	result := TwoStageInterest{
		StageOne: FutureValueInterest(loan.Principal, loan.Rate, repaymentDay),
		Residual: types.NonNegative(loan.Principal.Sub(types.NonNegative(loan.Repayment))),
		StageTwo: decimal.Zero,
	}
	if result.Residual.IsPositive() {
		result.StageTwo = FutureValueInterest(result.Residual, loan.Rate, loan.EndDay-repaymentDay)
	}
	result.Total = result.StageOne.Add(result.StageTwo)
	return result
}
