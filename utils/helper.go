package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Round2 is the single shared monetary rounding used by every derived
// amount. Re-implementing rounding per call site drifts; don't.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round1 rounds percentage values (trends) to one decimal place.
func Round1(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}

// Percentage applies pct (0-100) to an amount: amount * pct / 100.
func Percentage(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}
