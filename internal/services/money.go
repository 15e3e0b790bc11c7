package services

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/budget-be/internal/models"
)

// amountPlaces is the fixed number of fractional digits of every amount.
const amountPlaces = 2

// maxIntegerDigits is the integer width of a NUMERIC(14,2) column.
const maxIntegerDigits = 12

// amountPattern accepts plain digits with an optional dot or comma fraction.
// Exponent notation is rejected before it reaches the decimal parser.
var amountPattern = regexp.MustCompile(`^([0-9]+)(?:[.,]([0-9]+))?$`)

// ParseAmount parses a non-negative decimal with at most two fractional
// digits. Both dot and comma are accepted as the decimal separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, invalid("Amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, invalid("Amount must be zero or positive")
	}
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Decimal{}, invalid("Amount must be a valid number")
	}
	whole := strings.TrimLeft(m[1], "0")
	fraction := strings.TrimRight(m[2], "0")
	if len(fraction) > amountPlaces {
		return decimal.Decimal{}, invalid("Amount cannot have more than 2 decimal places")
	}
	if len(whole) > maxIntegerDigits {
		return decimal.Decimal{}, invalid("Amount is too large")
	}
	if whole == "" {
		whole = "0"
	}
	text := whole
	if fraction != "" {
		text += "." + fraction
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, invalid("Amount must be a valid number")
	}
	return d.Round(amountPlaces), nil
}

// Totals sums income and expense amounts separately.
func Totals(txs []models.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case models.TransactionIncome:
			income = income.Add(t.Amount)
		case models.TransactionExpense:
			expense = expense.Add(t.Amount)
		}
	}
	return income, expense
}

// Balance is the sum of incomes minus the sum of expenses.
func Balance(txs []models.Transaction) decimal.Decimal {
	income, expense := Totals(txs)
	return income.Sub(expense)
}
