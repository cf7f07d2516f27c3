package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// CurrencyScale число знаков после запятой в минимальной единице валюты.
	CurrencyScale int32 = 2
)

// MaxAmount верхняя граница одной операции, соответствует NUMERIC(14,2).
var MaxAmount = decimal.New(1, 12) //nolint:gochecknoglobals

// ValidateAmount проверяет сумму операции: строго положительная, не точнее CurrencyScale и не больше MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(CurrencyScale)) {
		return fmt.Errorf("%w: %s exceeds %d decimal places", ErrInvalidAmount, amount.String(), CurrencyScale)
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("%w: %s is too large", ErrInvalidAmount, amount.String())
	}
	return nil
}

// SignedDelta возвращает изменение баланса для типа операции. Знак задается только типом.
func SignedDelta(t TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case TransactionDeposit:
		return amount, nil
	case TransactionConsumption:
		return amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: `%s`", ErrInvalidTransaction, t)
	}
}
