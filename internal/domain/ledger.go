package domain

import "github.com/shopspring/decimal"

// LedgerResult результат успешного изменения баланса.
type LedgerResult struct {
	Transaction *Transaction
	// Balance баланс после операции, подтвержденный БД.
	Balance decimal.Decimal
	// Replayed операция была выполнена ранее с тем же ключом идемпотентности.
	Replayed bool
}

// AttemptResolution итог сверки попытки по ключу идемпотентности: AttemptCommitted или AttemptNotApplied.
type AttemptResolution struct {
	State       AttemptState
	Transaction *Transaction
}

type AuditReport struct {
	MemberID       string
	Balance        decimal.Decimal
	TransactionSum decimal.Decimal
	Consistent     bool
}
