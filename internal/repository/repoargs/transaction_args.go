package repoargs

import (
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateTransaction struct {
	MemberID         string
	StoreID          string
	Type             domain.TransactionType
	Amount           decimal.Decimal
	ResultingBalance decimal.Decimal
	OrderID          *string
	IdempotencyKey   *string
	CreatedAt        time.Time
}

type TransactionFilter struct {
	MemberID string
	StoreID  string
	From     *time.Time
	To       *time.Time
	Limit    uint
}
