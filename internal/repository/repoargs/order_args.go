package repoargs

import (
	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrderItem struct {
	MenuItemID string
	Quantity   int
	UnitPrice  decimal.Decimal
}

type CreateOrder struct {
	StoreID        string
	MemberID       *string
	TotalAmount    decimal.Decimal
	PaymentMethod  domain.PaymentMethod
	Status         domain.OrderStatusType
	IdempotencyKey *string
	Items          []CreateOrderItem
}
