package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Member struct {
	ID                string
	CreatedAt         time.Time
	Phone             string
	Name              string
	Balance           decimal.Decimal
	LastBalanceUpdate *time.Time
	Birthday          *time.Time
	Gender            GenderType
	StoreID           string
}

// Transaction неизменяемая запись журнала баланса. Amount знаковый: пополнение положительное,
// списание отрицательное.
type Transaction struct {
	ID               string
	CreatedAt        time.Time
	MemberID         string
	StoreID          string
	Type             TransactionType
	Amount           decimal.Decimal
	ResultingBalance decimal.Decimal
	OrderID          *string
	IdempotencyKey   *string
}

type Order struct {
	ID            string
	CreatedAt     time.Time
	StoreID       string
	MemberID      *string
	TotalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
	Status        OrderStatusType
	// IdempotencyKey ключ оформления заказа, повтор запроса с ним возвращает этот же заказ.
	IdempotencyKey *string
	Items          []OrderItem
}

type OrderItem struct {
	ID         string
	OrderID    string
	MenuItemID string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// LineTotal стоимость позиции, quantity × unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type MenuItem struct {
	ID          string
	CreatedAt   time.Time
	Name        string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Category    string
	ImageURL    string
	IsAvailable bool
}

type Store struct {
	ID   string
	Name string
}

type Note struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	MemberID  string
	Category  string
	Content   string
}
