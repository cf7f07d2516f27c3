package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Строки аналитических представлений. Только чтение, расчет выполняется на стороне БД.

type BusinessOverview struct {
	TotalMembers      int64           `json:"total_members"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalConsumption  decimal.Decimal `json:"total_consumption"`
	TotalOrders       int64           `json:"total_orders"`
	TotalOrderRevenue decimal.Decimal `json:"total_order_revenue"`
}

type PeakTransactionHour struct {
	Hour             int   `json:"hour"`
	TransactionCount int64 `json:"transaction_count"`
}

type StorePerformance struct {
	StoreID          string          `json:"store_id"`
	StoreName        string          `json:"store_name"`
	MemberCount      int64           `json:"member_count"`
	TransactionCount int64           `json:"transaction_count"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalConsumption decimal.Decimal `json:"total_consumption"`
}

type TopSpendingMember struct {
	MemberID   string          `json:"member_id"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

type PopularItem struct {
	MenuItemID    string          `json:"menu_item_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

type CategorySales struct {
	Category      string          `json:"category"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

type RevenueTrend struct {
	Day        time.Time       `json:"day"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type TopCustomer struct {
	MemberID   string          `json:"member_id"`
	Name       string          `json:"name"`
	OrderCount int64           `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

type NoteCategoryStat struct {
	Category  string `json:"category"`
	NoteCount int64  `json:"note_count"`
}
