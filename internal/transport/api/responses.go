package api

import (
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/shopspring/decimal"
)

// Денежные поля отдаются строкой с двумя знаками после запятой, чтобы клиент не терял точность.

type MemberResponse struct {
	ID                string            `json:"id"`
	Phone             string            `json:"phone"`
	Name              string            `json:"name"`
	Balance           string            `json:"balance"`
	LastBalanceUpdate *time.Time        `json:"last_balance_update,omitempty"`
	Birthday          *string           `json:"birthday,omitempty"`
	Gender            domain.GenderType `json:"gender"`
	StoreID           string            `json:"store_id"`
	CreatedAt         time.Time         `json:"created_at"`
}

func newMemberResponse(m *domain.Member) MemberResponse {
	res := MemberResponse{
		ID:                m.ID,
		Phone:             m.Phone,
		Name:              m.Name,
		Balance:           money(m.Balance),
		LastBalanceUpdate: m.LastBalanceUpdate,
		Gender:            m.Gender,
		StoreID:           m.StoreID,
		CreatedAt:         m.CreatedAt,
	}
	if m.Birthday != nil {
		birthday := m.Birthday.Format(time.DateOnly)
		res.Birthday = &birthday
	}
	return res
}

type TransactionResponse struct {
	ID               string                 `json:"id"`
	MemberID         string                 `json:"member_id"`
	StoreID          string                 `json:"store_id"`
	Type             domain.TransactionType `json:"type"`
	Amount           string                 `json:"amount"`
	ResultingBalance string                 `json:"resulting_balance"`
	OrderID          *string                `json:"order_id,omitempty"`
	IdempotencyKey   *string                `json:"idempotency_key,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func newTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		MemberID:         t.MemberID,
		StoreID:          t.StoreID,
		Type:             t.Type,
		Amount:           money(t.Amount),
		ResultingBalance: money(t.ResultingBalance),
		OrderID:          t.OrderID,
		IdempotencyKey:   t.IdempotencyKey,
		CreatedAt:        t.CreatedAt,
	}
}

func newTransactionsResponse(transactions []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		res[i] = newTransactionResponse(&transactions[i])
	}
	return res
}

// LedgerResponse результат изменения баланса. Balance подтвержден БД.
type LedgerResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     string              `json:"balance"`
	Replayed    bool                `json:"replayed"`
}

func newLedgerResponse(r *domain.LedgerResult) LedgerResponse {
	return LedgerResponse{
		Transaction: newTransactionResponse(r.Transaction),
		Balance:     money(r.Balance),
		Replayed:    r.Replayed,
	}
}

type OrderItemResponse struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
}

type OrderResponse struct {
	ID            string                 `json:"id"`
	StoreID       string                 `json:"store_id"`
	MemberID      *string                `json:"member_id,omitempty"`
	TotalAmount   string                 `json:"total_amount"`
	PaymentMethod domain.PaymentMethod   `json:"payment_method"`
	Status        domain.OrderStatusType `json:"status"`
	Items         []OrderItemResponse    `json:"items,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  money(item.UnitPrice),
		}
	}
	return OrderResponse{
		ID:            o.ID,
		StoreID:       o.StoreID,
		MemberID:      o.MemberID,
		TotalAmount:   money(o.TotalAmount),
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		Items:         items,
		CreatedAt:     o.CreatedAt,
	}
}

type MenuItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	Cost        string    `json:"cost"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

func newMenuItemResponse(m *domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Price:       money(m.Price),
		Cost:        money(m.Cost),
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt,
	}
}

func newMenuResponse(items []domain.MenuItem) []MenuItemResponse {
	res := make([]MenuItemResponse, len(items))
	for i := range items {
		res[i] = newMenuItemResponse(&items[i])
	}
	return res
}

type NoteResponse struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newNoteResponse(n *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		MemberID:  n.MemberID,
		Category:  n.Category,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type StoreResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.CurrencyScale)
}
