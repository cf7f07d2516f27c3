package service

import (
	"context"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type MemberRepository interface {
	Create(ctx context.Context, args repoargs.CreateMember) (*domain.Member, error)
	GetByID(ctx context.Context, memberID string) (*domain.Member, error)
	GetByIDForUpdate(ctx context.Context, memberID string) (*domain.Member, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Member, error)
	List(ctx context.Context, filter repoargs.MemberFilter) ([]domain.Member, error)
	Update(ctx context.Context, memberID string, args repoargs.UpdateMember) (*domain.Member, error)
	UpdateBalance(ctx context.Context, memberID string, balance decimal.Decimal, at time.Time) (decimal.Decimal, error)
	Delete(ctx context.Context, memberID string) error
}

type TransactionRepository interface {
	Create(ctx context.Context, args repoargs.CreateTransaction) (*domain.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	FindByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error)
	List(ctx context.Context, filter repoargs.TransactionFilter) ([]domain.Transaction, error)
	SumByMember(ctx context.Context, memberID string) (decimal.Decimal, error)
}

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatusType) error
	ListUnreconciled(ctx context.Context, olderThan time.Time, limit uint) ([]domain.Order, error)
}

type MenuRepository interface {
	List(ctx context.Context, available *bool) ([]domain.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, args repoargs.CreateMenuItem) (*domain.MenuItem, error)
	Update(ctx context.Context, id string, args repoargs.UpdateMenuItem) (*domain.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

type StoreRepository interface {
	List(ctx context.Context) ([]domain.Store, error)
}

type NoteRepository interface {
	ListByMember(ctx context.Context, memberID string) ([]domain.Note, error)
	Upsert(ctx context.Context, args repoargs.UpsertNote) (*domain.Note, error)
	Delete(ctx context.Context, noteID string) error
}

type ReportRepository interface {
	BusinessOverview(ctx context.Context) (*domain.BusinessOverview, error)
	PeakTransactionHours(ctx context.Context) ([]domain.PeakTransactionHour, error)
	StorePerformance(ctx context.Context) ([]domain.StorePerformance, error)
	TopSpendingMembers(ctx context.Context) ([]domain.TopSpendingMember, error)
	PopularItems(ctx context.Context) ([]domain.PopularItem, error)
	CategorySales(ctx context.Context) ([]domain.CategorySales, error)
	RevenueTrend(ctx context.Context, days int) ([]domain.RevenueTrend, error)
	TopCustomers(ctx context.Context) ([]domain.TopCustomer, error)
	NoteCategoryStats(ctx context.Context) ([]domain.NoteCategoryStat, error)
}

// MemberLocker сериализует изменения баланса одного участника между горутинами и экземплярами сервиса.
type MemberLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LedgerEventPublisher получает уведомления о зафиксированных операциях. Ошибка публикации не влияет на операцию.
type LedgerEventPublisher interface {
	TransactionCommitted(ctx context.Context, t domain.Transaction) error
}

// OrderPaymentRecorder списание оплаты заказа с баланса участника.
type OrderPaymentRecorder interface {
	RecordOrderPayment(ctx context.Context, order domain.Order) (*domain.LedgerResult, error)
}
