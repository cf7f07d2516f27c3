package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/service"
)

// AuthServicer интерфейс исключительно для моков.
type AuthServicer interface {
	Login(username string, password string) (string, domain.RoleType, error)
}

type LedgerServicer interface {
	ApplyTransaction(ctx context.Context, args service.ApplyTransactionArgs) (*domain.LedgerResult, error)
	ResolveAttempt(ctx context.Context, idempotencyKey string) (*domain.AttemptResolution, error)
	History(ctx context.Context, filter repoargs.TransactionFilter) ([]domain.Transaction, error)
	Audit(ctx context.Context, memberID string) (*domain.AuditReport, error)
}

type OrderServicer interface {
	Checkout(ctx context.Context, args service.CheckoutArgs) (*service.CheckoutResult, error)
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	Unreconciled(ctx context.Context, limit uint) ([]domain.Order, error)
}

type MemberServicer interface {
	Create(ctx context.Context, args repoargs.CreateMember) (*domain.Member, error)
	Get(ctx context.Context, memberID string) (*domain.Member, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Member, error)
	List(ctx context.Context, filter repoargs.MemberFilter) ([]domain.Member, error)
	Update(ctx context.Context, memberID string, args repoargs.UpdateMember) (*domain.Member, error)
	Delete(ctx context.Context, memberID string) error
}

type MenuServicer interface {
	Available(ctx context.Context) ([]domain.MenuItem, error)
	List(ctx context.Context, available *bool) ([]domain.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, args repoargs.CreateMenuItem) (*domain.MenuItem, error)
	Update(ctx context.Context, id string, args repoargs.UpdateMenuItem) (*domain.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

type StoreServicer interface {
	List(ctx context.Context) ([]domain.Store, error)
}

type NoteServicer interface {
	List(ctx context.Context, memberID string) ([]domain.Note, error)
	Upsert(ctx context.Context, args repoargs.UpsertNote) (*domain.Note, error)
	Delete(ctx context.Context, noteID string) error
}

type ReportServicer interface {
	Report(ctx context.Context, name string, days int) (any, error)
}
