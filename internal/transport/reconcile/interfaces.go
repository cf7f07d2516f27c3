package reconcile

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/cafe-pos/internal/domain"
)

type Servicer interface {
	Unreconciled(ctx context.Context, limit uint) ([]domain.Order, error)
	Reconcile(ctx context.Context, order domain.Order) (domain.OrderStatusType, error)
}
