package pgrepo

import (
	"context"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
)

type StoreRepository struct {
	conn uow.DBTX
}

func NewStoreRepository(conn uow.DBTX) *StoreRepository {
	return &StoreRepository{conn: conn}
}

func (s *StoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	rows, err := s.conn.Query(ctx, `SELECT store_id::text, store_name FROM stores ORDER BY store_name`)
	if err != nil {
		return nil, convertErr(err, "listing stores")
	}
	stores, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Store, error) {
		var store domain.Store
		scanErr := row.Scan(&store.ID, &store.Name)
		return store, scanErr
	})
	if err != nil {
		return nil, convertErr(err, "collecting stores")
	}
	return stores, nil
}
