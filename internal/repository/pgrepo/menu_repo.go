package pgrepo

import (
	"context"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const menuColumns = `id::text, created_at, name, price, cost, category, image_url, is_available`

type MenuRepository struct {
	conn uow.DBTX
}

func NewMenuRepository(conn uow.DBTX) *MenuRepository {
	return &MenuRepository{conn: conn}
}

// List возвращает позиции меню, отсортированные по категории и имени. available == nil - все позиции.
func (m *MenuRepository) List(ctx context.Context, available *bool) ([]domain.MenuItem, error) {
	rows, err := m.conn.Query(ctx,
		`SELECT `+menuColumns+` FROM menu_items
		WHERE $1::boolean IS NULL OR is_available = $1
		ORDER BY category, name`,
		available,
	)
	if err != nil {
		return nil, convertErr(err, "listing menu items")
	}
	defer rows.Close()

	var items = make([]domain.MenuItem, 0)
	for rows.Next() {
		item, scanErr := scanMenuItem(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning menu item")
		}
		items = append(items, *item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing menu items")
	}
	return items, nil
}

func (m *MenuRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := m.conn.Query(ctx, `SELECT DISTINCT category FROM menu_items ORDER BY category`)
	if err != nil {
		return nil, convertErr(err, "listing menu categories")
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, convertErr(err, "collecting menu categories")
	}
	return categories, nil
}

func (m *MenuRepository) Create(ctx context.Context, args repoargs.CreateMenuItem) (*domain.MenuItem, error) {
	row := m.conn.QueryRow(ctx,
		`INSERT INTO menu_items (name, price, cost, category, image_url, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+menuColumns,
		args.Name, args.Price, args.Cost, args.Category, args.ImageURL, args.IsAvailable,
	)
	item, err := scanMenuItem(row)
	if err != nil {
		return nil, convertErr(err, "creating menu item `%s`", args.Name)
	}
	return item, nil
}

func (m *MenuRepository) Update(
	ctx context.Context,
	id string,
	args repoargs.UpdateMenuItem,
) (*domain.MenuItem, error) {
	row := m.conn.QueryRow(ctx,
		`UPDATE menu_items SET
			name = coalesce($2, name),
			price = coalesce($3, price),
			cost = coalesce($4, cost),
			category = coalesce($5, category),
			image_url = coalesce($6, image_url),
			is_available = $7
		WHERE id = $1
		RETURNING `+menuColumns,
		id, args.Name, args.Price, args.Cost, args.Category, args.ImageURL, args.IsAvailable,
	)
	item, err := scanMenuItem(row)
	if err != nil {
		return nil, convertErr(err, "updating menu item `%s`", id)
	}
	return item, nil
}

func (m *MenuRepository) Delete(ctx context.Context, id string) error {
	tag, err := m.conn.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return convertErr(err, "deleting menu item `%s`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "deleting menu item `%s`", id)
	}
	return nil
}

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := row.Scan(
		&item.ID,
		&item.CreatedAt,
		&item.Name,
		&item.Price,
		&item.Cost,
		&item.Category,
		&item.ImageURL,
		&item.IsAvailable,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &item, nil
}
