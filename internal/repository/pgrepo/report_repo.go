package pgrepo

import (
	"context"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
)

// ReportRepository читает аналитические представления. Все вычисления выполняются в БД.
type ReportRepository struct {
	conn uow.DBTX
}

func NewReportRepository(conn uow.DBTX) *ReportRepository {
	return &ReportRepository{conn: conn}
}

func (r *ReportRepository) BusinessOverview(ctx context.Context) (*domain.BusinessOverview, error) {
	var o domain.BusinessOverview
	err := r.conn.QueryRow(ctx,
		`SELECT total_members, total_balance, total_deposits, total_consumption, total_orders, total_order_revenue
		FROM business_overview`,
	).Scan(
		&o.TotalMembers,
		&o.TotalBalance,
		&o.TotalDeposits,
		&o.TotalConsumption,
		&o.TotalOrders,
		&o.TotalOrderRevenue,
	)
	if err != nil {
		return nil, convertErr(err, "reading business overview")
	}
	return &o, nil
}

func (r *ReportRepository) PeakTransactionHours(ctx context.Context) ([]domain.PeakTransactionHour, error) {
	rows, err := r.conn.Query(ctx, `SELECT hour, transaction_count FROM peak_transaction_hours`)
	if err != nil {
		return nil, convertErr(err, "reading peak transaction hours")
	}
	return collect(rows, "peak transaction hours", func(row pgx.CollectableRow) (domain.PeakTransactionHour, error) {
		var h domain.PeakTransactionHour
		err := row.Scan(&h.Hour, &h.TransactionCount)
		return h, err
	})
}

func (r *ReportRepository) StorePerformance(ctx context.Context) ([]domain.StorePerformance, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT store_id::text, store_name, member_count, transaction_count, total_deposits, total_consumption
		FROM store_performance ORDER BY store_name`,
	)
	if err != nil {
		return nil, convertErr(err, "reading store performance")
	}
	return collect(rows, "store performance", func(row pgx.CollectableRow) (domain.StorePerformance, error) {
		var p domain.StorePerformance
		err := row.Scan(
			&p.StoreID, &p.StoreName, &p.MemberCount, &p.TransactionCount, &p.TotalDeposits, &p.TotalConsumption,
		)
		return p, err
	})
}

func (r *ReportRepository) TopSpendingMembers(ctx context.Context) ([]domain.TopSpendingMember, error) {
	rows, err := r.conn.Query(ctx, `SELECT member_id::text, name, phone, total_spent FROM top_spending_members`)
	if err != nil {
		return nil, convertErr(err, "reading top spending members")
	}
	return collect(rows, "top spending members", func(row pgx.CollectableRow) (domain.TopSpendingMember, error) {
		var m domain.TopSpendingMember
		err := row.Scan(&m.MemberID, &m.Name, &m.Phone, &m.TotalSpent)
		return m, err
	})
}

func (r *ReportRepository) PopularItems(ctx context.Context) ([]domain.PopularItem, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT menu_item_id::text, name, category, total_quantity, total_revenue FROM popular_items`,
	)
	if err != nil {
		return nil, convertErr(err, "reading popular items")
	}
	return collect(rows, "popular items", func(row pgx.CollectableRow) (domain.PopularItem, error) {
		var i domain.PopularItem
		err := row.Scan(&i.MenuItemID, &i.Name, &i.Category, &i.TotalQuantity, &i.TotalRevenue)
		return i, err
	})
}

func (r *ReportRepository) CategorySales(ctx context.Context) ([]domain.CategorySales, error) {
	rows, err := r.conn.Query(ctx, `SELECT category, total_quantity, total_revenue FROM category_sales`)
	if err != nil {
		return nil, convertErr(err, "reading category sales")
	}
	return collect(rows, "category sales", func(row pgx.CollectableRow) (domain.CategorySales, error) {
		var c domain.CategorySales
		err := row.Scan(&c.Category, &c.TotalQuantity, &c.TotalRevenue)
		return c, err
	})
}

// RevenueTrend выручка по дням за последние days дней, включая текущий.
func (r *ReportRepository) RevenueTrend(ctx context.Context, days int) ([]domain.RevenueTrend, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT day, order_count, revenue FROM daily_revenue
		WHERE day >= date_trunc('day', now()) - make_interval(days => $1 - 1)
		ORDER BY day`,
		days,
	)
	if err != nil {
		return nil, convertErr(err, "reading revenue trend")
	}
	return collect(rows, "revenue trend", func(row pgx.CollectableRow) (domain.RevenueTrend, error) {
		var t domain.RevenueTrend
		err := row.Scan(&t.Day, &t.OrderCount, &t.Revenue)
		return t, err
	})
}

func (r *ReportRepository) TopCustomers(ctx context.Context) ([]domain.TopCustomer, error) {
	rows, err := r.conn.Query(ctx, `SELECT member_id::text, name, order_count, total_spent FROM top_customers`)
	if err != nil {
		return nil, convertErr(err, "reading top customers")
	}
	return collect(rows, "top customers", func(row pgx.CollectableRow) (domain.TopCustomer, error) {
		var c domain.TopCustomer
		err := row.Scan(&c.MemberID, &c.Name, &c.OrderCount, &c.TotalSpent)
		return c, err
	})
}

func (r *ReportRepository) NoteCategoryStats(ctx context.Context) ([]domain.NoteCategoryStat, error) {
	rows, err := r.conn.Query(ctx, `SELECT category, note_count FROM note_category_stats`)
	if err != nil {
		return nil, convertErr(err, "reading note category stats")
	}
	return collect(rows, "note category stats", func(row pgx.CollectableRow) (domain.NoteCategoryStat, error) {
		var s domain.NoteCategoryStat
		err := row.Scan(&s.Category, &s.NoteCount)
		return s, err
	})
}

func collect[T any](rows pgx.Rows, name string, fn pgx.RowToFunc[T]) ([]T, error) {
	items, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, convertErr(err, "collecting %s", name)
	}
	return items, nil
}
