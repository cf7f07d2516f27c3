package pgrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const memberColumns = `member_id::text, created_at, phone, name, balance, last_balance_update,
	birthday, gender::text, store_id::text`

type MemberRepository struct {
	conn uow.DBTX
}

func NewMemberRepository(conn uow.DBTX) *MemberRepository {
	return &MemberRepository{conn: conn}
}

func (m *MemberRepository) Create(ctx context.Context, args repoargs.CreateMember) (*domain.Member, error) {
	row := m.conn.QueryRow(ctx,
		`INSERT INTO members (phone, name, birthday, gender, store_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+memberColumns,
		args.Phone, args.Name, args.Birthday, string(args.Gender), args.StoreID,
	)
	member, err := scanMember(row)
	if err != nil {
		return nil, convertErr(err, "creating member with phone `%s`", args.Phone)
	}
	return member, nil
}

func (m *MemberRepository) GetByID(ctx context.Context, memberID string) (*domain.Member, error) {
	row := m.conn.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE member_id = $1`, memberID)
	member, err := scanMember(row)
	if err != nil {
		return nil, convertErr(err, "getting member by id `%s`", memberID)
	}
	return member, nil
}

// GetByIDForUpdate читает участника и блокирует строку до конца текущей транзакции. Вне транзакции
// блокировка снимается сразу после выполнения запроса.
func (m *MemberRepository) GetByIDForUpdate(ctx context.Context, memberID string) (*domain.Member, error) {
	row := m.conn.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE member_id = $1 FOR UPDATE`,
		memberID,
	)
	member, err := scanMember(row)
	if err != nil {
		return nil, convertErr(err, "locking member by id `%s`", memberID)
	}
	return member, nil
}

func (m *MemberRepository) FindByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	row := m.conn.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE phone = $1`, phone)
	member, err := scanMember(row)
	if err != nil {
		return nil, convertErr(err, "finding member by phone `%s`", phone)
	}
	return member, nil
}

// List возвращает участников, отсортированных по имени.
func (m *MemberRepository) List(ctx context.Context, filter repoargs.MemberFilter) ([]domain.Member, error) {
	var where []string
	var args []any
	if filter.StoreID != "" {
		args = append(args, filter.StoreID)
		where = append(where, fmt.Sprintf("store_id = $%d", len(args)))
	}
	if filter.Phone != "" {
		args = append(args, filter.Phone+"%")
		where = append(where, fmt.Sprintf("phone LIKE $%d", len(args)))
	}

	query := `SELECT ` + memberColumns + ` FROM members`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := m.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, "listing members")
	}
	defer rows.Close()

	var members = make([]domain.Member, 0)
	for rows.Next() {
		member, scanErr := scanMember(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning member")
		}
		members = append(members, *member)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing members")
	}
	return members, nil
}

// Update обновляет профиль участника. Баланс этим методом не изменяется.
func (m *MemberRepository) Update(
	ctx context.Context,
	memberID string,
	args repoargs.UpdateMember,
) (*domain.Member, error) {
	var gender *string
	if args.Gender != nil {
		g := string(*args.Gender)
		gender = &g
	}
	row := m.conn.QueryRow(ctx,
		`UPDATE members SET
			phone = coalesce($2, phone),
			name = coalesce($3, name),
			birthday = coalesce($4, birthday),
			gender = coalesce($5::gender_type, gender)
		WHERE member_id = $1
		RETURNING `+memberColumns,
		memberID, args.Phone, args.Name, args.Birthday, gender,
	)
	member, err := scanMember(row)
	if err != nil {
		return nil, convertErr(err, "updating member `%s`", memberID)
	}
	return member, nil
}

// UpdateBalance записывает новый баланс и время его изменения. Возвращает значение, сохраненное в БД.
func (m *MemberRepository) UpdateBalance(
	ctx context.Context,
	memberID string,
	balance decimal.Decimal,
	at time.Time,
) (decimal.Decimal, error) {
	var persisted decimal.Decimal
	err := m.conn.QueryRow(ctx,
		`UPDATE members SET balance = $2, last_balance_update = $3 WHERE member_id = $1 RETURNING balance`,
		memberID, balance, at,
	).Scan(&persisted)
	if err != nil {
		return decimal.Zero, convertErr(err, "updating balance of member `%s`", memberID)
	}
	return persisted, nil
}

func (m *MemberRepository) Delete(ctx context.Context, memberID string) error {
	tag, err := m.conn.Exec(ctx, `DELETE FROM members WHERE member_id = $1`, memberID)
	if err != nil {
		return convertErr(err, "deleting member `%s`", memberID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("[repository/deleting member `%s`] %w", memberID, domain.ErrRecordNotFound)
	}
	return nil
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var member domain.Member
	var gender string
	if err := row.Scan(
		&member.ID,
		&member.CreatedAt,
		&member.Phone,
		&member.Name,
		&member.Balance,
		&member.LastBalanceUpdate,
		&member.Birthday,
		&gender,
		&member.StoreID,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	member.Gender = domain.GenderType(gender)
	return &member, nil
}
