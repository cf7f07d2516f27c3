package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MemberRepository struct {
	tx *Tx
}

func (m *MemberRepository) Create(_ context.Context, args repoargs.CreateMember) (*domain.Member, error) {
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	for _, existing := range m.tx.allMembers() {
		if existing.Phone == args.Phone {
			return nil, fmt.Errorf("[repository/creating member with phone `%s`] %w", args.Phone, domain.ErrDuplicateKey)
		}
	}
	gender := args.Gender
	if gender == "" {
		gender = domain.GenderOther
	}
	member := domain.Member{
		ID:        uuid.NewString(),
		CreatedAt: m.tx.store.now(),
		Phone:     args.Phone,
		Name:      args.Name,
		Balance:   decimal.Zero,
		Birthday:  args.Birthday,
		Gender:    gender,
		StoreID:   args.StoreID,
	}
	m.tx.putMember(member)
	return &member, nil
}

func (m *MemberRepository) GetByID(_ context.Context, memberID string) (*domain.Member, error) {
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	member, ok := m.tx.member(memberID)
	if !ok {
		return nil, notFound("getting member by id `%s`", memberID)
	}
	return &member, nil
}

func (m *MemberRepository) GetByIDForUpdate(ctx context.Context, memberID string) (*domain.Member, error) {
	if err := m.tx.lockRow(ctx, memberID); err != nil {
		return nil, err
	}
	return m.GetByID(ctx, memberID)
}

func (m *MemberRepository) FindByPhone(_ context.Context, phone string) (*domain.Member, error) {
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	for _, member := range m.tx.allMembers() {
		if member.Phone == phone {
			return &member, nil
		}
	}
	return nil, notFound("finding member by phone `%s`", phone)
}

func (m *MemberRepository) List(_ context.Context, filter repoargs.MemberFilter) ([]domain.Member, error) {
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	var members = make([]domain.Member, 0)
	for _, member := range m.tx.allMembers() {
		if filter.StoreID != "" && member.StoreID != filter.StoreID {
			continue
		}
		if filter.Phone != "" && !strings.HasPrefix(member.Phone, filter.Phone) {
			continue
		}
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	if filter.Limit > 0 && uint(len(members)) > filter.Limit {
		members = members[:filter.Limit]
	}
	return members, nil
}

func (m *MemberRepository) Update(
	ctx context.Context,
	memberID string,
	args repoargs.UpdateMember,
) (*domain.Member, error) {
	if err := m.tx.lockRow(ctx, memberID); err != nil {
		return nil, err
	}
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	member, ok := m.tx.member(memberID)
	if !ok {
		return nil, notFound("updating member `%s`", memberID)
	}
	if args.Phone != nil {
		member.Phone = *args.Phone
	}
	if args.Name != nil {
		member.Name = *args.Name
	}
	if args.Birthday != nil {
		member.Birthday = args.Birthday
	}
	if args.Gender != nil {
		member.Gender = *args.Gender
	}
	m.tx.putMember(member)
	return &member, nil
}

// UpdateBalance повторяет CHECK (balance >= 0) таблицы members.
func (m *MemberRepository) UpdateBalance(
	ctx context.Context,
	memberID string,
	balance decimal.Decimal,
	at time.Time,
) (decimal.Decimal, error) {
	if err := m.tx.lockRow(ctx, memberID); err != nil {
		return decimal.Zero, err
	}
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	member, ok := m.tx.member(memberID)
	if !ok {
		return decimal.Zero, notFound("updating balance of member `%s`", memberID)
	}
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf("[repository/updating balance of member `%s`] %w: check constraint violated",
			memberID, domain.ErrUnknown)
	}
	member.Balance = balance
	member.LastBalanceUpdate = &at
	m.tx.putMember(member)
	return balance, nil
}

func (m *MemberRepository) Delete(_ context.Context, memberID string) error {
	m.tx.store.mu.Lock()
	defer m.tx.store.mu.Unlock()

	if _, ok := m.tx.member(memberID); !ok {
		return notFound("deleting member `%s`", memberID)
	}
	for _, tr := range m.tx.allTransactions() {
		if tr.MemberID == memberID {
			return fmt.Errorf("[repository/deleting member `%s`] %w", memberID, domain.ErrForeignKey)
		}
	}
	if m.tx.auto {
		delete(m.tx.store.members, memberID)
		return nil
	}
	// удаление внутри транзакции тестам не требуется.
	return fmt.Errorf("[repository/deleting member `%s`] %w: not supported in transaction", memberID, domain.ErrUnknown)
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("[repository/%s] %w", fmt.Sprintf(format, args...), domain.ErrRecordNotFound)
}
