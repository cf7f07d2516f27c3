package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
)

// MemberService профили участников. Баланс здесь не изменяется, только через LedgerService.
type MemberService struct {
	memberRepo MemberRepository
}

func NewMemberService(u uow.UOW) (*MemberService, error) {
	memberRepo, err := uow.GetRepositoryAs[MemberRepository](u, uow.RepositoryName(repoargs.MemberRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &MemberService{memberRepo: memberRepo}, nil
}

// Create регистрирует участника с нулевым балансом. Занятый телефон - domain.ErrDuplicateKey.
func (m *MemberService) Create(ctx context.Context, args repoargs.CreateMember) (*domain.Member, error) {
	args.Phone = strings.TrimSpace(args.Phone)
	args.Name = strings.TrimSpace(args.Name)
	if args.Phone == "" || args.Name == "" || args.StoreID == "" {
		return nil, fmt.Errorf("%w: phone, name and store are required", domain.ErrInvalidMember)
	}
	if args.Gender == "" {
		args.Gender = domain.GenderOther
	}
	if !args.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender `%s`", domain.ErrInvalidMember, args.Gender)
	}

	member, err := m.memberRepo.Create(ctx, args)
	if err != nil {
		if errors.Is(err, domain.ErrForeignKey) {
			return nil, fmt.Errorf("%w: unknown store `%s`", domain.ErrInvalidMember, args.StoreID)
		}
		return nil, fmt.Errorf("creating member: %w", err)
	}
	return member, nil
}

func (m *MemberService) Get(ctx context.Context, memberID string) (*domain.Member, error) {
	member, err := m.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, memberErr(memberID, err)
	}
	return member, nil
}

func (m *MemberService) FindByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	member, err := m.memberRepo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: phone `%s`", domain.ErrMemberNotFound, phone)
		}
		return nil, err //nolint:wrapcheck
	}
	return member, nil
}

func (m *MemberService) List(ctx context.Context, filter repoargs.MemberFilter) ([]domain.Member, error) {
	members, err := m.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

func (m *MemberService) Update(
	ctx context.Context,
	memberID string,
	args repoargs.UpdateMember,
) (*domain.Member, error) {
	if args.Gender != nil && !args.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender `%s`", domain.ErrInvalidMember, *args.Gender)
	}
	member, err := m.memberRepo.Update(ctx, memberID, args)
	if err != nil {
		return nil, memberErr(memberID, err)
	}
	return member, nil
}

// Delete удаляет участника без операций. Журнал баланса не удаляется никогда, поэтому участник с операциями
// остается - domain.ErrMemberHasTransactions.
func (m *MemberService) Delete(ctx context.Context, memberID string) error {
	err := m.memberRepo.Delete(ctx, memberID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrForeignKey):
		return fmt.Errorf("%w: `%s`", domain.ErrMemberHasTransactions, memberID)
	default:
		return memberErr(memberID, err)
	}
}
