package memrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type UnitOfWorkTestSuite struct {
	suite.Suite
	store  *Store
	uow    *UnitOfWork
	member domain.Member
}

func TestUnitOfWorkSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkTestSuite))
}

func (s *UnitOfWorkTestSuite) SetupTest() {
	s.store = NewStore()
	s.uow = NewUnitOfWork(s.store)
	s.member = s.store.AddMember(domain.Member{Phone: "0912000000", Name: "Ann", Balance: decimal.NewFromInt(100)})
}

func (s *UnitOfWorkTestSuite) updateBalance(ctx context.Context, tx uow.TX, balance int64) error {
	repo, err := uow.GetAs[*MemberRepository](tx, uow.RepositoryName(repoargs.MemberRepoName))
	if err != nil {
		return err
	}
	_, err = repo.UpdateBalance(ctx, s.member.ID, decimal.NewFromInt(balance), time.Now())
	return err
}

func (s *UnitOfWorkTestSuite) TestRollbackOnError() {
	fnErr := errors.New("boom")
	err := s.uow.Do(s.T().Context(), func(ctx context.Context, tx uow.TX) error {
		if err := s.updateBalance(ctx, tx, 10); err != nil {
			return err
		}
		return fnErr
	})
	s.Require().ErrorIs(err, fnErr)

	m, _ := s.store.Member(s.member.ID)
	s.True(m.Balance.Equal(decimal.NewFromInt(100)))
}

func (s *UnitOfWorkTestSuite) TestCommit() {
	err := s.uow.Do(s.T().Context(), func(ctx context.Context, tx uow.TX) error {
		return s.updateBalance(ctx, tx, 10)
	})
	s.Require().NoError(err)

	m, _ := s.store.Member(s.member.ID)
	s.True(m.Balance.Equal(decimal.NewFromInt(10)))
	s.NotNil(m.LastBalanceUpdate)
}

func (s *UnitOfWorkTestSuite) TestCommitFault() {
	cases := []struct {
		name    string
		applied bool
		want    int64
	}{
		{name: "lost", applied: false, want: 100},
		{name: "applied", applied: true, want: 10},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.store.FailNextCommit(CommitFault{Err: errors.New("connection reset"), Applied: tc.applied})

			err := s.uow.Do(s.T().Context(), func(ctx context.Context, tx uow.TX) error {
				return s.updateBalance(ctx, tx, 10)
			})
			s.Require().True(uow.IsCommitError(err))

			m, _ := s.store.Member(s.member.ID)
			s.True(m.Balance.Equal(decimal.NewFromInt(tc.want)))
		})
	}
}

func (s *UnitOfWorkTestSuite) TestRowLockHeldUntilEnd() {
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.uow.Do(context.Background(), func(ctx context.Context, tx uow.TX) error {
			repo, err := uow.GetAs[*MemberRepository](tx, uow.RepositoryName(repoargs.MemberRepoName))
			if err != nil {
				return err
			}
			if _, err = repo.GetByIDForUpdate(ctx, s.member.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(s.T().Context(), 20*time.Millisecond)
	defer cancel()
	err := s.uow.Do(ctx, func(ctx context.Context, tx uow.TX) error {
		return s.updateBalance(ctx, tx, 5)
	})
	s.Require().ErrorIs(err, domain.ErrUnknown)

	close(release)
	s.Require().NoError(<-done)

	s.Require().NoError(s.uow.Do(s.T().Context(), func(ctx context.Context, tx uow.TX) error {
		return s.updateBalance(ctx, tx, 5)
	}))
}

func (s *UnitOfWorkTestSuite) TestTransactionConstraints() {
	repo, err := uow.GetRepositoryAs[*TransactionRepository](s.uow, uow.RepositoryName(repoargs.TransactionRepoName))
	s.Require().NoError(err)

	key := "key-1"
	args := repoargs.CreateTransaction{
		MemberID:         s.member.ID,
		StoreID:          s.member.StoreID,
		Type:             domain.TransactionDeposit,
		Amount:           decimal.NewFromInt(5),
		ResultingBalance: decimal.NewFromInt(105),
		IdempotencyKey:   &key,
		CreatedAt:        time.Now(),
	}
	_, err = repo.Create(s.T().Context(), args)
	s.Require().NoError(err)

	_, err = repo.Create(s.T().Context(), args)
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)

	args.IdempotencyKey = nil
	args.MemberID = "missing"
	_, err = repo.Create(s.T().Context(), args)
	s.Require().ErrorIs(err, domain.ErrForeignKey)
}
