package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/fsdevblog/cafe-pos/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
)

// fakeTx реализует только Commit/Rollback, остальные методы pgx.Tx в тестах не вызываются.
type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	f.rolledBack = true
	return nil
}

type UOWTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	beginner *mocks.MockBeginner
	uow      *UnitOfWork
}

func TestUOWSuite(t *testing.T) {
	suite.Run(t, new(UOWTestSuite))
}

func (s *UOWTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.beginner = mocks.NewMockBeginner(s.ctrl)
	s.uow = NewUnitOfWork(s.beginner, WithIsoLevel(pgx.ReadCommitted))
}

func (s *UOWTestSuite) TestRegister() {
	factory := func(DBTX) Repository { return "repo" }
	s.Require().NoError(s.uow.Register("member", factory))
	s.Require().ErrorIs(s.uow.Register("member", factory), ErrRepositoryAlreadyRegistered)

	repo, err := GetRepositoryAs[string](s.uow, "member")
	s.Require().NoError(err)
	s.Equal("repo", repo)

	_, err = GetRepositoryAs[int](s.uow, "member")
	s.Require().ErrorIs(err, ErrInvalidRepositoryType)

	_, err = s.uow.GetRepository("order")
	s.Require().ErrorIs(err, ErrRepositoryNotRegistered)
}

func (s *UOWTestSuite) TestDo() {
	fnErr := errors.New("fn failed")
	commitFailure := errors.New("connection reset by peer")

	cases := []struct {
		name           string
		tx             *fakeTx
		fnErr          error
		wantErr        error
		wantCommitErr  bool
		wantRolledBack bool
	}{
		{name: "commit", tx: new(fakeTx)},
		{name: "fn error rolls back", tx: new(fakeTx), fnErr: fnErr, wantErr: fnErr, wantRolledBack: true},
		{
			name:           "commit error",
			tx:             &fakeTx{commitErr: commitFailure},
			wantErr:        commitFailure,
			wantCommitErr:  true,
			wantRolledBack: true,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.beginner.EXPECT().
				BeginTx(gomock.Any(), pgx.TxOptions{IsoLevel: pgx.ReadCommitted}).
				Return(tc.tx, nil)

			err := s.uow.Do(s.T().Context(), func(_ context.Context, _ TX) error {
				return tc.fnErr
			})

			s.Equal(tc.wantRolledBack, tc.tx.rolledBack)
			s.Equal(tc.wantCommitErr, IsCommitError(err))
			if tc.wantErr == nil {
				s.Require().NoError(err)
				s.True(tc.tx.committed)
				return
			}
			s.Require().ErrorIs(err, tc.wantErr)
		})
	}
}
