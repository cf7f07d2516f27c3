package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/service"
	"github.com/fsdevblog/cafe-pos/internal/transport/api/testutils"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testStoreID = "5f1c8a2e-7b3d-4c9e-a1f0-3d2b6e8c9a47"

type TransactionsHandlerTestSuite struct {
	HandlerTestSuite
}

func TestTransactionsHandlerSuite(t *testing.T) {
	suite.Run(t, new(TransactionsHandlerTestSuite))
}

func (s *TransactionsHandlerTestSuite) ledgerResult(amount, balance string, replayed bool) *domain.LedgerResult {
	return &domain.LedgerResult{
		Transaction: &domain.Transaction{
			ID:               "t-1",
			CreatedAt:        time.Now(),
			MemberID:         "m-1",
			StoreID:          testStoreID,
			Type:             domain.TransactionDeposit,
			Amount:           decimal.RequireFromString(amount),
			ResultingBalance: decimal.RequireFromString(balance),
		},
		Balance:  decimal.RequireFromString(balance),
		Replayed: replayed,
	}
}

func (s *TransactionsHandlerTestSuite) TestCreateDeposit() {
	s.mockLedger.EXPECT().
		ApplyTransaction(gomock.Any(), service.ApplyTransactionArgs{
			MemberID:       "m-1",
			StoreID:        testStoreID,
			Type:           domain.TransactionDeposit,
			Amount:         decimal.RequireFromString("50.25"),
			IdempotencyKey: "key-1",
		}).
		Return(s.ledgerResult("50.25", "150.25", false), nil)

	res := s.do(http.MethodPost, "/members/m-1/transactions",
		testutils.JSONBody(map[string]any{"store_id": testStoreID, "type": "deposit", "amount": "50.25"}),
		testutils.WithBearer(s.shopkeeperJWT),
		testutils.WithJSON(),
		testutils.WithHeader(IdempotencyKeyHeader, "key-1"),
	)
	var body LedgerResponse
	s.Require().NoError(testutils.DecodeJSON(res, &body))
	s.Equal(http.StatusCreated, res.StatusCode)
	s.Equal("150.25", body.Balance)
	s.Equal("50.25", body.Transaction.Amount)
	s.False(body.Replayed)
}

func (s *TransactionsHandlerTestSuite) TestCreateCannotTieOrder() {
	// order_id в теле не доходит до сервиса.
	s.mockLedger.EXPECT().
		ApplyTransaction(gomock.Any(), service.ApplyTransactionArgs{
			MemberID: "m-1",
			StoreID:  testStoreID,
			Type:     domain.TransactionConsumption,
			Amount:   decimal.RequireFromString("1"),
		}).
		Return(s.ledgerResult("-1.00", "99.00", false), nil)

	res := s.do(http.MethodPost, "/members/m-1/transactions",
		testutils.JSONBody(map[string]any{
			"store_id": testStoreID,
			"type":     "consumption",
			"amount":   "1",
			"order_id": "0b7e1c9a-4f2d-4e8b-9c3a-6d5f1e2a7b80",
		}),
		testutils.WithBearer(s.shopkeeperJWT),
		testutils.WithJSON(),
	)
	defer res.Body.Close()
	s.Equal(http.StatusCreated, res.StatusCode)
}

func (s *TransactionsHandlerTestSuite) TestReplayReturnsOK() {
	s.mockLedger.EXPECT().ApplyTransaction(gomock.Any(), gomock.Any()).
		Return(s.ledgerResult("10.00", "110.00", true), nil)

	res := s.do(http.MethodPost, "/members/m-1/transactions",
		testutils.JSONBody(map[string]any{"store_id": testStoreID, "type": "deposit", "amount": 10}),
		testutils.WithBearer(s.shopkeeperJWT),
		testutils.WithJSON(),
		testutils.WithHeader(IdempotencyKeyHeader, "key-1"),
	)
	var body LedgerResponse
	s.Require().NoError(testutils.DecodeJSON(res, &body))
	s.Equal(http.StatusOK, res.StatusCode)
	s.True(body.Replayed)
}

func (s *TransactionsHandlerTestSuite) TestServiceErrors() {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "insufficient balance",
			err:        domain.ErrInsufficientBalance,
			wantStatus: http.StatusPaymentRequired,
			wantMsg:    domain.ErrInsufficientBalance.Error(),
		},
		{
			name:       "member not found",
			err:        domain.ErrMemberNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    domain.ErrMemberNotFound.Error(),
		},
		{
			name:       "invalid amount",
			err:        domain.ErrInvalidAmount,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    domain.ErrInvalidAmount.Error(),
		},
		{
			name:       "duplicate operation",
			err:        domain.ErrDuplicateOperation,
			wantStatus: http.StatusConflict,
			wantMsg:    domain.ErrDuplicateOperation.Error(),
		},
		{
			name:       "unknown store",
			err:        domain.ErrUnknownStore,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    domain.ErrUnknownStore.Error(),
		},
		{
			name:       "write uncertain",
			err:        domain.NewPersistenceError(domain.WriteUncertain, "m-1", errors.New("conn reset")),
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    msgVerifyBalance,
		},
		{
			name: "ledger busy",
			err: domain.NewPersistenceError(domain.WriteConfirmedFailed, "m-1",
				errors.Join(domain.ErrLedgerBusy, context.DeadlineExceeded)),
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    msgLedgerBusy,
		},
		{
			name:       "write confirmed failed",
			err:        domain.NewPersistenceError(domain.WriteConfirmedFailed, "m-1", errors.New("rolled back")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    msgWriteFailed,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockLedger.EXPECT().ApplyTransaction(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			res := s.do(http.MethodPost, "/members/m-1/transactions",
				testutils.JSONBody(map[string]any{"store_id": testStoreID, "type": "consumption", "amount": "5.00"}),
				testutils.WithBearer(s.shopkeeperJWT),
				testutils.WithJSON(),
			)
			var body map[string]string
			s.Require().NoError(testutils.DecodeJSON(res, &body))
			s.Equal(tc.wantStatus, res.StatusCode)
			s.Equal(tc.wantMsg, body["error"])
		})
	}
}

func (s *TransactionsHandlerTestSuite) TestInvalidPayload() {
	s.mockLedger.EXPECT().ApplyTransaction(gomock.Any(), gomock.Any()).Times(0)

	cases := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{
			name:       "sub-cent amount",
			payload:    map[string]any{"store_id": testStoreID, "type": "deposit", "amount": "0.001"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "negative amount",
			payload:    map[string]any{"store_id": testStoreID, "type": "deposit", "amount": "-5"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown type",
			payload:    map[string]any{"store_id": testStoreID, "type": "refund", "amount": "5"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "no store",
			payload:    map[string]any{"type": "deposit", "amount": "5"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "store is not uuid",
			payload:    map[string]any{"store_id": "s-1", "type": "deposit", "amount": "5"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "amount is not a number",
			payload:    map[string]any{"store_id": testStoreID, "type": "deposit", "amount": "five"},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.do(http.MethodPost, "/members/m-1/transactions",
				testutils.JSONBody(tc.payload),
				testutils.WithBearer(s.shopkeeperJWT),
				testutils.WithJSON(),
			)
			defer res.Body.Close()
			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}

func (s *TransactionsHandlerTestSuite) TestAttempt() {
	s.mockLedger.EXPECT().ResolveAttempt(gomock.Any(), "key-1").
		Return(&domain.AttemptResolution{
			State:       domain.AttemptCommitted,
			Transaction: s.ledgerResult("5.00", "95.00", false).Transaction,
		}, nil)
	s.mockLedger.EXPECT().ResolveAttempt(gomock.Any(), "key-2").
		Return(&domain.AttemptResolution{State: domain.AttemptNotApplied}, nil)

	res := s.do(http.MethodGet, "/transactions/attempts/key-1", nil, testutils.WithBearer(s.shopkeeperJWT))
	var committed AttemptResponse
	s.Require().NoError(testutils.DecodeJSON(res, &committed))
	s.Equal(domain.AttemptCommitted, committed.State)
	s.Require().NotNil(committed.Transaction)
	s.Equal("95.00", committed.Transaction.ResultingBalance)

	res = s.do(http.MethodGet, "/transactions/attempts/key-2", nil, testutils.WithBearer(s.shopkeeperJWT))
	var notApplied AttemptResponse
	s.Require().NoError(testutils.DecodeJSON(res, &notApplied))
	s.Equal(domain.AttemptNotApplied, notApplied.State)
	s.Nil(notApplied.Transaction)
}

func (s *TransactionsHandlerTestSuite) TestMemberHistory() {
	s.mockLedger.EXPECT().History(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter repoargs.TransactionFilter) ([]domain.Transaction, error) {
			s.Equal("m-1", filter.MemberID)
			s.Equal(uint(10), filter.Limit)
			return []domain.Transaction{*s.ledgerResult("5.00", "95.00", false).Transaction}, nil
		})

	res := s.do(http.MethodGet, "/members/m-1/transactions?limit=10", nil, testutils.WithBearer(s.shopkeeperJWT))
	var body []TransactionResponse
	s.Require().NoError(testutils.DecodeJSON(res, &body))
	s.Equal(http.StatusOK, res.StatusCode)
	s.Len(body, 1)
}
