package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/transport/api/testutils"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MembersHandlerTestSuite struct {
	HandlerTestSuite
}

func TestMembersHandlerSuite(t *testing.T) {
	suite.Run(t, new(MembersHandlerTestSuite))
}

func (s *MembersHandlerTestSuite) member(phone string) *domain.Member {
	return &domain.Member{
		ID:        gofakeit.UUID(),
		CreatedAt: time.Now(),
		Phone:     phone,
		Name:      gofakeit.Name(),
		Balance:   decimal.RequireFromString("12.5"),
		Gender:    domain.GenderFemale,
		StoreID:   "s-1",
	}
}

func (s *MembersHandlerTestSuite) TestCreate() {
	s.mockMembers.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateMember) (*domain.Member, error) {
			s.Equal("+79001234567", args.Phone)
			s.Require().NotNil(args.Birthday)
			s.Equal(time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC), *args.Birthday)
			m := s.member(args.Phone)
			m.Balance = decimal.Zero
			return m, nil
		})

	res := s.do(http.MethodPost, MembersRoute, testutils.JSONBody(map[string]any{
		"phone":    "+79001234567",
		"name":     "Анна",
		"birthday": "1990-05-17",
		"gender":   "female",
		"store_id": "s-1",
	}), testutils.WithBearer(s.shopkeeperJWT), testutils.WithJSON())
	var body MemberResponse
	s.Require().NoError(testutils.DecodeJSON(res, &body))
	s.Equal(http.StatusCreated, res.StatusCode)
	s.Equal("0.00", body.Balance)
}

func (s *MembersHandlerTestSuite) TestCreateValidation() {
	s.mockMembers.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	cases := map[string]map[string]any{
		"bad phone":    {"phone": "call me", "name": "Анна", "store_id": "s-1"},
		"bad gender":   {"phone": "79001234567", "name": "Анна", "store_id": "s-1", "gender": "robot"},
		"bad birthday": {"phone": "79001234567", "name": "Анна", "store_id": "s-1", "birthday": "17.05.1990"},
		"no store":     {"phone": "79001234567", "name": "Анна"},
	}
	for name, payload := range cases {
		s.Run(name, func() {
			res := s.do(http.MethodPost, MembersRoute, testutils.JSONBody(payload),
				testutils.WithBearer(s.shopkeeperJWT), testutils.WithJSON())
			defer res.Body.Close()
			s.Equal(http.StatusUnprocessableEntity, res.StatusCode)
		})
	}
}

func (s *MembersHandlerTestSuite) TestCreateDuplicatePhone() {
	s.mockMembers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateKey)

	res := s.do(http.MethodPost, MembersRoute, testutils.JSONBody(map[string]any{
		"phone": "79001234567", "name": "Анна", "store_id": "s-1",
	}), testutils.WithBearer(s.shopkeeperJWT), testutils.WithJSON())
	defer res.Body.Close()
	s.Equal(http.StatusConflict, res.StatusCode)
}

func (s *MembersHandlerTestSuite) TestIndexByPhone() {
	member := s.member("79001234567")
	s.mockMembers.EXPECT().FindByPhone(gomock.Any(), "79001234567").Return(member, nil)
	s.mockMembers.EXPECT().FindByPhone(gomock.Any(), "79000000000").Return(nil, domain.ErrMemberNotFound)

	res := s.do(http.MethodGet, MembersRoute+"?phone=79001234567", nil, testutils.WithBearer(s.shopkeeperJWT))
	var body []MemberResponse
	s.Require().NoError(testutils.DecodeJSON(res, &body))
	s.Equal(http.StatusOK, res.StatusCode)
	s.Require().Len(body, 1)
	s.Equal(member.ID, body[0].ID)
	s.Equal("12.50", body[0].Balance)

	res = s.do(http.MethodGet, MembersRoute+"?phone=79000000000", nil, testutils.WithBearer(s.shopkeeperJWT))
	defer res.Body.Close()
	s.Equal(http.StatusNotFound, res.StatusCode)
}

func (s *MembersHandlerTestSuite) TestDelete() {
	s.mockMembers.EXPECT().Delete(gomock.Any(), "with-history").Return(domain.ErrMemberHasTransactions)
	s.mockMembers.EXPECT().Delete(gomock.Any(), "fresh").Return(nil)

	res := s.do(http.MethodDelete, "/members/with-history", nil, testutils.WithBearer(s.adminJWT))
	res.Body.Close()
	s.Equal(http.StatusConflict, res.StatusCode)

	res = s.do(http.MethodDelete, "/members/fresh", nil, testutils.WithBearer(s.adminJWT))
	res.Body.Close()
	s.Equal(http.StatusNoContent, res.StatusCode)
}

func (s *MembersHandlerTestSuite) TestAudit() {
	s.mockLedger.EXPECT().Audit(gomock.Any(), "m-1").Return(&domain.AuditReport{
		MemberID:       "m-1",
		Balance:        decimal.NewFromInt(40),
		TransactionSum: decimal.NewFromInt(40),
		Consistent:     true,
	}, nil)

	res := s.do(http.MethodGet, "/members/m-1/audit", nil, testutils.WithBearer(s.shopkeeperJWT))
	var body AuditResponse
	s.Require().NoError(testutils.DecodeJSON(res, &body))
	s.Equal(http.StatusOK, res.StatusCode)
	s.True(body.Consistent)
	s.Equal("40.00", body.TransactionSum)
}
