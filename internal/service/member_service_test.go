package service

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/service/mocks"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	uowmocks "github.com/fsdevblog/cafe-pos/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type MemberServiceTestSuite struct {
	suite.Suite
	mockUOW        *uowmocks.MockUOW
	mockMemberRepo *mocks.MockMemberRepository
	memberService  *MemberService
}

func TestMemberServiceSuite(t *testing.T) {
	suite.Run(t, new(MemberServiceTestSuite))
}

func (s *MemberServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockMemberRepo = mocks.NewMockMemberRepository(mockCtrl)

	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.MemberRepoName)).
		Return(s.mockMemberRepo, nil).AnyTimes()

	memberService, err := NewMemberService(s.mockUOW)
	s.Require().NoError(err)
	s.memberService = memberService
}

func (s *MemberServiceTestSuite) TestCreate() {
	args := repoargs.CreateMember{
		Phone:   " 0912345678 ",
		Name:    gofakeit.Name(),
		StoreID: gofakeit.UUID(),
	}
	s.mockMemberRepo.EXPECT().Create(gomock.Any(), repoargs.CreateMember{
		Phone:   "0912345678",
		Name:    args.Name,
		StoreID: args.StoreID,
		Gender:  domain.GenderOther,
	}).Return(&domain.Member{ID: gofakeit.UUID(), Phone: "0912345678"}, nil)

	member, err := s.memberService.Create(s.T().Context(), args)
	s.Require().NoError(err)
	s.Equal("0912345678", member.Phone)
}

func (s *MemberServiceTestSuite) TestCreateValidation() {
	_, err := s.memberService.Create(s.T().Context(), repoargs.CreateMember{Name: "x", StoreID: "s"})
	s.Require().ErrorIs(err, domain.ErrInvalidMember)

	_, err = s.memberService.Create(s.T().Context(), repoargs.CreateMember{
		Phone: "1", Name: "x", StoreID: "s", Gender: "robot",
	})
	s.Require().ErrorIs(err, domain.ErrInvalidMember)
}

func (s *MemberServiceTestSuite) TestCreateDuplicatePhone() {
	s.mockMemberRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateKey)

	_, err := s.memberService.Create(s.T().Context(), repoargs.CreateMember{Phone: "1", Name: "x", StoreID: "s"})
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)
}

func (s *MemberServiceTestSuite) TestGetNotFound() {
	s.mockMemberRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrRecordNotFound)

	_, err := s.memberService.Get(s.T().Context(), "missing")
	s.Require().ErrorIs(err, domain.ErrMemberNotFound)
}

func (s *MemberServiceTestSuite) TestDelete() {
	s.mockMemberRepo.EXPECT().Delete(gomock.Any(), "with-history").Return(domain.ErrForeignKey)
	s.mockMemberRepo.EXPECT().Delete(gomock.Any(), "missing").Return(domain.ErrRecordNotFound)
	s.mockMemberRepo.EXPECT().Delete(gomock.Any(), "ok").Return(nil)

	s.Require().ErrorIs(s.memberService.Delete(s.T().Context(), "with-history"), domain.ErrMemberHasTransactions)
	s.Require().ErrorIs(s.memberService.Delete(s.T().Context(), "missing"), domain.ErrMemberNotFound)
	s.Require().NoError(s.memberService.Delete(s.T().Context(), "ok"))
}
