package api

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/logger"
	"github.com/fsdevblog/cafe-pos/internal/service/tokens"
	"github.com/fsdevblog/cafe-pos/internal/transport/api/mocks"
	"github.com/fsdevblog/cafe-pos/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

// HandlerTestSuite общая основа тестов обработчиков: роутер со всеми сервисами на моках.
type HandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	jwtSecret     []byte
	mockAuth      *mocks.MockAuthServicer
	mockLedger    *mocks.MockLedgerServicer
	mockOrders    *mocks.MockOrderServicer
	mockMembers   *mocks.MockMemberServicer
	mockMenu      *mocks.MockMenuServicer
	mockStores    *mocks.MockStoreServicer
	mockNotes     *mocks.MockNoteServicer
	mockReports   *mocks.MockReportServicer
	shopkeeperJWT string
	adminJWT      string
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	mockCtrl := gomock.NewController(s.T())

	s.mockAuth = mocks.NewMockAuthServicer(mockCtrl)
	s.mockLedger = mocks.NewMockLedgerServicer(mockCtrl)
	s.mockOrders = mocks.NewMockOrderServicer(mockCtrl)
	s.mockMembers = mocks.NewMockMemberServicer(mockCtrl)
	s.mockMenu = mocks.NewMockMenuServicer(mockCtrl)
	s.mockStores = mocks.NewMockStoreServicer(mockCtrl)
	s.mockNotes = mocks.NewMockNoteServicer(mockCtrl)
	s.mockReports = mocks.NewMockReportServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	router, err := New(RouterArgs{
		Logger:        logger.New(io.Discard),
		AuthService:   s.mockAuth,
		LedgerService: s.mockLedger,
		OrderService:  s.mockOrders,
		MemberService: s.mockMembers,
		MenuService:   s.mockMenu,
		StoreService:  s.mockStores,
		NoteService:   s.mockNotes,
		ReportService: s.mockReports,
		JWTSecretKey:  s.jwtSecret,
	})
	s.Require().NoError(err)
	s.router = router

	s.shopkeeperJWT, err = tokens.GenerateStaffJWT("barista", domain.RoleShopkeeper, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	s.adminJWT, err = tokens.GenerateStaffJWT("owner", domain.RoleAdmin, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
}

// do выполняет запрос и возвращает ответ. Тело ответа закрывается вызывающим.
func (s *HandlerTestSuite) do(
	method, url string,
	body io.Reader,
	opts ...func(*testutils.RequestOptions),
) *http.Response {
	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: method,
		URL:    RouteGroup + url,
		Body:   body,
	}, opts...)
	s.Require().NoError(err)
	return res
}

type RouterTestSuite struct {
	HandlerTestSuite
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) TestAuthRequired() {
	expired, err := tokens.GenerateStaffJWT("barista", domain.RoleShopkeeper, -time.Minute, s.jwtSecret)
	s.Require().NoError(err)
	foreign, err := tokens.GenerateStaffJWT("barista", domain.RoleAdmin, time.Hour, []byte("other secret"))
	s.Require().NoError(err)

	cases := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "expired token", token: expired},
		{name: "foreign secret", token: foreign},
		{name: "garbage", token: "not.a.jwt"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			var opts []func(*testutils.RequestOptions)
			if tc.token != "" {
				opts = append(opts, testutils.WithBearer(tc.token))
			}
			res := s.do(http.MethodGet, StoresRoute, nil, opts...)
			defer res.Body.Close()
			s.Equal(http.StatusUnauthorized, res.StatusCode)
		})
	}
}

func (s *RouterTestSuite) TestAdminRoutesRequireAdminRole() {
	s.mockMenu.EXPECT().List(gomock.Any(), gomock.Nil()).Return([]domain.MenuItem{}, nil).Times(1)
	s.mockMembers.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	res := s.do(http.MethodGet, AdminMenuRoute, nil, testutils.WithBearer(s.shopkeeperJWT))
	res.Body.Close()
	s.Equal(http.StatusForbidden, res.StatusCode)

	res = s.do(http.MethodDelete, "/members/m-1", nil, testutils.WithBearer(s.shopkeeperJWT))
	res.Body.Close()
	s.Equal(http.StatusForbidden, res.StatusCode)

	res = s.do(http.MethodGet, AdminMenuRoute, nil, testutils.WithBearer(s.adminJWT))
	res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
}

func (s *RouterTestSuite) TestStores() {
	s.mockStores.EXPECT().List(gomock.Any()).Return([]domain.Store{{ID: "s-1", Name: "Центральная"}}, nil)

	res := s.do(http.MethodGet, StoresRoute, nil, testutils.WithBearer(s.shopkeeperJWT))
	var stores []StoreResponse
	s.Require().NoError(testutils.DecodeJSON(res, &stores))
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal([]StoreResponse{{ID: "s-1", Name: "Центральная"}}, stores)
}

func (s *RouterTestSuite) TestUnknownReport() {
	s.mockReports.EXPECT().Report(gomock.Any(), "salaries", 0).
		Return(nil, domain.ErrUnknownReport)
	s.mockReports.EXPECT().Report(gomock.Any(), "revenue-trend", 7).
		Return([]domain.RevenueTrend{}, nil)

	res := s.do(http.MethodGet, "/admin/reports/salaries", nil, testutils.WithBearer(s.adminJWT))
	res.Body.Close()
	s.Equal(http.StatusNotFound, res.StatusCode)

	res = s.do(http.MethodGet, "/admin/reports/revenue-trend?days=7", nil, testutils.WithBearer(s.adminJWT))
	res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
}
