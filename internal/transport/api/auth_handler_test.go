package api

import (
	"net/http"
	"testing"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/transport/api/testutils"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	HandlerTestSuite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) TestLogin() {
	s.mockAuth.EXPECT().Login("owner", "secret-pass").Return("token-value", domain.RoleAdmin, nil)
	s.mockAuth.EXPECT().Login("owner", "wrong-pass").Return("", domain.RoleType(""), domain.ErrInvalidCredentials)

	cases := []struct {
		name       string
		payload    map[string]any
		wantStatus int
		wantHeader string
	}{
		{
			name:       "all ok",
			payload:    map[string]any{"username": "owner", "password": "secret-pass"},
			wantStatus: http.StatusOK,
			wantHeader: "Bearer token-value",
		},
		{
			name:       "invalid credentials",
			payload:    map[string]any{"username": "owner", "password": "wrong-pass"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no password",
			payload:    map[string]any{"username": "owner"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "username over byte limit",
			payload: map[string]any{
				"username": testutils.GenerateOverBytesUnderRunes(17),
				"password": "secret-pass",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.do(http.MethodPost, LoginRoute, testutils.JSONBody(tc.payload), testutils.WithJSON())
			defer res.Body.Close()
			s.Equal(tc.wantStatus, res.StatusCode)
			s.Equal(tc.wantHeader, res.Header.Get("Authorization"))
		})
	}
}
