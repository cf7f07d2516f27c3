package service

import (
	"strings"
	"testing"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	authService *AuthService
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) SetupTest() {
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.authService, err = NewAuthService([]byte("secret"),
		StaffCredentials{Username: "shop", Password: "shop-pass", Role: domain.RoleShopkeeper},
		StaffCredentials{Username: "admin", Password: string(adminHash), Role: domain.RoleAdmin},
		StaffCredentials{Username: "", Password: "", Role: domain.RoleAdmin},
	)
	s.Require().NoError(err)
}

func (s *AuthServiceTestSuite) TestLogin() {
	cases := []struct {
		name     string
		username string
		password string
		wantRole domain.RoleType
		wantErr  error
	}{
		{name: "shopkeeper", username: "shop", password: "shop-pass", wantRole: domain.RoleShopkeeper},
		{name: "admin", username: "admin", password: "admin-pass", wantRole: domain.RoleAdmin},
		{name: "wrong password", username: "admin", password: "shop-pass", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown user", username: "root", password: "admin-pass", wantErr: domain.ErrInvalidCredentials},
		{name: "empty credentials", username: "", password: "", wantErr: domain.ErrInvalidCredentials},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			token, role, err := s.authService.Login(tc.username, tc.password)
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				s.Empty(token)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.wantRole, role)

			claims, err := s.authService.ParseToken(token)
			s.Require().NoError(err)
			s.Equal(tc.wantRole, claims.Role)
			s.Equal(tc.username, claims.Subject)
		})
	}
}

func (s *AuthServiceTestSuite) TestNewAuthServiceRejectsLongPassword() {
	_, err := NewAuthService([]byte("secret"),
		StaffCredentials{Username: "shop", Password: strings.Repeat("p", 80), Role: domain.RoleShopkeeper},
	)
	s.Require().Error(err)
}
