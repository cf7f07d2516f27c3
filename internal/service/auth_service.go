package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/service/psswd"
	"github.com/fsdevblog/cafe-pos/internal/service/tokens"
)

const JWTTokenExpire = 12 * time.Hour

// StaffCredentials учетные данные сотрудника из конфигурации. Пустой Username отключает вход для роли.
// Password может быть как открытым текстом, так и готовым bcrypt хешем.
type StaffCredentials struct {
	Username string
	Password string
	Role     domain.RoleType
}

// AuthService вход сотрудников по заданным в конфигурации логину и паролю.
type AuthService struct {
	credentials    []StaffCredentials
	jwtTokenSecret []byte
	hasher         psswd.PasswordHash
}

// NewAuthService хеширует пароли при создании, открытый текст в памяти не хранится.
func NewAuthService(jwtTokenSecret []byte, credentials ...StaffCredentials) (*AuthService, error) {
	a := AuthService{jwtTokenSecret: jwtTokenSecret}
	for _, cred := range credentials {
		if cred.Username == "" {
			continue
		}
		hash, err := a.hasher.HashPassword(cred.Password)
		if err != nil {
			return nil, fmt.Errorf("auth service for %s: %w", cred.Username, err)
		}
		cred.Password = hash
		a.credentials = append(a.credentials, cred)
	}
	return &a, nil
}

// Login проверяет пароль по каждой учетной записи, чтобы время ответа не зависело от логина, и выдает jwt с ролью.
func (a *AuthService) Login(username, password string) (string, domain.RoleType, error) {
	var role domain.RoleType
	for _, cred := range a.credentials {
		userOk := subtle.ConstantTimeCompare([]byte(username), []byte(cred.Username)) == 1
		passOk := a.hasher.ComparePassword(password, cred.Password)
		if userOk && passOk && role == "" {
			role = cred.Role
		}
	}
	if role == "" {
		return "", "", domain.ErrInvalidCredentials
	}

	token, err := tokens.GenerateStaffJWT(username, role, JWTTokenExpire, a.jwtTokenSecret)
	if err != nil {
		return "", "", fmt.Errorf("login: %w", err)
	}
	return token, role, nil
}

// ParseToken проверяет токен сессии и возвращает его claims.
func (a *AuthService) ParseToken(token string) (*tokens.StaffClaims, error) {
	claims, err := tokens.ValidateStaffJWT(token, a.jwtTokenSecret)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return claims, nil
}
