package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidClaims = errors.New("invalid claims")
)

// StaffClaims сессия сотрудника. Subject - логин.
type StaffClaims struct {
	jwt.RegisteredClaims
	Role domain.RoleType `json:"role"`
}

func GenerateStaffJWT(username string, role domain.RoleType, expire time.Duration, key []byte) (string, error) {
	now := time.Now()
	claims := StaffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
		Role: role,
	}
	token, err := generateJWT(claims, key)
	if err != nil {
		return "", fmt.Errorf("generating staff jwt token: %s", err.Error())
	}
	return token, nil
}

func ValidateStaffJWT(tokenString string, key []byte) (*StaffClaims, error) {
	token, err := validateJWT(tokenString, new(StaffClaims), key)
	if err != nil {
		return nil, fmt.Errorf("validating staff jwt token: %w", err)
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !claims.Role.Valid() {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func generateJWT(claims jwt.Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("generating jwt token: %s", err.Error())
	}

	return tokenString, nil
}

func validateJWT(tokenString string, claims jwt.Claims, key []byte) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("parsing jwt token: %w", err)
	}

	return token, nil
}
