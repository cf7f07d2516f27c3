package repoargs

import (
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
)

type CreateMember struct {
	Phone    string
	Name     string
	Birthday *time.Time
	Gender   domain.GenderType
	StoreID  string
}

// UpdateMember частичное обновление профиля. nil поля не изменяются. Баланс здесь не обновляется никогда.
type UpdateMember struct {
	Phone    *string
	Name     *string
	Birthday *time.Time
	Gender   *domain.GenderType
}

type MemberFilter struct {
	StoreID string
	Phone   string
	Limit   uint
}
