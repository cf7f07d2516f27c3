package repoargs

import "github.com/shopspring/decimal"

type CreateMenuItem struct {
	Name        string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Category    string
	ImageURL    string
	IsAvailable bool
}

// UpdateMenuItem частичное обновление позиции меню. IsAvailable обязателен.
type UpdateMenuItem struct {
	Name        *string
	Price       *decimal.Decimal
	Cost        *decimal.Decimal
	Category    *string
	ImageURL    *string
	IsAvailable bool
}

type UpsertNote struct {
	MemberID string
	Category string
	Content  string
}
