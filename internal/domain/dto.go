package domain

type TransactionType string

const (
	TransactionDeposit     TransactionType = "deposit"
	TransactionConsumption TransactionType = "consumption"
)

func (t TransactionType) Valid() bool {
	return t == TransactionDeposit || t == TransactionConsumption
}

type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "cash"
	PaymentMemberBalance PaymentMethod = "member_balance"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentMemberBalance
}

type OrderStatusType string

const (
	OrderStatusPending        OrderStatusType = "pending"
	OrderStatusCompleted      OrderStatusType = "completed"
	OrderStatusCancelled      OrderStatusType = "cancelled"
	OrderStatusPaymentMissing OrderStatusType = "payment_missing"
)

type GenderType string

const (
	GenderMale   GenderType = "male"
	GenderFemale GenderType = "female"
	GenderOther  GenderType = "other"
)

func (g GenderType) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type RoleType string

const (
	RoleShopkeeper RoleType = "shopkeeper"
	RoleAdmin      RoleType = "admin"
)

func (r RoleType) Valid() bool {
	return r == RoleShopkeeper || r == RoleAdmin
}

// AttemptState состояние отдельной попытки изменить баланс участника.
type AttemptState string

const (
	AttemptValidating AttemptState = "validating"
	AttemptRejected   AttemptState = "rejected"
	AttemptWriting    AttemptState = "writing"
	AttemptCommitted  AttemptState = "committed"
	AttemptUncertain  AttemptState = "uncertain"
	AttemptNotApplied AttemptState = "not_applied"
)
