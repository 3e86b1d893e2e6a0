package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account - запись леджера на одного пользователя.
// Баланс и total_earned хранятся как NUMERIC(20,8), считаем через decimal
// чтобы не ловить ошибки плавающей точки на деньгах.
type Account struct {
	UserID        int64           `db:"user_id" json:"user_id"`
	Username      string          `db:"username" json:"username"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	TotalEarned   decimal.Decimal `db:"total_earned" json:"total_earned"` // только растет, для лидерборда
	ReferralCount int             `db:"referral_count" json:"referral_count"`
	ReferredBy    *int64          `db:"referred_by" json:"referred_by,omitempty"` // слабая ссылка, может висеть если реферер удален
	LastClaimAt   time.Time       `db:"last_claim_at" json:"last_claim_at"`
	LastDailyAt   time.Time       `db:"last_daily_at" json:"last_daily_at"`
	Wallet        string          `db:"wallet" json:"wallet,omitempty"` // пустая строка = кошелек не привязан
	JoinedAt      time.Time       `db:"joined_at" json:"joined_at"`
}

// Clone возвращает независимую копию записи (кэш отдает копии, не указатели
// на свое внутреннее состояние)
func (a *Account) Clone() *Account {
	cp := *a
	if a.ReferredBy != nil {
		ref := *a.ReferredBy
		cp.ReferredBy = &ref
	}
	return &cp
}

// HasWallet проверяет, привязан ли кошелек
func (a *Account) HasWallet() bool {
	return a.Wallet != ""
}

// Тип награды, по которому считается кулдаун
type RewardKind string

const (
	RewardClaim RewardKind = "claim"
	RewardDaily RewardKind = "daily"
)

// Статистика по всем аккаунтам (для админа)
type Stats struct {
	TotalUsers  int64           `json:"total_users"`
	ActiveUsers int64           `json:"active_users"` // активные за последние 24ч
	TotalEarned decimal.Decimal `json:"total_earned"`
}

// Строка лидерборда - топ по total_earned
type LeaderboardEntry struct {
	Username    string          `json:"username"`
	TotalEarned decimal.Decimal `json:"total_earned"`
}
