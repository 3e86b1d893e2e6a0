package reward

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schedule - тарифы наград. Загружается один раз на старте и дальше
// не меняется, передается в функции движка явно.
type Schedule struct {
	ClaimAmount    decimal.Decimal
	DailyAmount    decimal.Decimal
	ReferralAmount decimal.Decimal
	MinWithdraw    decimal.Decimal
	NetworkFee     decimal.Decimal
	MinReferrals   int
	ClaimWindow    time.Duration
	DailyWindow    time.Duration
}

// DefaultSchedule возвращает тарифы по умолчанию:
// клейм 1 SUI раз в 5 минут, дейлик 5 SUI раз в сутки, 3 SUI за реферала,
// вывод от 36 SUI при 10+ рефералах, комиссия сети 2 SUI.
func DefaultSchedule() Schedule {
	return Schedule{
		ClaimAmount:    decimal.NewFromInt(1),
		DailyAmount:    decimal.NewFromInt(5),
		ReferralAmount: decimal.NewFromInt(3),
		MinWithdraw:    decimal.NewFromInt(36),
		NetworkFee:     decimal.NewFromInt(2),
		MinReferrals:   10,
		ClaimWindow:    5 * time.Minute,
		DailyWindow:    24 * time.Hour,
	}
}
