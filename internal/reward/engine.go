package reward

import (
	"time"

	"sui_reward_bot/internal/domain"

	"github.com/shopspring/decimal"
)

// Результат попытки забрать награду. Если кулдаун не прошел - Accepted=false
// и в Remaining лежит сколько осталось ждать, аккаунт не меняется.
type Result struct {
	Accepted  bool
	Remaining time.Duration
	Account   *domain.Account // обновленная копия, только при Accepted
}

// TryClaim проверяет кулдаун клейма и при успехе возвращает копию аккаунта
// с начисленной наградой. Исходный аккаунт не трогаем.
func TryClaim(acc *domain.Account, now time.Time, s Schedule) Result {
	if elapsed := now.Sub(acc.LastClaimAt); elapsed < s.ClaimWindow {
		return Result{Remaining: s.ClaimWindow - elapsed}
	}

	updated := acc.Clone()
	updated.Balance = updated.Balance.Add(s.ClaimAmount)
	updated.TotalEarned = updated.TotalEarned.Add(s.ClaimAmount)
	updated.LastClaimAt = now
	return Result{Accepted: true, Account: updated}
}

// TryDaily - то же самое для дневного бонуса
func TryDaily(acc *domain.Account, now time.Time, s Schedule) Result {
	if elapsed := now.Sub(acc.LastDailyAt); elapsed < s.DailyWindow {
		return Result{Remaining: s.DailyWindow - elapsed}
	}

	updated := acc.Clone()
	updated.Balance = updated.Balance.Add(s.DailyAmount)
	updated.TotalEarned = updated.TotalEarned.Add(s.DailyAmount)
	updated.LastDailyAt = now
	return Result{Accepted: true, Account: updated}
}

// SeedReferral засеивает нового пользователя реферальным бонусом.
// Вызывается ровно один раз, при создании аккаунта. Самоприглашение
// отсекается до записи чего-либо.
func SeedReferral(referee *domain.Account, referrerID int64, s Schedule) error {
	if referee.UserID == referrerID {
		return domain.ErrSelfReferral
	}

	referee.Balance = s.ReferralAmount
	referee.TotalEarned = s.ReferralAmount
	referee.ReferredBy = &referrerID
	return nil
}

// Статус проверки на вывод. Проверки идут строго в этом порядке:
// кошелек -> рефералы -> баланс.
type WithdrawStatus int

const (
	WithdrawNoWallet WithdrawStatus = iota
	WithdrawNotEnoughReferrals
	WithdrawNotEnoughBalance
	WithdrawEligible
)

type WithdrawCheck struct {
	Status WithdrawStatus

	// заполнены для NotEnoughReferrals
	ReferralsHave int
	ReferralsNeed int

	// заполнены для NotEnoughBalance / Eligible
	BalanceHave    decimal.Decimal
	BalanceNeed    decimal.Decimal
	AmountAfterFee decimal.Decimal
}

// CheckWithdraw проверяет право на вывод, ничего не меняя в леджере.
// Сам вывод - заявка на ручную обработку, автоматических переводов нет.
func CheckWithdraw(acc *domain.Account, s Schedule) WithdrawCheck {
	if !acc.HasWallet() {
		return WithdrawCheck{Status: WithdrawNoWallet}
	}

	if acc.ReferralCount < s.MinReferrals {
		return WithdrawCheck{
			Status:        WithdrawNotEnoughReferrals,
			ReferralsHave: acc.ReferralCount,
			ReferralsNeed: s.MinReferrals,
		}
	}

	if acc.Balance.LessThan(s.MinWithdraw) {
		return WithdrawCheck{
			Status:      WithdrawNotEnoughBalance,
			BalanceHave: acc.Balance,
			BalanceNeed: s.MinWithdraw,
		}
	}

	return WithdrawCheck{
		Status:         WithdrawEligible,
		BalanceHave:    acc.Balance,
		AmountAfterFee: acc.Balance.Sub(s.NetworkFee),
	}
}
