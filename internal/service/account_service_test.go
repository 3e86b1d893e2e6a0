package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sui_reward_bot/internal/cache"
	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/reward"

	"github.com/shopspring/decimal"
)

// фейковый леджер в памяти
type fakeStore struct {
	accounts map[int64]*domain.Account

	upsertErr  error
	creditErr  error
	upserts    int
	creditCall int
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[int64]*domain.Account)}
}

func (f *fakeStore) GetByID(_ context.Context, userID int64) (*domain.Account, error) {
	acc, ok := f.accounts[userID]
	if !ok {
		return nil, nil
	}
	return acc.Clone(), nil
}

func (f *fakeStore) Upsert(_ context.Context, acc *domain.Account) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	f.accounts[acc.UserID] = acc.Clone()
	return nil
}

func (f *fakeStore) CreditReferrer(_ context.Context, referrerID int64, amount decimal.Decimal) (bool, error) {
	f.creditCall++
	if f.creditErr != nil {
		return false, f.creditErr
	}
	acc, ok := f.accounts[referrerID]
	if !ok {
		return false, nil
	}
	acc.Balance = acc.Balance.Add(amount)
	acc.TotalEarned = acc.TotalEarned.Add(amount)
	acc.ReferralCount++
	return true, nil
}

func (f *fakeStore) TopByTotalEarned(_ context.Context, k int) ([]domain.LeaderboardEntry, error) {
	var out []domain.LeaderboardEntry
	for _, acc := range f.accounts {
		out = append(out, domain.LeaderboardEntry{Username: acc.Username, TotalEarned: acc.TotalEarned})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func newService(store *fakeStore) (*AccountService, *cache.AccountCache) {
	c := cache.NewAccountCache(100, time.Minute)
	return NewAccountService(store, c, reward.DefaultSchedule()), c
}

func TestGetOrCreate_NewAccount(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)

	acc, created, err := svc.GetOrCreate(context.Background(), 1, "alice", nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !created {
		t.Fatalf("аккаунт должен быть создан")
	}
	if !acc.Balance.IsZero() {
		t.Fatalf("новичок без реферала стартует с нулем, баланс %s", acc.Balance)
	}
	if store.accounts[1] == nil {
		t.Fatalf("аккаунт должен попасть в базу")
	}

	// повторный вызов не создает заново
	_, created, err = svc.GetOrCreate(context.Background(), 1, "alice", nil)
	if err != nil || created {
		t.Fatalf("повторный вызов не должен создавать аккаунт")
	}
}

func TestGetOrCreate_ImmediateClaimAllowed(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)

	_, _, err := svc.GetOrCreate(context.Background(), 1, "alice", nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// таймеры новичка в прошлом - клейм проходит сразу
	res, err := svc.Claim(context.Background(), 1)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("первый клейм нового аккаунта должен пройти")
	}
}

func TestClaim_RejectedWithinWindow_NoMutation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()

	_, _, _ = svc.GetOrCreate(ctx, 1, "alice", nil)

	first, _ := svc.Claim(ctx, 1)
	if !first.Accepted {
		t.Fatalf("первый клейм должен пройти")
	}
	upsertsAfterFirst := store.upserts

	second, err := svc.Claim(ctx, 1)
	if err != nil {
		t.Fatalf("отказ по кулдауну - не ошибка: %v", err)
	}
	if second.Accepted {
		t.Fatalf("клейм внутри окна должен отклоняться")
	}
	if second.Remaining <= 0 {
		t.Fatalf("в отказе должно быть оставшееся время")
	}
	if store.upserts != upsertsAfterFirst {
		t.Fatalf("отказ не должен писать в базу")
	}
	if !store.accounts[1].Balance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("баланс не должен меняться при отказе: %s", store.accounts[1].Balance)
	}
}

func TestClaim_StoreFirstThenCache(t *testing.T) {
	store := newFakeStore()
	svc, c := newService(store)
	ctx := context.Background()

	_, _, _ = svc.GetOrCreate(ctx, 1, "alice", nil)

	// база падает - кэш не должен получить новое значение
	store.upsertErr = errors.New("база лежит")
	_, err := svc.Claim(ctx, 1)
	if err == nil {
		t.Fatalf("ошибка базы должна всплыть")
	}

	cached := c.Get(1)
	if cached != nil && !cached.Balance.IsZero() {
		t.Fatalf("кэш обновился без успешной записи в базу: %s", cached.Balance)
	}
}

func TestReferral_CreditsBothSides(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()
	s := svc.Schedule()

	_, _, _ = svc.GetOrCreate(ctx, 10, "referrer", nil)
	refBefore := store.accounts[10].Balance

	referrerID := int64(10)
	acc, _, err := svc.GetOrCreate(ctx, 20, "referee", &referrerID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if !acc.Balance.Equal(s.ReferralAmount) {
		t.Fatalf("новичок должен получить бонус %s, баланс %s", s.ReferralAmount, acc.Balance)
	}
	if acc.ReferredBy == nil || *acc.ReferredBy != 10 {
		t.Fatalf("referred_by не выставлен")
	}

	referrer := store.accounts[10]
	if !referrer.Balance.Equal(refBefore.Add(s.ReferralAmount)) {
		t.Fatalf("пригласивший должен получить бонус, баланс %s", referrer.Balance)
	}
	if referrer.ReferralCount != 1 {
		t.Fatalf("счетчик рефералов должен стать 1, стал %d", referrer.ReferralCount)
	}
}

func TestReferral_SelfNeverCredits(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()

	// прогреем "реферера" = самого себя нельзя, аккаунта еще нет;
	// создадим сначала и удостоверимся что второй заход с самим собой
	// в качестве пригласившего ничего не дает
	self := int64(5)
	acc, _, err := svc.GetOrCreate(ctx, 5, "loner", &self)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !acc.Balance.IsZero() {
		t.Fatalf("самоприглашение не должно давать бонус")
	}
	if acc.ReferralCount != 0 {
		t.Fatalf("счетчик рефералов не должен расти")
	}
	if acc.ReferredBy != nil {
		t.Fatalf("referred_by не должен выставляться")
	}
}

func TestReferral_UnknownReferrerIgnored(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()

	ghost := int64(999)
	acc, _, err := svc.GetOrCreate(ctx, 1, "alice", &ghost)
	if err != nil {
		t.Fatalf("висящий реферер не должен ломать создание: %v", err)
	}
	if !acc.Balance.IsZero() || acc.ReferredBy != nil {
		t.Fatalf("бонус за несуществующего реферера начисляться не должен")
	}
}

func TestReferral_PartialFailureKeepsRefereeBonus(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()
	s := svc.Schedule()

	_, _, _ = svc.GetOrCreate(ctx, 10, "referrer", nil)

	// начисление рефереру падает уже после сохранения новичка
	store.creditErr = errors.New("база лежит")

	referrerID := int64(10)
	acc, _, err := svc.GetOrCreate(ctx, 20, "referee", &referrerID)
	if err != nil {
		t.Fatalf("сбой начисления рефереру не должен всплывать: %v", err)
	}

	// новичок бонус не теряет, отката нет
	if !acc.Balance.Equal(s.ReferralAmount) {
		t.Fatalf("бонус новичка не должен откатываться: %s", acc.Balance)
	}
	if store.creditCall == 0 {
		t.Fatalf("начисление рефереру должно быть предпринято")
	}
	if store.accounts[10].ReferralCount != 0 {
		t.Fatalf("реферер при сбое ничего не получает")
	}
}

func TestCreditReferrer_SerializedWithRewardPath(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()

	_, _, _ = svc.GetOrCreate(ctx, 10, "referrer", nil)

	// пока замок реферера занят (например его же клеймом),
	// начисление обязано ждать, иначе клейм затрет его своим Upsert
	unlock := svc.locks.lock(10)
	done := make(chan struct{})
	go func() {
		svc.creditReferrer(ctx, 10)
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("начисление рефереру прошло мимо замка пользователя")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("начисление не дождалось освобождения замка")
	}

	if store.creditCall != 1 {
		t.Fatalf("ожидалось одно начисление, было %d", store.creditCall)
	}
}

func TestSetWallet(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()

	_, _, _ = svc.GetOrCreate(ctx, 1, "alice", nil)

	if err := svc.SetWallet(ctx, 1, "short"); err != ErrInvalidWallet {
		t.Fatalf("короткий адрес должен отклоняться, получили %v", err)
	}

	addr := "0x337c26191d7d2874ffbca5911a2dd1126b4ceaa12a279f1d232b7856da6ccd88"
	if err := svc.SetWallet(ctx, 1, addr); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if store.accounts[1].Wallet != addr {
		t.Fatalf("кошелек не сохранился")
	}
}

func TestRequestWithdraw_EligibleGetsRequestID(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()
	s := svc.Schedule()

	_, _, _ = svc.GetOrCreate(ctx, 1, "alice", nil)

	res, err := svc.RequestWithdraw(ctx, 1)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if res.Check.Status != reward.WithdrawNoWallet {
		t.Fatalf("без кошелька статус NoWallet, получили %d", res.Check.Status)
	}
	if res.RequestID != "" {
		t.Fatalf("без права на вывод заявка не создается")
	}

	acc := store.accounts[1]
	acc.Wallet = "0x337c26191d7d2874ffbca5911a2dd1126b4ceaa1"
	acc.ReferralCount = s.MinReferrals
	acc.Balance = s.MinWithdraw
	balanceBefore := acc.Balance

	res, err = svc.RequestWithdraw(ctx, 1)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if res.Check.Status != reward.WithdrawEligible {
		t.Fatalf("ожидался Eligible, получили %d", res.Check.Status)
	}
	if res.RequestID == "" {
		t.Fatalf("заявке должен присваиваться request id")
	}
	// заявка ничего не списывает
	if !store.accounts[1].Balance.Equal(balanceBefore) {
		t.Fatalf("заявка на вывод не должна трогать баланс")
	}
}

func TestResolve_ReadThrough(t *testing.T) {
	store := newFakeStore()
	svc, c := newService(store)
	ctx := context.Background()

	now := time.Now()
	store.accounts[7] = &domain.Account{
		UserID: 7, Username: "bob",
		Balance: decimal.NewFromInt(3), TotalEarned: decimal.NewFromInt(3),
		LastClaimAt: now, LastDailyAt: now, JoinedAt: now,
	}

	// промах кэша наполняет кэш из базы
	acc, err := svc.Get(ctx, 7)
	if err != nil || acc == nil {
		t.Fatalf("ожидали аккаунт из базы: %v", err)
	}
	if c.Get(7) == nil {
		t.Fatalf("после промаха кэш должен наполниться")
	}

	// следующий Get идет из кэша даже если базу подменить
	store.accounts[7].Username = "changed"
	acc, _ = svc.Get(ctx, 7)
	if acc.Username != "bob" {
		t.Fatalf("второе чтение должно прийти из кэша")
	}
}
