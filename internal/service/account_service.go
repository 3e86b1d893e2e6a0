package service

import (
	"context"
	"errors"
	"time"

	"sui_reward_bot/internal/cache"
	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/logger"
	"sui_reward_bot/internal/metrics"
	"sui_reward_bot/internal/reward"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// кошелек не похож на адрес - отдаем как отказ валидации, не как сбой
	ErrInvalidWallet = errors.New("неверный формат адреса кошелька")
)

// Store - то, что сервису нужно от леджера. Репозиторий на pgx реализует
// этот интерфейс, тесты подставляют фейк в памяти.
type Store interface {
	GetByID(ctx context.Context, userID int64) (*domain.Account, error)
	Upsert(ctx context.Context, acc *domain.Account) error
	CreditReferrer(ctx context.Context, referrerID int64, amount decimal.Decimal) (bool, error)
	TopByTotalEarned(ctx context.Context, k int) ([]domain.LeaderboardEntry, error)
}

// AccountService держит единственный санкционированный путь мутации:
// сначала успешная запись в базу, потом обновление кэша. Путей, которые
// обновляют кэш без записи в базу, нет.
type AccountService struct {
	store    Store
	cache    *cache.AccountCache
	schedule reward.Schedule

	// замок на пользователя: сериализует read-modify-write по одному id,
	// чтобы два конкурентных клейма не прошли проверку кулдауна оба
	locks userLocks

	// уведомление пригласившему о новом реферале, выставляется ботом
	referralNotify func(referrerID int64)

	now func() time.Time
}

func NewAccountService(store Store, accCache *cache.AccountCache, schedule reward.Schedule) *AccountService {
	return &AccountService{
		store:    store,
		cache:    accCache,
		schedule: schedule,
		now:      time.Now,
	}
}

// SetReferralNotifyCallback устанавливает уведомление пригласившему
func (s *AccountService) SetReferralNotifyCallback(fn func(referrerID int64)) {
	s.referralNotify = fn
}

// resolve - читающий путь: кэш, на промахе база с заполнением кэша.
// nil без ошибки значит "аккаунта нет, надо создавать".
func (s *AccountService) resolve(ctx context.Context, userID int64) (*domain.Account, error) {
	if acc := s.cache.Get(userID); acc != nil {
		return acc, nil
	}

	acc, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, nil
	}

	s.cache.Put(acc)
	return acc, nil
}

// save - единственный путь записи: база, затем кэш с пост-записи значением
func (s *AccountService) save(ctx context.Context, acc *domain.Account) error {
	if err := s.store.Upsert(ctx, acc); err != nil {
		return err
	}
	s.cache.Put(acc)
	return nil
}

// Get возвращает аккаунт или nil если пользователь еще не запускал бота
func (s *AccountService) Get(ctx context.Context, userID int64) (*domain.Account, error) {
	return s.resolve(ctx, userID)
}

// GetOrCreate отдает существующий аккаунт или создает новый. Таймеры
// наград новичку ставятся в прошлое, чтобы первый клейм и дейлик прошли
// сразу. referrerID учитывается только в момент создания.
// Возвращает (аккаунт, создан ли он этим вызовом, ошибка).
func (s *AccountService) GetOrCreate(ctx context.Context, userID int64, username string, referrerID *int64) (*domain.Account, bool, error) {
	acc, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if acc != nil {
		return acc, false, nil
	}

	now := s.now()
	acc = &domain.Account{
		UserID:      userID,
		Username:    username,
		Balance:     decimal.Zero,
		TotalEarned: decimal.Zero,
		LastClaimAt: now.Add(-2 * time.Hour),
		LastDailyAt: now.Add(-48 * time.Hour),
		JoinedAt:    now,
	}

	if referrerID != nil {
		s.applyReferral(ctx, acc, *referrerID)
	}

	if err := s.save(ctx, acc); err != nil {
		return nil, false, err
	}

	if acc.ReferredBy != nil {
		s.creditReferrer(ctx, *acc.ReferredBy)
	}

	return acc, true, nil
}

// applyReferral проверяет пригласившего и засеивает новичка бонусом.
// Любая проблема с реферером новичка не ломает - он просто создается
// без бонуса.
func (s *AccountService) applyReferral(ctx context.Context, acc *domain.Account, referrerID int64) {
	referrer, err := s.resolve(ctx, referrerID)
	if err != nil {
		logger.Error("не смогли проверить пригласившего", "referrer_id", referrerID, "error", err)
		return
	}
	if referrer == nil {
		logger.Warn("пригласивший не найден", "referrer_id", referrerID, "user_id", acc.UserID)
		return
	}

	if err := reward.SeedReferral(acc, referrerID, s.schedule); err != nil {
		logger.Warn("реферал отклонен", "user_id", acc.UserID, "error", err)
	}
}

// creditReferrer начисляет бонус пригласившему уже после того, как новичок
// сохранен. Если начисление упало - новичок бонус не теряет, откатов нет,
// только лог. Это осознанное окно несогласованности.
func (s *AccountService) creditReferrer(ctx context.Context, referrerID int64) {
	// под замком реферера: его конкурентный клейм читает запись целиком
	// и пишет обратно, без сериализации он затер бы начисление
	unlock := s.locks.lock(referrerID)
	defer unlock()

	ok, err := s.store.CreditReferrer(ctx, referrerID, s.schedule.ReferralAmount)
	if err != nil {
		logger.Error("начисление рефереру не прошло, не откатываем",
			"referrer_id", referrerID, "error", err)
		return
	}
	if !ok {
		logger.Warn("пригласивший исчез между проверкой и начислением", "referrer_id", referrerID)
		return
	}

	// реферер обновлен мимо кэша - копию надо выкинуть
	s.cache.Invalidate(referrerID)
	metrics.ReferralsTotal.Inc()

	if s.referralNotify != nil {
		go s.referralNotify(referrerID)
	}
}

// Claim пытается забрать пятиминутную награду
func (s *AccountService) Claim(ctx context.Context, userID int64) (reward.Result, error) {
	return s.applyTimed(ctx, userID, domain.RewardClaim)
}

// Daily пытается забрать дневной бонус
func (s *AccountService) Daily(ctx context.Context, userID int64) (reward.Result, error) {
	return s.applyTimed(ctx, userID, domain.RewardDaily)
}

func (s *AccountService) applyTimed(ctx context.Context, userID int64, kind domain.RewardKind) (reward.Result, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	acc, err := s.resolve(ctx, userID)
	if err != nil {
		return reward.Result{}, err
	}
	if acc == nil {
		return reward.Result{}, domain.ErrAccountNotFound
	}

	var res reward.Result
	switch kind {
	case domain.RewardDaily:
		res = reward.TryDaily(acc, s.now(), s.schedule)
	default:
		res = reward.TryClaim(acc, s.now(), s.schedule)
	}

	if !res.Accepted {
		return res, nil
	}

	if err := s.save(ctx, res.Account); err != nil {
		return reward.Result{}, err
	}

	if kind == domain.RewardDaily {
		metrics.DailiesTotal.Inc()
	} else {
		metrics.ClaimsTotal.Inc()
	}
	return res, nil
}

// SetWallet сохраняет адрес кошелька. Проверка чисто формальная -
// по-настоящему адрес никто не верифицирует, это зона ответственности
// пользователя.
func (s *AccountService) SetWallet(ctx context.Context, userID int64, address string) error {
	if !walletLooksValid(address) {
		return ErrInvalidWallet
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	acc, err := s.resolve(ctx, userID)
	if err != nil {
		return err
	}
	if acc == nil {
		return domain.ErrAccountNotFound
	}

	acc.Wallet = address
	return s.save(ctx, acc)
}

// минимальная проверка формы адреса, как в исходном боте: достаточно
// длинная строка и не команда
func walletLooksValid(address string) bool {
	return len(address) > 25 && address[0] != '/'
}

// WithdrawResult - результат заявки на вывод. RequestID присваивается
// только если все условия выполнены: по нему оператор находит заявку.
type WithdrawResult struct {
	Check     reward.WithdrawCheck
	Account   *domain.Account
	RequestID string
}

// RequestWithdraw проверяет право на вывод. Леджер не трогается: вывод -
// это заявка на ручную обработку, баланс не списывается.
func (s *AccountService) RequestWithdraw(ctx context.Context, userID int64) (WithdrawResult, error) {
	acc, err := s.resolve(ctx, userID)
	if err != nil {
		return WithdrawResult{}, err
	}
	if acc == nil {
		return WithdrawResult{}, domain.ErrAccountNotFound
	}

	check := reward.CheckWithdraw(acc, s.schedule)
	res := WithdrawResult{Check: check, Account: acc}

	if check.Status == reward.WithdrawEligible {
		res.RequestID = uuid.NewString()
		logger.Info("заявка на вывод",
			"request_id", res.RequestID,
			"user_id", userID,
			"amount", check.AmountAfterFee,
			"wallet", acc.Wallet)
	}

	return res, nil
}

// Leaderboard возвращает топ по total_earned
func (s *AccountService) Leaderboard(ctx context.Context, k int) ([]domain.LeaderboardEntry, error) {
	return s.store.TopByTotalEarned(ctx, k)
}

// Schedule отдает тарифы (боту для текстов сообщений)
func (s *AccountService) Schedule() reward.Schedule {
	return s.schedule
}
