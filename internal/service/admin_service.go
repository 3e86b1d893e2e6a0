package service

import (
	"context"
	"strings"
	"time"

	"sui_reward_bot/internal/cache"
	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/logger"

	"github.com/shopspring/decimal"
)

const (
	// пауза между сообщениями рассылки - примерно 20 в секунду,
	// чтобы не упереться в лимиты Telegram
	broadcastDelay = 50 * time.Millisecond

	// таймауты рассылки: на выборку получателей и на одну операцию леджера
	broadcastTargetsTimeout = time.Minute
	broadcastItemTimeout    = 5 * time.Second
)

// AdminStore - операции леджера, нужные только оператору
type AdminStore interface {
	Stats(ctx context.Context, activeSince time.Time) (*domain.Stats, error)
	AddBalance(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	Delete(ctx context.Context, userID int64) (bool, error)
	AllIDs(ctx context.Context) ([]int64, error)
	TouchCooldowns(ctx context.Context, userID int64, to time.Time) error
}

// AdminService - проксирующие операции для оператора: статистика,
// ручные начисления, удаление аккаунтов, цели для рассылки.
type AdminService struct {
	store AdminStore
	cache *cache.AccountCache

	itemDelay time.Duration
}

func NewAdminService(store AdminStore, accCache *cache.AccountCache) *AdminService {
	return &AdminService{store: store, cache: accCache, itemDelay: broadcastDelay}
}

// BotStats - агрегаты для /stats
type BotStats struct {
	domain.Stats
	CachedUsers int
}

// Stats собирает статистику: всего пользователей, активных за сутки,
// суммарный заработок, размер кэша
func (s *AdminService) Stats(ctx context.Context) (*BotStats, error) {
	stats, err := s.store.Stats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &BotStats{Stats: *stats, CachedUsers: s.cache.Len()}, nil
}

// AddBalance вручную начисляет пользователю. Кэшированная копия после
// прямого UPDATE устарела - выкидываем.
func (s *AdminService) AddBalance(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	ok, err := s.store.AddBalance(ctx, userID, amount)
	if err != nil {
		return false, err
	}
	if ok {
		s.cache.Invalidate(userID)
		logger.Info("ручное начисление", "user_id", userID, "amount", amount)
	}
	return ok, nil
}

// RemoveAccount удаляет аккаунт и его кэшированную копию. Единственный
// путь удаления записи из леджера.
func (s *AdminService) RemoveAccount(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.store.Delete(ctx, userID)
	if err != nil {
		return false, err
	}
	if ok {
		s.cache.Invalidate(userID)
		logger.Info("аккаунт удален оператором", "user_id", userID)
	}
	return ok, nil
}

// BroadcastTargets возвращает всех получателей рассылки
func (s *AdminService) BroadcastTargets(ctx context.Context) ([]int64, error) {
	return s.store.AllIDs(ctx)
}

// MarkNotified помечает таймеры пользователя текущим временем перед
// отправкой рассылки, чтобы планировщик не дослал свое следом
func (s *AdminService) MarkNotified(ctx context.Context, userID int64) {
	if err := s.store.TouchCooldowns(ctx, userID, time.Now()); err != nil {
		logger.Warn("не смогли обновить таймеры перед рассылкой", "user_id", userID, "error", err)
		return
	}
	s.cache.Invalidate(userID)
}

// BroadcastReport - итог рассылки
type BroadcastReport struct {
	Total   int
	Success int
	Failed  int
	Blocked int
	Aborted bool
}

// Broadcast шлет текст всем пользователям леджера. Рассылка на тысячи
// получателей живет куда дольше таймаута одного обработчика, поэтому
// контекст вызывающего сюда не передается: выборка получателей и каждая
// операция леджера идут на собственных коротких таймаутах, остановку
// дает stop. Перед каждой отправкой таймеры пользователя помечаются
// текущим временем, чтобы планировщик не пришел следом со своим
// уведомлением. onProgress зовется с done=0 до первой отправки и
// дальше после каждой.
func (s *AdminService) Broadcast(msgr Messenger, body string, stop <-chan struct{}, onProgress func(done, total int)) (BroadcastReport, error) {
	tctx, cancel := context.WithTimeout(context.Background(), broadcastTargetsTimeout)
	targets, err := s.BroadcastTargets(tctx)
	cancel()
	if err != nil {
		return BroadcastReport{}, err
	}

	rep := BroadcastReport{Total: len(targets)}
	if rep.Total == 0 {
		return rep, nil
	}

	logger.Info("начинаем рассылку", "targets", rep.Total)
	if onProgress != nil {
		onProgress(0, rep.Total)
	}

	for i, userID := range targets {
		select {
		case <-stop:
			logger.Warn("рассылка прервана остановкой", "sent", rep.Success)
			rep.Aborted = true
			return rep, nil
		default:
		}

		ictx, cancel := context.WithTimeout(context.Background(), broadcastItemTimeout)
		s.MarkNotified(ictx, userID)
		cancel()

		if err := msgr.SendMessage(userID, body); err != nil {
			if isBlockedErr(err) {
				rep.Blocked++
			} else {
				logger.Warn("не доставили рассылку", "user_id", userID, "error", err)
				rep.Failed++
			}
		} else {
			rep.Success++
		}

		if onProgress != nil {
			onProgress(i+1, rep.Total)
		}

		if s.itemDelay > 0 {
			time.Sleep(s.itemDelay)
		}
	}

	logger.Info("рассылка завершена",
		"sent", rep.Success, "failed", rep.Failed, "blocked", rep.Blocked)
	return rep, nil
}

// заблокировал бота или удалил аккаунт - обычная потеря, не сбой
func isBlockedErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "blocked") || strings.Contains(msg, "deactivated")
}
