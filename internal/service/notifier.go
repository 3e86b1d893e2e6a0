package service

import (
	"context"
	"sync"
	"time"

	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/logger"
	"sui_reward_bot/internal/metrics"
	"sui_reward_bot/internal/repository"
	"sui_reward_bot/internal/reward"
)

// Messenger - исходящий канал в Telegram. Планировщику нужны только
// эти два примитива, конкретный транспорт его не касается.
type Messenger interface {
	SendMessage(chatID int64, text string) error
	EditMessage(chatID int64, messageID int, text string) error
}

// LedgerScanner - путь скана леджера пачками по кулдаунам
type LedgerScanner interface {
	ScanStale(ctx context.Context, afterID int64, claimBefore, dailyBefore time.Time, limit int) ([]repository.StaleAccount, error)
}

// Deduper решает, можно ли пинговать пользователя: одна пара
// (пользователь, награда) - не чаще интервала повторного уведомления
type Deduper interface {
	TryMark(ctx context.Context, userID int64, kind domain.RewardKind) (bool, error)
}

const (
	claimReadyText = "🌟 Hey! Collect your bonus\nClaim it now!"
	dailyReadyText = "📅 Your daily bonus is ready!\nCome back to claim it!"

	// пауза между сообщениями, чтобы не упереться в лимиты Telegram
	perItemDelay = 50 * time.Millisecond
	passTimeout  = 10 * time.Minute
)

// NotificationScheduler - фоновый цикл: раз в интервал сканирует леджер
// пачками, находит аккаунты с открытым окном награды и шлет каждому не
// больше одного уведомления на окно. Любой одиночный сбой логируется и
// не прерывает проход.
type NotificationScheduler struct {
	scanner   LedgerScanner
	dedup     Deduper
	messenger Messenger
	schedule  reward.Schedule

	interval  time.Duration
	batchSize int
	itemDelay time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	running bool
	wg      sync.WaitGroup

	now func() time.Time
}

func NewNotificationScheduler(
	scanner LedgerScanner,
	dedup Deduper,
	messenger Messenger,
	schedule reward.Schedule,
	interval time.Duration,
	batchSize int,
) *NotificationScheduler {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &NotificationScheduler{
		scanner:   scanner,
		dedup:     dedup,
		messenger: messenger,
		schedule:  schedule,
		interval:  interval,
		batchSize: batchSize,
		itemDelay: perItemDelay,
		stop:      make(chan struct{}),
		now:       time.Now,
	}
}

// Start запускает цикл уведомлений. Блокируется до Stop, запускать в
// отдельной горутине.
func (n *NotificationScheduler) Start() {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return
	}
	n.running = true
	n.mu.Unlock()

	n.wg.Add(1)
	defer n.wg.Done()

	logger.Info("запуск планировщика уведомлений",
		"interval", n.interval, "batch_size", n.batchSize)

	// первый проход сразу, дальше по тикеру
	n.runPass()

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.runPass()
		case <-n.stop:
			logger.Info("остановка планировщика уведомлений")
			return
		}
	}
}

// Stop останавливает цикл. Текущее уведомление доотправляется, посреди
// пачки никого не убиваем.
func (n *NotificationScheduler) Stop() {
	n.mu.Lock()
	if n.running {
		close(n.stop)
		n.running = false
	}
	n.mu.Unlock()
	n.wg.Wait()
}

// runPass - один проход скана. Ошибка прохода только логируется:
// планировщик обязан пережить любой сбой и попробовать в следующий раз.
func (n *NotificationScheduler) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	now := n.now()
	claimBefore := now.Add(-n.schedule.ClaimWindow)
	dailyBefore := now.Add(-n.schedule.DailyWindow)

	var afterID int64
	notified := 0

	for {
		batch, err := n.scanner.ScanStale(ctx, afterID, claimBefore, dailyBefore, n.batchSize)
		if err != nil {
			logger.Error("скан леджера не удался", "error", err)
			return
		}
		if len(batch) == 0 {
			break
		}

		for _, acc := range batch {
			select {
			case <-n.stop:
				return
			default:
			}

			if acc.LastClaimAt.Before(claimBefore) {
				if n.notifyOne(ctx, acc.UserID, domain.RewardClaim, claimReadyText) {
					notified++
				}
			}
			if acc.LastDailyAt.Before(dailyBefore) {
				if n.notifyOne(ctx, acc.UserID, domain.RewardDaily, dailyReadyText) {
					notified++
				}
			}

			if n.itemDelay > 0 {
				time.Sleep(n.itemDelay)
			}
		}

		afterID = batch[len(batch)-1].UserID
	}

	if notified > 0 {
		logger.Info("проход уведомлений завершен", "sent", notified)
	}
}

// notifyOne шлет одно уведомление, если дедуп разрешает. Возвращает
// true только при реально отправленном сообщении.
func (n *NotificationScheduler) notifyOne(ctx context.Context, userID int64, kind domain.RewardKind, text string) bool {
	allowed, err := n.dedup.TryMark(ctx, userID, kind)
	if err != nil {
		// дедуп недоступен - лучше промолчать, чем заспамить
		logger.Error("дедуп недоступен, пропускаем уведомление",
			"user_id", userID, "kind", kind, "error", err)
		return false
	}
	if !allowed {
		return false
	}

	if err := n.messenger.SendMessage(userID, text); err != nil {
		// заблокировал бота или удалился - обычное дело, едем дальше
		logger.Warn("уведомление не доставлено",
			"user_id", userID, "kind", kind, "error", err)
		metrics.NotificationsFailed.Inc()
		return false
	}

	metrics.NotificationsSent.WithLabelValues(string(kind)).Inc()
	return true
}
