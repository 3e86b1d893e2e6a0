package db

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/logger"
	"sui_reward_bot/internal/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool оборачивает pgxpool и несет единую политику ретраев:
// все операции репозитория ходят в базу через WithRetry, так что
// семантика отказов везде одинаковая.
type Pool struct {
	*pgxpool.Pool
	attempts int
	base     time.Duration
}

type Config struct {
	URL           string
	MaxConns      int32
	RetryAttempts int
	RetryBase     time.Duration
}

// Connect создает пул с ограниченным числом соединений и проверяет базу
// пингом с теми же ретраями
func Connect(ctx context.Context, cfg Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pgPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		Pool:     pgPool,
		attempts: cfg.RetryAttempts,
		base:     cfg.RetryBase,
	}
	if p.attempts <= 0 {
		p.attempts = 3
	}
	if p.base <= 0 {
		p.base = 200 * time.Millisecond
	}

	if err := p.WithRetry(ctx, func(ctx context.Context) error {
		return pgPool.Ping(ctx)
	}); err != nil {
		pgPool.Close()
		return nil, err
	}

	logger.Info("подключились к postgres", "max_conns", poolCfg.MaxConns)
	return p, nil
}

// WithRetry выполняет операцию с экспоненциальным бэкоффом на временных
// сбоях соединения. После исчерпания попыток возвращает ErrStorageUnavailable,
// решение о повторе дальше - на вызывающей стороне.
func (p *Pool) WithRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	delay := p.base

	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			metrics.StorageRetries.Inc()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !transient(err) {
			return err
		}
		logger.Warn("временный сбой хранилища, повторяем", "attempt", attempt+1, "error", err)
	}

	logger.Error("хранилище недоступно после всех попыток", "error", err)
	return domain.ErrStorageUnavailable
}

// transient определяет, имеет ли смысл повторять операцию:
// обрывы соединений и отказы сети - да, логические ошибки запроса - нет
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
