package db

import (
	"context"

	"sui_reward_bot/internal/logger"
)

// схема леджера: одна таблица на пользователя плюс индексы под
// лидерборд и фоновые сканы по кулдаунам
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id        BIGINT PRIMARY KEY,
	username       VARCHAR(64) NOT NULL DEFAULT '',
	balance        NUMERIC(20,8) NOT NULL DEFAULT 0,
	total_earned   NUMERIC(20,8) NOT NULL DEFAULT 0,
	referral_count INT NOT NULL DEFAULT 0,
	referred_by    BIGINT,
	last_claim_at  TIMESTAMPTZ NOT NULL,
	last_daily_at  TIMESTAMPTZ NOT NULL,
	wallet         VARCHAR(128),
	joined_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_accounts_total_earned ON accounts (total_earned DESC);
CREATE INDEX IF NOT EXISTS idx_accounts_last_claim ON accounts (last_claim_at);
CREATE INDEX IF NOT EXISTS idx_accounts_last_daily ON accounts (last_daily_at);
`

// InitSchema создает таблицу аккаунтов если ее еще нет
func (p *Pool) InitSchema(ctx context.Context) error {
	err := p.WithRetry(ctx, func(ctx context.Context) error {
		_, execErr := p.Exec(ctx, schema)
		return execErr
	})
	if err != nil {
		return err
	}
	logger.Info("схема базы готова")
	return nil
}
