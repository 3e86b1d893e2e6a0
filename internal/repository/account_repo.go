package repository

import (
	"context"
	"errors"
	"time"

	"sui_reward_bot/internal/db"
	"sui_reward_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository - единственный источник правды по аккаунтам.
// Все операции идут через пул с ретраями, NotFound возвращается как nil, nil.
type AccountRepository struct {
	db *db.Pool
}

func NewAccountRepository(pool *db.Pool) *AccountRepository {
	return &AccountRepository{db: pool}
}

const accountColumns = `user_id, username, balance, total_earned, referral_count,
	referred_by, last_claim_at, last_daily_at, wallet, joined_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	var wallet *string

	err := row.Scan(
		&acc.UserID, &acc.Username, &acc.Balance, &acc.TotalEarned, &acc.ReferralCount,
		&acc.ReferredBy, &acc.LastClaimAt, &acc.LastDailyAt, &wallet, &acc.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		acc.Wallet = *wallet
	}
	return &acc, nil
}

// GetByID возвращает аккаунт по id. Отсутствие записи - не ошибка.
func (r *AccountRepository) GetByID(ctx context.Context, userID int64) (*domain.Account, error) {
	var acc *domain.Account

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		row := r.db.QueryRow(ctx, `
			SELECT `+accountColumns+`
			FROM accounts
			WHERE user_id = $1
		`, userID)

		var scanErr error
		acc, scanErr = scanAccount(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return acc, nil
}

// Upsert пишет запись целиком. Идемпотентен: повторная запись того же
// аккаунта оставляет то же состояние. joined_at при конфликте не трогаем.
func (r *AccountRepository) Upsert(ctx context.Context, acc *domain.Account) error {
	var wallet *string
	if acc.Wallet != "" {
		wallet = &acc.Wallet
	}

	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `
			INSERT INTO accounts
				(user_id, username, balance, total_earned, referral_count,
				 referred_by, last_claim_at, last_daily_at, wallet, joined_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (user_id) DO UPDATE SET
				username = EXCLUDED.username,
				balance = EXCLUDED.balance,
				total_earned = EXCLUDED.total_earned,
				referral_count = EXCLUDED.referral_count,
				referred_by = EXCLUDED.referred_by,
				last_claim_at = EXCLUDED.last_claim_at,
				last_daily_at = EXCLUDED.last_daily_at,
				wallet = EXCLUDED.wallet
		`, acc.UserID, acc.Username, acc.Balance, acc.TotalEarned, acc.ReferralCount,
			acc.ReferredBy, acc.LastClaimAt, acc.LastDailyAt, wallet, acc.JoinedAt)
		return err
	})
}

// CreditReferrer начисляет бонус пригласившему одним UPDATE:
// баланс, total_earned и счетчик рефералов. Возвращает false если
// реферер не найден.
func (r *AccountRepository) CreditReferrer(ctx context.Context, referrerID int64, amount decimal.Decimal) (bool, error) {
	var updated bool

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		tag, execErr := r.db.Exec(ctx, `
			UPDATE accounts
			SET balance = balance + $2,
			    total_earned = total_earned + $2,
			    referral_count = referral_count + 1
			WHERE user_id = $1
		`, referrerID, amount)
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected() > 0
		return nil
	})
	return updated, err
}

// TopByTotalEarned возвращает топ-K по total_earned для лидерборда
func (r *AccountRepository) TopByTotalEarned(ctx context.Context, k int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, queryErr := r.db.Query(ctx, `
			SELECT username, total_earned
			FROM accounts
			ORDER BY total_earned DESC
			LIMIT $1
		`, k)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var e domain.LeaderboardEntry
			if scanErr := rows.Scan(&e.Username, &e.TotalEarned); scanErr != nil {
				return scanErr
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// StaleAccount - урезанная запись для фонового скана по кулдаунам
type StaleAccount struct {
	UserID      int64
	LastClaimAt time.Time
	LastDailyAt time.Time
}

// ScanStale возвращает очередную пачку аккаунтов, у которых прошло окно
// клейма или дейлика. Пагинация keyset'ом по user_id, чтобы не тащить
// всю таблицу в память: передавайте user_id последней записи прошлой пачки.
func (r *AccountRepository) ScanStale(ctx context.Context, afterID int64, claimBefore, dailyBefore time.Time, limit int) ([]StaleAccount, error) {
	var batch []StaleAccount

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, queryErr := r.db.Query(ctx, `
			SELECT user_id, last_claim_at, last_daily_at
			FROM accounts
			WHERE user_id > $1
			  AND (last_claim_at < $2 OR last_daily_at < $3)
			ORDER BY user_id
			LIMIT $4
		`, afterID, claimBefore, dailyBefore, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		batch = batch[:0]
		for rows.Next() {
			var s StaleAccount
			if scanErr := rows.Scan(&s.UserID, &s.LastClaimAt, &s.LastDailyAt); scanErr != nil {
				return scanErr
			}
			batch = append(batch, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// AllIDs возвращает все user_id (для рассылки)
func (r *AccountRepository) AllIDs(ctx context.Context) ([]int64, error) {
	var ids []int64

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, queryErr := r.db.Query(ctx, `SELECT user_id FROM accounts ORDER BY user_id`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id int64
			if scanErr := rows.Scan(&id); scanErr != nil {
				return scanErr
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AddBalance - административное начисление. Бонус тоже считается
// заработком, поэтому total_earned растет вместе с балансом.
func (r *AccountRepository) AddBalance(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	var updated bool

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		tag, execErr := r.db.Exec(ctx, `
			UPDATE accounts
			SET balance = balance + $2,
			    total_earned = total_earned + $2
			WHERE user_id = $1
		`, userID, amount)
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected() > 0
		return nil
	})
	return updated, err
}

// Delete удаляет аккаунт. Единственный путь удаления - явная админская
// команда, леджер иначе только растет.
func (r *AccountRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	var deleted bool

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		tag, execErr := r.db.Exec(ctx, `DELETE FROM accounts WHERE user_id = $1`, userID)
		if execErr != nil {
			return execErr
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	return deleted, err
}

// Stats собирает агрегаты для админской статистики
func (r *AccountRepository) Stats(ctx context.Context, activeSince time.Time) (*domain.Stats, error) {
	stats := &domain.Stats{}

	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE last_claim_at > $1),
			       COALESCE(SUM(total_earned), 0)
			FROM accounts
		`, activeSince).Scan(&stats.TotalUsers, &stats.ActiveUsers, &stats.TotalEarned)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// TouchCooldowns помечает таймеры наград текущим временем. Рассылка
// делает это перед отправкой, чтобы планировщик не догонял пользователя
// своим уведомлением сразу после анонса.
func (r *AccountRepository) TouchCooldowns(ctx context.Context, userID int64, to time.Time) error {
	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `
			UPDATE accounts
			SET last_claim_at = $2, last_daily_at = $2
			WHERE user_id = $1
		`, userID, to)
		return err
	})
}
