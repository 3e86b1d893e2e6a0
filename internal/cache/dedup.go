package cache

import (
	"context"
	"fmt"
	"time"

	"sui_reward_bot/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper - дедупликация уведомлений планировщика в Redis.
// Ключ (user_id, тип награды) ставится с TTL равным интервалу повторного
// уведомления: пока ключ жив, пользователя не трогаем. TTL же и чистит
// старые записи, ничего не живет дольше суток.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

const maxDedupTTL = 24 * time.Hour

func NewRedisDeduper(rdb *redis.Client, renotifyInterval time.Duration) *RedisDeduper {
	ttl := renotifyInterval
	if ttl <= 0 || ttl > maxDedupTTL {
		ttl = maxDedupTTL
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

// TryMark атомарно помечает пару (пользователь, награда) как уведомленную.
// true - пометили мы, можно отправлять; false - кто-то уже отправлял
// внутри интервала.
func (d *RedisDeduper) TryMark(ctx context.Context, userID int64, kind domain.RewardKind) (bool, error) {
	key := fmt.Sprintf("notify:%s:%d", kind, userID)
	return d.rdb.SetNX(ctx, key, time.Now().Unix(), d.ttl).Result()
}

// NewRedisClient создает клиента и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к redis: %w", err)
	}
	return rdb, nil
}
