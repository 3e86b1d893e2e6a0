package cache

import (
	"container/list"
	"sync"
	"time"

	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/metrics"
)

// AccountCache - кэш аккаунтов перед базой: ограниченная емкость с
// LRU-вытеснением плюс TTL на каждую запись. Кэш не авторитетен -
// мутации всегда сначала пишутся в базу и только потом сюда.
// Безопасен для конкурентного доступа, но атомарности между ключами
// не дает: на один ключ действует last-write-wins.
type AccountCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[int64]*list.Element
	order    *list.List // свежие в голове, вытесняем с хвоста

	now func() time.Time // подменяется в тестах
}

type cacheEntry struct {
	userID    int64
	account   *domain.Account
	expiresAt time.Time
}

func NewAccountCache(capacity int, ttl time.Duration) *AccountCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &AccountCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[int64]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get возвращает копию закэшированного аккаунта. Промах или истекший
// TTL - это nil, не ошибка: вызывающий идет в базу и кладет результат сюда.
func (c *AccountCache) Get(userID int64) *domain.Account {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[userID]
	if !ok {
		metrics.CacheMisses.Inc()
		return nil
	}

	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		// запись протухла - выкидываем сразу, чтобы не накапливать мусор
		c.removeElement(el)
		metrics.CacheMisses.Inc()
		return nil
	}

	c.order.MoveToFront(el)
	metrics.CacheHits.Inc()
	return entry.account.Clone()
}

// Put кладет аккаунт с фиксированным TTL от момента вставки.
// При переполнении вытесняется самая давно не читанная запись.
func (c *AccountCache) Put(acc *domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{
		userID:    acc.UserID,
		account:   acc.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}

	if el, ok := c.entries[acc.UserID]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}

	c.entries[acc.UserID] = c.order.PushFront(entry)

	for len(c.entries) > c.capacity {
		if tail := c.order.Back(); tail != nil {
			c.removeElement(tail)
		}
	}
}

// Invalidate убирает запись немедленно (удаление аккаунта, начисление
// рефереру мимо кэша и т.п.)
func (c *AccountCache) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[userID]; ok {
		c.removeElement(el)
	}
}

// Len возвращает текущее число записей (для админской статистики)
func (c *AccountCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AccountCache) removeElement(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	delete(c.entries, entry.userID)
	c.order.Remove(el)
}
