package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sui_reward_bot/internal/cache"
	"sui_reward_bot/internal/domain"

	"github.com/shopspring/decimal"
)

// фейковый леджер для операторских операций
type fakeAdminStore struct {
	mu      sync.Mutex
	ids     []int64
	idsErr  error
	touched []int64
	// TouchCooldowns с мертвым контекстом: так ловим привязку рассылки
	// к таймауту вызывающего
	deadCtx int
}

func (f *fakeAdminStore) Stats(context.Context, time.Time) (*domain.Stats, error) {
	return &domain.Stats{}, nil
}

func (f *fakeAdminStore) AddBalance(context.Context, int64, decimal.Decimal) (bool, error) {
	return false, nil
}

func (f *fakeAdminStore) Delete(context.Context, int64) (bool, error) { return false, nil }

func (f *fakeAdminStore) AllIDs(context.Context) ([]int64, error) { return f.ids, f.idsErr }

func (f *fakeAdminStore) TouchCooldowns(ctx context.Context, userID int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		f.deadCtx++
		return ctx.Err()
	}
	f.touched = append(f.touched, userID)
	return nil
}

func newTestAdminService(store *fakeAdminStore) *AdminService {
	s := NewAdminService(store, cache.NewAccountCache(100, time.Minute))
	s.itemDelay = 0 // в тестах не ждем лимиты Telegram
	return s
}

func manyIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func TestBroadcast_TouchesEveryRecipient(t *testing.T) {
	// получателей заметно больше, чем успел бы обойти обработчик
	// с 30-секундным таймаутом при 50мс на сообщение
	store := &fakeAdminStore{ids: manyIDs(700)}
	svc := newTestAdminService(store)
	msg := &fakeMessenger{}

	rep, err := svc.Broadcast(msg, "hello", nil, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rep.Success != 700 || rep.Failed != 0 || rep.Blocked != 0 {
		t.Fatalf("все должны получить рассылку: %+v", rep)
	}
	if len(store.touched) != 700 {
		t.Fatalf("таймеры должны пометиться у каждого получателя, пометили %d", len(store.touched))
	}
	if store.deadCtx != 0 {
		t.Fatalf("рассылка пришла в леджер с истекшим контекстом %d раз", store.deadCtx)
	}
}

func TestBroadcast_BlockedCountedSeparately(t *testing.T) {
	store := &fakeAdminStore{ids: []int64{1, 2, 3, 4}}
	svc := newTestAdminService(store)
	msg := &fakeMessenger{failFor: map[int64]error{
		2: errors.New("Forbidden: bot was blocked by the user"),
		3: errors.New("Bad Gateway"),
	}}

	rep, err := svc.Broadcast(msg, "hello", nil, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rep.Success != 2 || rep.Blocked != 1 || rep.Failed != 1 {
		t.Fatalf("блокировка и сбой считаются отдельно: %+v", rep)
	}
	// сбой одного получателя не останавливает остальных
	if len(store.touched) != 4 {
		t.Fatalf("таймеры помечаются независимо от доставки, пометили %d", len(store.touched))
	}
}

func TestBroadcast_StopAborts(t *testing.T) {
	store := &fakeAdminStore{ids: manyIDs(10)}
	svc := newTestAdminService(store)
	msg := &fakeMessenger{}

	stop := make(chan struct{})
	close(stop)

	rep, err := svc.Broadcast(msg, "hello", stop, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !rep.Aborted {
		t.Fatalf("закрытый stop должен прерывать рассылку")
	}
	if msg.count() != 0 {
		t.Fatalf("после остановки ничего не шлем, ушло %d", msg.count())
	}
}

func TestBroadcast_ProgressCallback(t *testing.T) {
	store := &fakeAdminStore{ids: manyIDs(5)}
	svc := newTestAdminService(store)
	msg := &fakeMessenger{}

	var calls []int
	rep, err := svc.Broadcast(msg, "hello", nil, func(done, total int) {
		if total != 5 {
			t.Fatalf("total должен быть 5, получили %d", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rep.Success != 5 {
		t.Fatalf("все должны получить рассылку: %+v", rep)
	}
	// сначала done=0, дальше после каждой отправки
	if len(calls) != 6 || calls[0] != 0 || calls[5] != 5 {
		t.Fatalf("неожиданная последовательность прогресса: %v", calls)
	}
}

func TestBroadcast_TargetsErrorSurfaces(t *testing.T) {
	store := &fakeAdminStore{idsErr: errors.New("база лежит")}
	svc := newTestAdminService(store)

	_, err := svc.Broadcast(&fakeMessenger{}, "hello", nil, nil)
	if err == nil {
		t.Fatalf("ошибка выборки получателей должна всплыть")
	}
}
