package service

import "sync"

// userLocks - полосатые замки по user_id. Держим фиксированное число
// полос вместо замка на каждого пользователя, чтобы не растить память
// на миллионах аккаунтов. Коллизия полос дает лишнюю сериализацию,
// но не ломает корректность.
type userLocks struct {
	shards [64]sync.Mutex
}

func (l *userLocks) lock(userID int64) (unlock func()) {
	m := &l.shards[uint64(userID)%uint64(len(l.shards))]
	m.Lock()
	return m.Unlock
}
