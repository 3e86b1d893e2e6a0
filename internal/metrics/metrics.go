package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// счетчики жизнедеятельности бота, отдаются на /metrics
var (
	ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reward_claims_total",
		Help: "Успешные клеймы",
	})

	DailiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reward_dailies_total",
		Help: "Успешные дневные бонусы",
	})

	ReferralsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reward_referrals_total",
		Help: "Зарегистрированные рефералы",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "account_cache_hits_total",
		Help: "Попадания в кэш аккаунтов",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "account_cache_misses_total",
		Help: "Промахи кэша аккаунтов",
	})

	StorageRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storage_retries_total",
		Help: "Повторы операций хранилища после временных сбоев",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Отправленные уведомления о готовности награды",
	}, []string{"kind"})

	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Уведомления, которые не удалось доставить",
	})
)
