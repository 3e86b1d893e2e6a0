package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer собирает служебный HTTP сервер: метрики и healthcheck.
// Пользовательского HTTP API у бота нет, все общение идет через Telegram.
func NewServer(port string, version string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	return &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
}
