// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports one dependency's state for /healthz. A nil error means healthy.
type Check func() error

// HealthHandler serves /healthz.
type HealthHandler struct {
	version string
	started time.Time
	checks  map[string]Check
}

// NewHealthHandler creates a HealthHandler. checks may be nil.
func NewHealthHandler(version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), checks: checks}
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// 失敗したチェックがあれば503を返します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	checks := make(map[string]string, len(h.checks))
	status, code := "ok", http.StatusOK
	for name, check := range h.checks {
		if err := check(); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(code)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(code, gin.H{
			"status":  status,
			"version": h.version,
			"uptime":  time.Since(h.started).Truncate(time.Second).String(),
			"checks":  checks,
		})
	}
}
