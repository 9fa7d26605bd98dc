package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bloodbank-admin/internal/apiserver/auth"
	"bloodbank-admin/internal/apiserver/report"
	"bloodbank-admin/internal/apiserver/response"
	"bloodbank-admin/internal/shared/storage"
	"bloodbank-admin/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// healthTimeout 健康检查访问存储的超时时间
const healthTimeout = 2 * time.Second

// Handler 组装各领域处理器的顶层 HTTP 处理器
type Handler struct {
	store storage.PersistentStore

	tokens        *auth.TokenIssuer
	authHandler   *auth.Handler
	reportHandler *report.Handler

	metrics  *Metrics
	gatherer prometheus.Gatherer
	log      *logging.Logger
}

// Options 可选依赖
type Options struct {
	// Registerer 指标注册表，nil 时使用 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
	Logger     *logging.Logger
}

// NewHandler 创建 Handler 实例
//
// 参数：
//   - store: 持久化存储
//   - authCfg: 认证配置，JWTSecret 必填
func NewHandler(store storage.PersistentStore, authCfg auth.Config, opts Options) (*Handler, error) {
	if store == nil {
		return nil, errors.New("server: store is required")
	}
	tokens, err := auth.NewTokenIssuer(authCfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	reg := opts.Registerer
	gatherer := prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		// 业务指标注册在默认注册表中，两者合并导出
		gatherer = prometheus.Gatherers{g, prometheus.DefaultGatherer}
	}

	authSvc := auth.NewService(store, auth.NewBcryptHasher(authCfg.BcryptCost), tokens, log.Named("auth"))
	reportSvc := report.NewService(store, log.Named("report"))

	return &Handler{
		store:         store,
		tokens:        tokens,
		authHandler:   auth.NewHandler(authSvc),
		reportHandler: report.NewHandler(reportSvc),
		metrics:       NewMetrics("bloodbank", reg),
		gatherer:      gatherer,
		log:           log,
	}, nil
}

// Health 健康检查：探测存储连接
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.WithContext(r.Context()).Warn("health check failed", "error", err.Error())
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
