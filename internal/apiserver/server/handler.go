// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包：
//   - auth: 注册、登录、当前用户
//   - report: 去重对手方报表
//   - metrics.go: Prometheus 指标
package server

import (
	"net"
	"net/http"
	"time"

	"bloodbank-admin/internal/apiserver/auth"
	"bloodbank-admin/pkg/logging"

	"github.com/google/uuid"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则（同时挂载在根路径和 /api/v1/users 下）：
//
// 健康检查:
//   - GET  /health                 - 服务健康检查（探测存储）
//   - GET  /metrics                - Prometheus 指标
//
// 用户 (auth):
//   - POST /register               - 注册（公开）
//   - POST /login                  - 登录（公开）
//   - GET  /get-current-user       - 当前用户
//
// 报表 (report):
//   - POST /get-all-donors         - 机构的去重捐献者
//   - POST /get-all-hospitals      - 机构的去重医院
//   - POST /get-all-org-for-donor  - 捐献者的去重机构
//
// 中间件顺序（外→内）：CORS → 请求日志 → 指标 → 认证 → 路由
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler(h.gatherer))

	for _, prefix := range []string{"", auth.MountPrefix} {
		h.authHandler.RegisterRoutes(mux, prefix)
		h.reportHandler.RegisterRoutes(mux, prefix)
	}

	// 应用认证中间件
	authedHandler := auth.Middleware(h.tokens, h.log.Named("auth"))(mux)

	// 应用指标中间件
	metricsHandler := h.metrics.MetricsMiddleware(authedHandler)

	// 请求日志
	loggedHandler := requestLogMiddleware(h.log.Named("http"))(metricsHandler)

	return corsMiddleware(loggedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware 注入请求 ID 并记录访问日志
func requestLogMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)
			ctx := logging.ContextWithRequestID(r.Context(), requestID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			log.WithContext(ctx).HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), clientIP(r))
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
