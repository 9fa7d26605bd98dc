package auth

import (
	"net/http"
	"strings"

	"bloodbank-admin/internal/apiserver/response"
	"bloodbank-admin/pkg/logging"
)

// MountPrefix 用户路由的第二挂载点
const MountPrefix = "/api/v1/users"

// 免认证路由（精确匹配，去除挂载前缀后比较）
var publicPaths = map[string]bool{
	"/register": true,
	"/login":    true,
	"/health":   true,
	"/metrics":  true,
}

func isPublicRoute(path string) bool {
	if publicPaths[path] {
		return true
	}
	if rest, ok := strings.CutPrefix(path, MountPrefix); ok {
		return publicPaths[rest]
	}
	return false
}

// Middleware 创建 JWT 认证中间件
func Middleware(tokens *TokenIssuer, log *logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由和预检请求直接放行
			if r.Method == http.MethodOptions || isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteError(w, response.New(response.KindUnauthorized, "missing authorization header"))
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				response.WriteError(w, response.New(response.KindUnauthorized, "invalid authorization header"))
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				log.WithContext(r.Context()).Debug("token rejected", "error", err.Error())
				response.WriteError(w, response.New(response.KindUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}
