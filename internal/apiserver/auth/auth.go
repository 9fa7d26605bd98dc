// Package auth 用户认证：注册、登录、JWT 令牌、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodbank-admin/pkg/logging"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL 访问令牌有效期
const TokenTTL = 24 * time.Hour

// DefaultBcryptCost 默认 bcrypt 代价
const DefaultBcryptCost = 10

// contextKey context 键类型
type contextKey string

const ctxKeyUserID contextKey = "auth_user_id"

// Config 认证配置
// JWTSecret 由调用方在构造时显式传入，包内不读取环境变量
type Config struct {
	JWTSecret  string
	BcryptCost int
}

// ============================================================================
// 密码哈希
// ============================================================================

// PasswordHasher 密码哈希接口
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// BcryptHasher bcrypt 实现，每次哈希使用新的随机盐
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher 创建 bcrypt 哈希器，cost 为 0 时使用默认值
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash 哈希密码
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify 验证密码
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims JWT 声明：{userID, iat, exp}
type Claims struct {
	UserID string `json:"userID"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发和校验 HS256 令牌
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer 创建令牌签发器
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: TokenTTL, now: time.Now}, nil
}

// Issue 签发包含 userID 的访问令牌
func (i *TokenIssuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse 解析并验证令牌（签名 + 过期时间）
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithUserID 将认证用户 ID 注入 context
func WithUserID(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, logging.UserIDKey, userID)
}

// UserIDFromContext 从 context 获取认证用户 ID
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(string)
	return id, ok && id != ""
}
