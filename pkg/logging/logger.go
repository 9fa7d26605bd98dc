// Package logging 结构化日志
//
// 基于 zerolog，保持 key/value 风格的调用方式：
//
//	log.Info("user registered", "user_id", id, "user_type", t)
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
)

// Logger 结构化日志器
type Logger struct {
	zl zerolog.Logger
}

// Config 日志配置
type Config struct {
	Level     string `json:"level" yaml:"level"`
	Format    string `json:"format" yaml:"format"` // json or console
	Output    string `json:"output" yaml:"output"` // stdout, stderr, or file path
	Component string `json:"component" yaml:"component"`
}

// ParseLevel 解析日志级别，未知值回退到 info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New 创建新的日志器
func New(cfg Config) *Logger {
	var output io.Writer
	switch cfg.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			output = os.Stdout
		} else {
			output = f
		}
	}
	return NewWithWriter(cfg, output)
}

// NewWithWriter 使用指定输出创建日志器（测试中写入 buffer）
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	if cfg.Format == "console" || cfg.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := ParseLevel(cfg.Level)
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger()}
}

// Default 创建默认日志器
func Default(component string) *Logger {
	return New(Config{
		Level:     os.Getenv("LOG_LEVEL"),
		Format:    os.Getenv("LOG_FORMAT"),
		Output:    "stdout",
		Component: component,
	})
}

// Nop 丢弃所有输出的日志器
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Named 派生子组件日志器
func (l *Logger) Named(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// With 附加固定字段
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{zl: l.zl.With().Fields(kv).Logger()}
}

// WithContext 从上下文提取请求信息
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zctx := l.zl.With()
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		zctx = zctx.Str("request_id", id)
	}
	if id, ok := ctx.Value(UserIDKey).(string); ok && id != "" {
		zctx = zctx.Str("user_id", id)
	}
	return &Logger{zl: zctx.Logger()}
}

// WithError 添加错误信息
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

func (l *Logger) Debug(msg string, kv ...any) { l.zl.Debug().Fields(kv).Msg(msg) }
func (l *Logger) Info(msg string, kv ...any)  { l.zl.Info().Fields(kv).Msg(msg) }
func (l *Logger) Warn(msg string, kv ...any)  { l.zl.Warn().Fields(kv).Msg(msg) }
func (l *Logger) Error(msg string, kv ...any) { l.zl.Error().Fields(kv).Msg(msg) }

// HTTPRequestLog HTTP 请求日志
func (l *Logger) HTTPRequestLog(method, path string, status int, duration time.Duration, clientIP string) {
	ev := l.zl.Info()
	if status >= 500 {
		ev = l.zl.Error()
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status", status).
		Float64("duration_ms", float64(duration.Microseconds())/1000).
		Str("client_ip", clientIP).
		Msg("HTTP request")
}

// DBQueryLog 数据库查询日志
func (l *Logger) DBQueryLog(operation, collection string, duration time.Duration, err error) {
	ev := l.zl.Debug()
	msg := "DB query"
	if err != nil {
		ev = l.zl.Error().Err(err)
		msg = "DB query failed"
	}
	ev.Str("operation", operation).
		Str("collection", collection).
		Float64("duration_ms", float64(duration.Microseconds())/1000).
		Msg(msg)
}

// ContextWithRequestID 将请求 ID 注入 context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}
