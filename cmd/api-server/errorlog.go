package main

import (
	"log"
	"strings"

	"bloodbank-admin/pkg/logging"
)

// serverErrorWriter 将 http.Server 内部错误转写为结构化日志
// 客户端提前断开等噪音降为 debug
type serverErrorWriter struct {
	log *logging.Logger
}

func (w *serverErrorWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if strings.Contains(msg, "TLS handshake error") || strings.Contains(msg, "broken pipe") {
		w.log.Debug(msg)
		return len(p), nil
	}
	w.log.Warn(msg)
	return len(p), nil
}

// newServerErrorLog 创建 http.Server.ErrorLog 使用的 logger
func newServerErrorLog(l *logging.Logger) *log.Logger {
	return log.New(&serverErrorWriter{log: l}, "", 0)
}
