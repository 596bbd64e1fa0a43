package utilities

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Antes de InitLogger os logs são descartados (útil nos testes).
var logger = zap.NewNop().Sugar()

// InitLogger inicializa o logger global.
// level aceita "debug", "info", "warn" ou "error"; vazio equivale a "info".
func InitLogger(level string) error {
	var cfg zap.Config
	if strings.EqualFold(level, "debug") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return fmt.Errorf("nível de log inválido %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("erro ao construir logger: %w", err)
	}
	logger = l.Sugar()
	return nil
}

// SyncLogger descarrega os buffers do logger (chamar no desligamento).
func SyncLogger() {
	_ = logger.Sync()
}

// LogRequest registra informações sobre a requisição HTTP
func LogRequest(requestID, method, path, remoteAddr string, status int, duration time.Duration) {
	logger.Infow("requisição HTTP",
		"request_id", requestID,
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status", status,
		"duration", duration,
	)
}

// LogError registra erros com o contexto em que ocorreram
func LogError(err error, context string) {
	logger.Errorw(context, "error", err)
}

// LogWarn registra situações anormais que não interrompem o fluxo
func LogWarn(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

// LogDebug registra informações de debug
func LogDebug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

// LogInfo registra informações gerais
func LogInfo(format string, v ...interface{}) {
	logger.Infof(format, v...)
}
