package logger

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New production json logger. level comes from LOG_LEVEL, unknown levels fall back to info.
func New() (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if lv := viper.GetString("LOG_LEVEL"); lv != "" {
		if parsed, err := zapcore.ParseLevel(lv); err == nil {
			level.SetLevel(parsed)
		}
	}

	config := zap.NewProductionConfig()
	config.Level = level
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true

	return config.Build()
}
