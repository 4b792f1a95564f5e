package util

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 全局日志，InitLogger 之前为 Nop
var Logger = zap.NewNop()

func InitLogger(mode string) error {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Trace 记录一段操作的耗时
//
//	defer util.Trace("remove background")()
func Trace(msg string) func() {
	start := time.Now()
	Logger.Debug("enter", zap.String("op", msg))
	return func() {
		Logger.Info("exit", zap.String("op", msg), zap.Duration("cost", time.Since(start)))
	}
}
