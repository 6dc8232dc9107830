// Package logger 初始化全局 zap 日志器，其余包通过 zap.L() 记录日志
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel 将配置中的级别字符串转换为 zap 级别，无法识别时返回 info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Init 构建日志器并替换全局日志器。format 为 json 时使用生产配置，
// 否则使用开发配置（彩色控制台输出）。返回的函数在退出前调用以刷新缓冲。
func Init(level, format string) (*zap.Logger, func(), error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level.SetLevel(ParseLevel(level))

	lgr, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("构建日志器失败: %w", err)
	}

	restore := zap.ReplaceGlobals(lgr)
	return lgr, func() {
		_ = lgr.Sync()
		restore()
	}, nil
}
