package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option 修改 zap 配置
type Option func(*zap.Config)

// New 基于生产配置创建日志器，输出到 stderr，标准输出留给分析结果
func New(options ...Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	for _, option := range options {
		option(&cfg)
	}

	return cfg.Build()
}

// WithLevel 设置最低日志级别，无法识别时使用 info
func WithLevel(levelStr string) Option {
	return func(cfg *zap.Config) {
		cfg.Level = zap.NewAtomicLevelAt(ParseLevel(levelStr))
	}
}

// WithDevelopment 开发模式使用控制台编码
func WithDevelopment(dev bool) Option {
	return func(cfg *zap.Config) {
		cfg.Development = dev
		if dev {
			cfg.Encoding = "console"
			cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
	}
}

// WithFields 为每条日志附加固定字段
func WithFields(fields map[string]interface{}) Option {
	return func(cfg *zap.Config) {
		if cfg.InitialFields == nil {
			cfg.InitialFields = map[string]interface{}{}
		}
		for key, value := range fields {
			if key == "" {
				continue
			}
			cfg.InitialFields[key] = value
		}
	}
}

// ParseLevel 将字符串转换为 zap 日志级别
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
