package logutil

import (
	"os"

	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// InitLogger builds the process logger from cfg and installs it as the
// zap global, so BgLogger returns it.
func InitLogger(cfg config.Log) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// BgLogger returns the process-level logger.
func BgLogger() *zap.Logger {
	return zap.L()
}

// NewLogger writes to stdout, or to a rotated file when cfg.LogFile.Filename
// is set.
func NewLogger(cfg config.Log) (*zap.Logger, error) {
	var level zapcore.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, errors.Annotatef(err, "invalid log level %q", cfg.Level)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch cfg.Format {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case FormatConsole, "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, errors.Errorf("invalid log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, newWriteSyncer(cfg.LogFile), level)
	return zap.New(core, zap.AddCaller()), nil
}

func newWriteSyncer(cfg config.LogFile) zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	})
}
