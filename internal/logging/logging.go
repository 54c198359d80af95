package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger that writes JSON to logPath and console lines to
// stderr. Every entry carries the instance name and pid.
func New(logPath, instanceName string) (*zap.Logger, error) {
	file, err := openLog(logPath)
	if err != nil {
		return nil, err
	}

	encCfg := encoderConfig()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), zapcore.InfoLevel),
	)
	return zap.New(core, fields(instanceName)), nil
}

// NewFileOnly is used by the terminal client, where stderr belongs to the screen.
func NewFileOnly(logPath, instanceName string) (*zap.Logger, error) {
	file, err := openLog(logPath)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(file), zapcore.InfoLevel)
	return zap.New(core, fields(instanceName)), nil
}

func openLog(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func fields(instanceName string) zap.Option {
	return zap.Fields(
		zap.String("instance", instanceName),
		zap.Int("pid", os.Getpid()),
	)
}
