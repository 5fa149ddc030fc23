package pihole6api

import (
	"go.uber.org/zap"
)

// ZapLogger adapts a [go.uber.org/zap.Logger] to the [RequestLogger]
// interface.
//
//	logger, _ := zap.NewProduction()
//	c, err := pihole6api.New(baseURL, password,
//	    pihole6api.WithRequestLogger(pihole6api.NewZapLogger(logger)),
//	)
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps logger as a [RequestLogger]. A nil logger behaves
// like [NoopLogger].
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Errorf(format string, v ...any) {
	l.sugar.Errorf(format, v...)
}

func (l *ZapLogger) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

func (l *ZapLogger) Debugf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}
