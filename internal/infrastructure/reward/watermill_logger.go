package reward

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
)

// WatermillLogger adapts the application logger to watermill.LoggerAdapter.
type WatermillLogger struct {
	logger *logging.Logger
}

func NewWatermillLogger(logger *logging.Logger) *WatermillLogger {
	return &WatermillLogger{logger: logger.Named("watermill")}
}

func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error(msg, append(keyValues(fields), "error", err)...)
}

func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info(msg, keyValues(fields)...)
}

func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, keyValues(fields)...)
}

// Trace is folded into debug.
func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, keyValues(fields)...)
}

func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{logger: l.logger.With(keyValues(fields)...)}
}

func keyValues(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		out = append(out, key, value)
	}
	return out
}
