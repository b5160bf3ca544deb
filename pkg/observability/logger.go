package observability

import (
	"context"
	"io"
	"os"

	"github.com/platinummonkey/hrportal/pkg/contextkeys"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a JSON logrus logger writing to output (stdout when nil)
func NewLogger(level logrus.Level, output io.Writer) *logrus.Logger {
	if output == nil {
		output = os.Stdout
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// ParseLevel parses a log level string, defaulting to info
func ParseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return contextkeys.WithLogger(ctx, logger)
}

// GetLogger retrieves the logger from context
func GetLogger(ctx context.Context) logrus.FieldLogger {
	if logger, ok := ctx.Value(contextkeys.LoggerKey).(logrus.FieldLogger); ok {
		return logger
	}
	return logrus.StandardLogger()
}

// FromContext returns the context logger with request ID and user ID fields attached
func FromContext(ctx context.Context) logrus.FieldLogger {
	logger := GetLogger(ctx)

	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}

	if userID := contextkeys.GetUserID(ctx); userID != "" {
		logger = logger.WithField("user_id", userID)
	}

	return logger
}
