package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// FromContext retrieves the logger from a request context, falling back
// to the global logger when none is attached.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return l
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromEcho retrieves the request-scoped logger from the Echo context
func FromEcho(c echo.Context) *zap.Logger {
	l, ok := c.Get("logger").(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return l
}
