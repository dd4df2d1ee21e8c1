package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// Printf adapts a slog.Logger to printf-style callbacks such as chromedp.WithLogf.
func Printf(log *slog.Logger, level slog.Level) func(format string, args ...any) {
	if log == nil {
		return func(string, ...any) {}
	}
	return func(format string, args ...any) {
		log.Log(context.Background(), level, fmt.Sprintf(format, args...))
	}
}
