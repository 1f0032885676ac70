// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package subscriber

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Supported output formats for [BuildHandler].
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatZap  = "zap"
)

// UnknownFormatError is returned when a log format isn't supported.
type UnknownFormatError struct {
	Format string
}

// Error implements the [builtin.error] interface.
func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("subscriber: unknown log format: %q", e.Format)
}

// BuildHandler builds the handler which ultimately writes records to w.
// The format defaults to [FormatJSON] and the level to [slog.LevelInfo].
func BuildHandler[W io.Writer](
	writerB builder.Builder[W],
	format config.Reader[string],
	level config.Reader[slog.Level],
) builder.Builder[slog.Handler] {
	return builder.BuilderFunc[slog.Handler](func(ctx context.Context) (slog.Handler, error) {
		w := builder.MustBuild(ctx, writerB)
		lvl := config.MustOr(ctx, slog.LevelInfo, level)

		switch f := config.MustOr(ctx, FormatJSON, format); f {
		case FormatJSON:
			return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}), nil
		case FormatText:
			return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}), nil
		case FormatZap:
			core := zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(w),
				zap.NewAtomicLevelAt(zapLevel(lvl)),
			)
			return zapslog.NewHandler(core), nil
		default:
			return nil, UnknownFormatError{Format: f}
		}
	})
}

func zapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl >= slog.LevelError:
		return zapcore.ErrorLevel
	case lvl >= slog.LevelWarn:
		return zapcore.WarnLevel
	case lvl >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
