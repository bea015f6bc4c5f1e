// Package logging はzerologのロガーを環境に合わせて組み立てます。
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"todo-tracker/internal/config"
)

// New は環境ごとの出力形式とレベルでロガーを作成します。
// localはコンソール形式、それ以外はJSONで出力します。
func New(env, level string, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	zerolog.TimestampFieldName = "timestamp"

	lvl := zerolog.InfoLevel
	switch env {
	case config.EnvLocal:
		lvl = zerolog.DebugLevel
		cw := zerolog.NewConsoleWriter()
		cw.TimeFormat = time.DateTime
		cw.Out = out
		out = cw
	case config.EnvDev:
		lvl = zerolog.DebugLevel
	case config.EnvProd:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger(), nil
}
