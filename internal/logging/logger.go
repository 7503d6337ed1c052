package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the stdout JSON logger. Debug records are kept outside
// production.
func Setup(appEnv string) {
	slog.SetDefault(slog.New(stdoutHandler(appEnv)))
}

// WithDatabase fans the default logger out to stdout and the system_logs
// table. Call it once the database is migrated.
func WithDatabase(appEnv string, pg *PGHandler) {
	slog.SetDefault(slog.New(NewMultiHandler(stdoutHandler(appEnv), pg)))
}

func stdoutHandler(appEnv string) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: Level(appEnv)})
}

func Level(appEnv string) slog.Level {
	switch strings.ToLower(appEnv) {
	case "production", "prod":
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
