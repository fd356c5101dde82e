package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	return newLogger(cfg, os.Stdout)
}

// SetupFileLogger is SetupLogger teeing output into a timestamped file under
// LOG_DIR/profile_eval_logs. The returned close func flushes the file.
func SetupFileLogger(cfg config.Config, command string) (*slog.Logger, func() error, error) {
	dir := filepath.Join(cfg.LogDir, "profile_eval_logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("op=observability.SetupFileLogger: %w", err)
	}
	name := fmt.Sprintf("%s_%s.log", command, time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(dir, name)) //nolint:gosec // path built from config
	if err != nil {
		return nil, nil, fmt.Errorf("op=observability.SetupFileLogger: %w", err)
	}
	lg := newLogger(cfg, io.MultiWriter(os.Stdout, f)).With(slog.String("command", command))
	return lg, f.Close, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{}
	// In dev, show debug level; in prod, default to info
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
