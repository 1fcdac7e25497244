package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/layersync/internal/config"
)

// newLogger builds the slog logger described by cfg, writing to w.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
