package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	coreconfig "github.com/m3rciful/phonebook/core/config"
)

// options is the resolved form of coreconfig.LoggingConfig.
type options struct {
	format    logFormat
	level     slog.Level
	keyOrder  []string
	profile   string
	sampleNum int
	sampleDen int
	filePath  string
}

func resolveOptions(cfg *coreconfig.Config) options {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	opts := options{
		profile:  strings.ToLower(strings.TrimSpace(lc.Profile)),
		level:    parseLevel(lc.Level),
		keyOrder: parseKeyOrder(lc.KeysOrder),
	}
	if opts.profile == "" {
		opts.profile = "prod"
	}
	opts.format = parseFormat(lc.Format, opts.profile)
	opts.sampleNum, opts.sampleDen = parseDebugSample(lc.DebugSample)
	if dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && file != "" {
		opts.filePath = filepath.Join(dir, file)
	}
	return opts
}

// parseFormat honours an explicit format; otherwise dev and debug profiles get kv.
func parseFormat(raw, profile string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if profile == "dev" || profile == "debug" {
		return formatKV
	}
	return formatJSON
}

func parseLevel(raw string) slog.Level {
	switch levelName(raw) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

// parseDebugSample defaults to 1/50. "0" disables sampling so every debug event passes.
func parseDebugSample(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, 50
	}
	if raw == "0" {
		return 0, 0
	}
	num, den := parseRatioSpec(raw)
	if num <= 0 || den <= 0 {
		return 1, 50
	}
	return num, den
}

// openSinks returns stdout plus the optional log file.
func openSinks(opts options) ([]io.Writer, []io.Closer, error) {
	sinks := []io.Writer{os.Stdout}
	if opts.filePath == "" {
		return sinks, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.filePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(opts.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return append(sinks, f), []io.Closer{f}, nil
}
