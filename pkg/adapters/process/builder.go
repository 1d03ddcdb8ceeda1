package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/domain"
)

// EnvPrefix prefixes the environment variable of every setting.
const EnvPrefix = "POLICYDESK_SETTING_"

var unsafeKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Builder implements ports.SettingsBuilder by running a fixed command.
// Settings are passed as environment variables, never as arguments, so
// values cannot inject flags. The full settings map is also written to the
// command's stdin as JSON.
type Builder struct {
	config Config
	logger *slog.Logger
}

// Option configures the builder.
type Option func(*Builder)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg Config, opts ...Option) *Builder {
	b := &Builder{config: cfg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the command. A non-zero exit fails the build with the
// command's stderr.
func (b *Builder) Build(ctx context.Context, settings *domain.Settings) error {
	snapshot := settings.Snapshot()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.config.Command, b.config.Args...)
	cmd.Dir = b.config.Dir
	cmd.Env = append(cmd.Environ(), env(b.config.Environment, snapshot)...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.Debug("running settings builder", "command", b.config.Command, "settings", len(snapshot))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("builder '%s' failed: %w", b.config.Command, err)
		}
		return fmt.Errorf("builder '%s' failed: %w: %s", b.config.Command, err, msg)
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		b.logger.Info("settings builder output", "command", b.config.Command, "output", out)
	}
	return nil
}

// env upper-cases static keys; config loaders lower-case map keys.
func env(static map[string]string, settings map[string]any) []string {
	out := make([]string, 0, len(static)+len(settings))
	for k, v := range static {
		out = append(out, strings.ToUpper(k)+"="+v)
	}
	for k, v := range settings {
		key := EnvPrefix + unsafeKey.ReplaceAllString(strings.ToUpper(k), "_")
		out = append(out, key+"="+envValue(v))
	}
	return out
}

// envValue renders primitives as-is and everything else as JSON.
func envValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}
