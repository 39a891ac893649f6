package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"govdoc/internal/core/apperror"
	"govdoc/pkg/logger"
)

var tracer = otel.Tracer("govdoc/convert")

// Converter turns a markup document into another format.
type Converter interface {
	Convert(ctx context.Context, markup []byte, target string) ([]byte, error)
}

// Targets accepted by ExecConverter.
var supportedTargets = map[string]bool{
	"docx": true,
	"odt":  true,
	"doc":  true,
	"rtf":  true,
	"pdf":  true,
}

// ExecConfig configures the external conversion program.
type ExecConfig struct {
	// Binary is the converter executable. Defaults to "soffice".
	Binary string
	// Timeout bounds one conversion, including the wait for the limiter.
	Timeout time.Duration
	// RequestsPerSecond is the sustained conversion rate.
	RequestsPerSecond float64
	// BurstSize is the number of conversions allowed back to back.
	BurstSize int
	// TempDir is the parent of per-conversion working directories.
	TempDir string
}

// DefaultExecConfig returns conservative defaults for a single office process.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		Binary:            "soffice",
		Timeout:           60 * time.Second,
		RequestsPerSecond: 1,
		BurstSize:         2,
	}
}

// ExecConverter runs `<binary> --headless --convert-to <target> --outdir <dir> <input>`
// in a scratch directory and returns the produced file.
type ExecConverter struct {
	cfg     ExecConfig
	limiter *rate.Limiter
}

var _ Converter = (*ExecConverter)(nil)

// NewExecConverter creates a converter. Zero fields in cfg take defaults.
func NewExecConverter(cfg ExecConfig) *ExecConverter {
	def := DefaultExecConfig()
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	return &ExecConverter{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Convert writes markup to a scratch directory, runs the converter and reads
// the output back.
func (c *ExecConverter) Convert(ctx context.Context, markup []byte, target string) ([]byte, error) {
	target = strings.ToLower(strings.TrimPrefix(target, "."))
	if !supportedTargets[target] {
		return nil, apperror.NewValidation("unsupported conversion target").
			WithDetail("target", target)
	}
	if len(markup) == 0 {
		return nil, apperror.NewValidation("markup is empty")
	}

	ctx, span := tracer.Start(ctx, "ExecConverter.Convert")
	defer span.End()
	span.SetAttributes(attribute.String("convert.target", target))

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.NewTimeout("convert", fmt.Errorf("wait for converter slot: %w", err))
	}

	dir, err := os.MkdirTemp(c.cfg.TempDir, "govdoc-convert-*")
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("create work dir: %w", err))
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "document.html")
	if err := os.WriteFile(input, markup, 0o600); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("write markup: %w", err))
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cfg.Binary, "--headless", "--convert-to", target, "--outdir", dir, input)
	cmd.Dir = dir
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperror.NewTimeout("convert", err)
		}
		logger.Warn(ctx, "converter failed",
			"binary", c.cfg.Binary,
			"target", target,
			"output", strings.TrimSpace(output.String()),
			"error", err,
		)
		return nil, apperror.NewRenderFailure(fmt.Errorf("run %s: %w", c.cfg.Binary, err))
	}

	out, err := os.ReadFile(filepath.Join(dir, "document."+target))
	if err != nil {
		return nil, apperror.NewRenderFailure(fmt.Errorf("read converted %s: %w", target, err))
	}

	logger.Info(ctx, "document converted",
		"target", target,
		"bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
