package extract

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// stderrLogLimit caps how much of a failing command's stderr is logged.
const stderrLogLimit = 8 << 10

// Runner executes an external extraction command and returns its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	attrs := []any{"cmd", name, "args", strings.Join(args, " "), "elapsed_ms", time.Since(start).Milliseconds()}
	if err != nil {
		r.logger.Warn("extract.exec.failed", append(attrs, "error", err, "stderr", truncate(stderr.String(), stderrLogLimit))...)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	r.logger.Debug("extract.exec.ok", append(attrs, "stdout_bytes", stdout.Len())...)
	return stdout.Bytes(), stderr.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
