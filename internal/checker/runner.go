// Package checker invokes the external model-checker subprocess
// (spec.md §4.7), capturing its combined stdout/stderr into a log
// file, enforcing a wall-clock timeout by killing the process group,
// and parsing its verdict and counter-example trail.
package checker

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acoac-verify/acoac-checker/internal/policy"
)

// RunConfig configures one subprocess invocation.
type RunConfig struct {
	// CheckerPath is the external model-checker executable.
	CheckerPath string
	// ModelFile is the path to the translated model the checker reads.
	ModelFile string
	// BMCDepth is the bounded-model-checking unrolling depth; nil runs
	// the checker in symbolic-only mode (spec.md §6 --smc/-n).
	BMCDepth *int
	// Timeout is the wall-clock budget; on expiry the process group is
	// killed and Run reports TimedOut.
	Timeout time.Duration
	// LogPath is where combined stdout+stderr is captured.
	LogPath string
}

// RunResult is the raw outcome of one subprocess invocation, before
// verdict parsing.
type RunResult struct {
	RunID    string
	LogPath  string
	Output   string
	TimedOut bool
	ExitErr  error
}

// Run spawns the checker as a subprocess-group leader and waits for
// it to finish, the timeout to expire, or ctx to be cancelled —
// whichever comes first. It never returns a policy error directly for
// a timeout or a non-zero exit: those are reported in RunResult for
// Invoke to translate, per spec.md §7 ("all errors propagate upward
// unchanged to the driver").
func Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	runID := uuid.NewString()

	args := []string{cfg.ModelFile}
	if cfg.BMCDepth != nil {
		args = append(args, strconv.Itoa(*cfg.BMCDepth))
	}

	cmd := exec.Command(cfg.CheckerPath, args...)
	setProcessGroup(cmd)

	logFile, err := os.Create(cfg.LogPath)
	if err != nil {
		return RunResult{}, policy.NewCheckerFailure("opening log file %s: %v", cfg.LogPath, err)
	}
	defer logFile.Close()

	var captured strings.Builder
	mw := io.MultiWriter(logFile, &captured)
	cmd.Stdout = mw
	cmd.Stderr = mw

	if err := cmd.Start(); err != nil {
		return RunResult{}, policy.NewCheckerFailure("starting checker %s: %v", cfg.CheckerPath, err)
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	timer := time.NewTimer(cfg.Timeout)
	defer timer.Stop()

	select {
	case err := <-waitDone:
		return RunResult{RunID: runID, LogPath: cfg.LogPath, Output: captured.String(), ExitErr: err}, nil
	case <-timer.C:
		killProcessGroup(cmd)
		<-waitDone
		return RunResult{RunID: runID, LogPath: cfg.LogPath, Output: captured.String(), TimedOut: true}, nil
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-waitDone
		return RunResult{RunID: runID, LogPath: cfg.LogPath, Output: captured.String(), ExitErr: ctx.Err()}, nil
	}
}

// Invoke runs the checker and translates the result into an
// AnalysisResult against sub, the sub-instance currently being
// verified (needed to resolve counter-example rule indices to
// concrete effects).
func Invoke(ctx context.Context, cfg RunConfig, sub *policy.Instance) (policy.AnalysisResult, RunResult, error) {
	res, err := Run(ctx, cfg)
	if err != nil {
		return policy.Failed(err), res, err
	}
	if res.TimedOut {
		return policy.TimedOut(), res, nil
	}

	parsed := ParseOutput(res.Output)
	if parsed.Verdict == policy.VerdictUnknown && res.ExitErr != nil {
		return policy.Failed(policy.NewCheckerFailure(
			"checker exited with error and produced no parseable verdict: %v", res.ExitErr)), res, nil
	}

	ar, err := ToAnalysisResult(sub, parsed)
	if err != nil {
		return policy.Failed(err), res, nil
	}
	return ar, res, nil
}
