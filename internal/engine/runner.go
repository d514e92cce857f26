// Package engine drives the external restic executable: locating the
// binary, running synchronous and streamed invocations, and translating
// the engine's output into structured records and user-facing errors.
package engine

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
	"github.com/kweiss/resticpilot/internal/logger"
)

// Runner owns invocation of the restic binary. Repository identity and
// secret travel via environment variables on the child process, never argv.
type Runner struct {
	binary string
	logger *logger.Logger

	mu        sync.Mutex
	streaming bool
}

// NewRunner locates the restic binary and builds a runner around it.
func NewRunner(l *logger.Logger) (*Runner, error) {
	path, err := Locate()
	if err != nil {
		return nil, err
	}
	return NewRunnerWithBinary(path, l), nil
}

// NewRunnerWithBinary builds a runner around an explicit binary path, used
// when the engine path is pinned in the config.
func NewRunnerWithBinary(binary string, l *logger.Logger) *Runner {
	return &Runner{
		binary: binary,
		logger: l.With("component", "engine"),
	}
}

// Binary returns the path of the engine executable in use.
func (r *Runner) Binary() string {
	return r.binary
}

func (r *Runner) env(repoURI, secret string) []string {
	env := os.Environ()
	if repoURI != "" {
		env = append(env,
			"RESTIC_REPOSITORY="+repoURI,
			"RESTIC_PASSWORD="+secret,
		)
	}
	return env
}

// RunSync launches the engine, waits for exit and returns the combined
// stdout/stderr text. Non-zero exit yields a CommandFailed error whose
// message has been passed through Translate.
func (r *Runner) RunSync(ctx context.Context, repoURI, secret string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Env = r.env(repoURI, secret)

	r.logger.Debug("running engine command", "args", strings.Join(args, " "))

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.New(apperrors.KindCancelled, "operation cancelled", "")
		}
		return "", apperrors.New(apperrors.KindCommandFailed, Translate(string(out)), "")
	}
	return string(out), nil
}

// WaitFunc reports the outcome of a streamed invocation. It must be called
// after the lines channel has been drained.
type WaitFunc func() error

// RunStreaming launches the engine and returns a channel carrying stdout
// line-by-line as it arrives. The channel is closed at stdout EOF. Stderr
// is accumulated silently for the failure message. Cancellation happens
// through ctx; a context cancelled before exit classifies the outcome as
// Cancelled regardless of the exit code.
//
// One streaming call may be in flight per runner at a time.
func (r *Runner) RunStreaming(ctx context.Context, repoURI, secret string, args []string) (<-chan string, WaitFunc, error) {
	r.mu.Lock()
	if r.streaming {
		r.mu.Unlock()
		return nil, nil, apperrors.New(apperrors.KindInternal, "a streaming engine call is already active", "")
	}
	r.streaming = true
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		r.streaming = false
		r.mu.Unlock()
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Env = r.env(repoURI, secret)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		release()
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to open stdout pipe", "")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		release()
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to open stderr pipe", "")
	}

	r.logger.Debug("running streamed engine command", "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		release()
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to start engine process", "")
	}

	var stderrBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			stderrBuf.WriteString(sc.Text())
			stderrBuf.WriteByte('\n')
		}
	}()

	lines := make(chan string)
	go func() {
		defer wg.Done()
		defer close(lines)
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	wait := func() error {
		defer release()
		wg.Wait()
		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				return apperrors.New(apperrors.KindCancelled, "operation cancelled", "")
			}
			return apperrors.New(apperrors.KindCommandFailed, Translate(stderrBuf.String()), "")
		}
		return nil
	}

	return lines, wait, nil
}
