// Package toolchain builds and runs the external programs the pipeline
// drives: idf.py, esptool.py, espefuse.py, espsecure.py, spiffsgen.py and
// openocd. Every invocation is synchronous; the caller decides what happens
// after a failure.
package toolchain

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
)

// stderrTail bounds how much tool stderr is kept for error details
const stderrTail = 2048

// Command is one external program invocation
type Command struct {
	Name string
	Args []string
	Dir  string

	// Interactive commands get the terminal: stdin, stdout and stderr are
	// passed through untouched.
	Interactive bool

	// Action names the tool verb, e.g. write_flash or burn_efuse
	Action      string
	Description string
}

// String renders the command line, quoting arguments that need it
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'") {
		return strconv.Quote(s)
	}
	return s
}

// Runner executes commands. The pipeline only talks to this interface so
// tests can record what would have run.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes
type ExecRunner struct {
	logger zerolog.Logger
	dryRun bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner bound to the process stdio. In dry-run
// mode commands are logged and reported as successful without running.
func NewExecRunner(dryRun bool) *ExecRunner {
	return &ExecRunner{
		logger: logging.GetLogger("toolchain"),
		dryRun: dryRun,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes cmd and waits for it
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if cmd.Name == "" {
		return errors.New(errors.ErrInvalidInput, "command has no program name")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrCanceled, "canceled before %s", describe(cmd))
	}

	r.logger.Info().
		Str("command", cmd.Name).
		Strs("args", cmd.Args).
		Str("dir", cmd.Dir).
		Str("description", cmd.Description).
		Msg("Executing command")

	if r.dryRun {
		r.logger.Warn().Str("cmdline", cmd.String()).Msg("Dry run - command not executed")
		return nil
	}

	if cmd.Dir != "" {
		if _, err := os.Stat(cmd.Dir); os.IsNotExist(err) {
			return errors.Newf(errors.ErrFileAccess, "working directory does not exist: %s", cmd.Dir)
		}
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = os.Environ()

	tail := &tailBuffer{max: stderrTail}
	if cmd.Interactive {
		c.Stdin = r.Stdin
		c.Stdout = r.Stdout
		c.Stderr = r.Stderr
	} else {
		stdout, stderr := r.Stdout, r.Stderr
		if sameWriter(stdout, stderr) {
			// exec copies each stream on its own goroutine once stderr is
			// wrapped, so a shared writer needs a lock.
			lw := &lockedWriter{w: stdout}
			stdout, stderr = lw, lw
		}
		c.Stdout = stdout
		c.Stderr = io.MultiWriter(stderr, tail)
	}

	err := c.Run()
	if err == nil {
		r.logger.Debug().Str("command", cmd.Name).Msg("Command finished")
		return nil
	}

	return r.classify(ctx, cmd, err, tail.String())
}

func (r *ExecRunner) classify(ctx context.Context, cmd Command, err error, stderr string) error {
	if ctx.Err() != nil {
		return errors.Wrapf(ctx.Err(), errors.ErrCanceled, "%s interrupted", cmd.Name)
	}
	if stderrors.Is(err, exec.ErrNotFound) {
		return errors.Wrapf(err, errors.ErrToolNotFound, "%s not found", cmd.Name).
			WithDetail("command", cmd.Name)
	}

	fe := errors.Wrapf(err, errors.ErrToolFailed, "%s failed", describe(cmd)).
		WithDetail("command", cmd.String())
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		fe = fe.WithDetail("exit_code", exitErr.ExitCode())
	}
	if stderr != "" {
		fe = fe.WithDetail("stderr", stderr)
	}

	r.logger.Error().
		Err(err).
		Str("cmdline", cmd.String()).
		Msg("Command execution failed")
	return fe
}

func describe(cmd Command) string {
	if cmd.Description != "" {
		return cmd.Description
	}
	return cmd.Name
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(t.buf.String())
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// sameWriter reports whether a and b are the same writer without
// panicking on writers whose dynamic type is not comparable.
func sameWriter(a, b io.Writer) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
