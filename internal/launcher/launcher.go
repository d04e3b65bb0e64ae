package launcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/me/mcp/pkg/model"
)

const (
	readyByte   = 'R'
	releaseByte = 'G'
)

// Launcher starts gated children.
type Launcher struct {
	exe          string
	readyTimeout time.Duration
	stdin        *os.File
	stdout       *os.File
	stderr       *os.File
	logger       *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithReadyTimeout bounds how long Launch waits for the gate's ready byte.
func WithReadyTimeout(d time.Duration) Option {
	return func(l *Launcher) {
		l.readyTimeout = d
	}
}

// WithExecutable overrides the binary re-executed as the gate.
func WithExecutable(path string) Option {
	return func(l *Launcher) {
		l.exe = path
	}
}

// WithStdio sets the standard streams inherited by children. Nil means /dev/null.
func WithStdio(stdin, stdout, stderr *os.File) Option {
	return func(l *Launcher) {
		l.stdin, l.stdout, l.stderr = stdin, stdout, stderr
	}
}

// New creates a Launcher that re-executes the running binary.
func New(logger *slog.Logger, opts ...Option) (*Launcher, error) {
	l := &Launcher{
		readyTimeout: 10 * time.Second,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		logger:       logger.With("component", "launcher"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.exe == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve own executable: %w", err)
		}
		l.exe = exe
	}
	return l, nil
}

// Child is a launched process still owned by the controller.
type Child struct {
	PID  int
	Argv []string

	process  *os.Process
	release  *os.File
	released bool
}

// Launch starts a gated child for argv and returns once the gate has reported
// that it is blocked waiting for release. Any error is fatal for the batch.
func (l *Launcher) Launch(argv []string) (*Child, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("%w: %w", model.ErrLaunch, model.ErrEmptyCommand)
	}

	readyR, readyW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: ready pipe: %w", model.ErrLaunch, err)
	}
	releaseR, releaseW, err := os.Pipe()
	if err != nil {
		readyR.Close()
		readyW.Close()
		return nil, fmt.Errorf("%w: release pipe: %w", model.ErrLaunch, err)
	}

	cmd := &exec.Cmd{
		Path:       l.exe,
		Args:       append([]string{GateName, "--"}, argv...),
		Env:        os.Environ(),
		ExtraFiles: []*os.File{readyW, releaseR},
	}
	// Leave nil streams unset so exec substitutes /dev/null.
	if l.stdin != nil {
		cmd.Stdin = l.stdin
	}
	if l.stdout != nil {
		cmd.Stdout = l.stdout
	}
	if l.stderr != nil {
		cmd.Stderr = l.stderr
	}
	startErr := cmd.Start()

	// The child holds its own copies now.
	readyW.Close()
	releaseR.Close()

	if startErr != nil {
		readyR.Close()
		releaseW.Close()
		return nil, fmt.Errorf("%w: start %s: %w", model.ErrLaunch, argv[0], startErr)
	}

	child := &Child{
		PID:     cmd.Process.Pid,
		Argv:    argv,
		process: cmd.Process,
		release: releaseW,
	}

	if err := awaitReady(readyR, l.readyTimeout); err != nil {
		releaseW.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		return nil, fmt.Errorf("%w: pid %d never reported ready: %w", model.ErrLaunch, child.PID, err)
	}

	l.logger.Debug("gate ready", "pid", child.PID, "command", argv[0])
	return child, nil
}

func awaitReady(r *os.File, timeout time.Duration) error {
	defer r.Close()
	if err := r.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	buf := make([]byte, 1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if buf[0] != readyByte {
		return fmt.Errorf("unexpected handshake byte %q", buf[0])
	}
	return nil
}

// Release lets the gate proceed. Only the first call writes; later calls are
// no-ops. An error means the child is already gone.
func (c *Child) Release() error {
	if c.released {
		return nil
	}
	c.released = true

	_, err := c.release.Write([]byte{releaseByte})
	closeErr := c.release.Close()
	if err != nil {
		return fmt.Errorf("release pid %d: %w", c.PID, err)
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return fmt.Errorf("release pid %d: %w", c.PID, closeErr)
	}
	return nil
}

// Released reports whether Release has been called.
func (c *Child) Released() bool {
	return c.released
}

// Close drops the controller's handles. An unreleased gate sees EOF on its
// release pipe and exits with ExitAbandoned.
func (c *Child) Close() error {
	if !c.released {
		c.released = true
		c.release.Close()
	}
	return c.process.Release()
}
