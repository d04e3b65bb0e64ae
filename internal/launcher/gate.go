package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// GateName is the argv[0] that marks a re-executed gate process.
const GateName = "mcp-gate"

const (
	// ExitLaunchFailed is the gate's exit status when the command cannot be executed.
	ExitLaunchFailed = 127

	// ExitAbandoned is the gate's exit status when the controller went away
	// before releasing it.
	ExitAbandoned = 125
)

const (
	readyFD   = 3
	releaseFD = 4
)

// MaybeRunGate runs the gate and exits when the process was started as one.
// It returns immediately otherwise.
func MaybeRunGate() {
	if filepath.Base(os.Args[0]) != GateName {
		return
	}
	os.Exit(runGate(os.Args[1:], os.Stderr))
}

func runGate(args []string, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	ready := os.NewFile(readyFD, "ready")
	release := os.NewFile(releaseFD, "release")

	if _, err := ready.Write([]byte{readyByte}); err != nil {
		return ExitAbandoned
	}
	ready.Close()

	buf := make([]byte, 1)
	_, err := io.ReadFull(release, buf)
	release.Close()
	if err != nil || buf[0] != releaseByte {
		return ExitAbandoned
	}

	if len(args) == 0 {
		fmt.Fprintln(stderr, "mcp-gate: no command")
		return ExitLaunchFailed
	}

	// Park until the scheduler grants the first time slice.
	if err := unix.Kill(os.Getpid(), unix.SIGSTOP); err != nil {
		fmt.Fprintf(stderr, "mcp-gate: stop self: %v\n", err)
		return ExitLaunchFailed
	}

	path, err := exec.LookPath(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "mcp-gate: %s: %v\n", args[0], err)
		return ExitLaunchFailed
	}

	err = unix.Exec(path, args, os.Environ())
	fmt.Fprintf(stderr, "mcp-gate: exec %s: %v\n", path, err)
	return ExitLaunchFailed
}
