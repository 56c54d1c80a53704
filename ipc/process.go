package ipc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
)

// File descriptors a presentation process finds its channel on.
const (
	childReadFD  = 3
	childWriteFD = 4
)

// sandboxEnvKeys is everything a presentation process inherits from the host environment.
var sandboxEnvKeys = []string{
	"DISPLAY", "WAYLAND_DISPLAY", "XDG_RUNTIME_DIR", "XDG_SESSION_TYPE",
	"LANG", "LC_ALL", "TERM", "HOME",
}

// ProcessLoader starts one presentation process per surface and returns the
// host end of its channel. The child is re-executed from the host binary.
type ProcessLoader struct {
	// Executable defaults to the running binary.
	Executable string
	// Log receives child lifecycle events.
	Log *zap.SugaredLogger
}

// NewProcessLoader creates a loader that re-executes the current binary.
func NewProcessLoader(log *zap.SugaredLogger) *ProcessLoader {
	return &ProcessLoader{Log: log}
}

// Load spawns `<exe> surface --name <name> --template <template>`.
// The child's channel is wired to descriptors 3 (read) and 4 (write).
// Closing the returned Conn closes the child's input, which ends it.
func (l *ProcessLoader) Load(ctx context.Context, name, template string) (*Conn, error) {
	exe := l.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, common.WrapError(err, "failed to locate executable")
		}
	}

	hostR, childW, err := os.Pipe()
	if err != nil {
		return nil, common.WrapError(err, "failed to create surface pipe")
	}
	childR, hostW, err := os.Pipe()
	if err != nil {
		hostR.Close()
		childW.Close()
		return nil, common.WrapError(err, "failed to create surface pipe")
	}

	cmd := exec.Command(exe, "surface", "--name", name, "--template", template)
	cmd.ExtraFiles = []*os.File{childR, childW}
	cmd.Env = sandboxEnv()
	cmd.Stderr = os.Stderr

	if err := ctx.Err(); err != nil {
		closeAll(hostR, childW, childR, hostW)
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		closeAll(hostR, childW, childR, hostW)
		return nil, fmt.Errorf("failed to start %s surface: %w", name, err)
	}
	// The child holds its own copies now.
	closeAll(childR, childW)

	conn := NewConn(hostR, hostW, hostW, hostR)
	pid := cmd.Process.Pid
	if l.Log != nil {
		l.Log.Debugw("presentation process started", "surface", name, "pid", pid)
	}

	var errLog common.ErrorLogger
	if l.Log != nil {
		errLog = l.Log
	}
	common.Go(errLog, "presentation process wait", func() {
		err := cmd.Wait()
		conn.Close()
		if l.Log == nil {
			return
		}
		if err != nil {
			l.Log.Warnw("presentation process exited", "surface", name, "pid", pid, "error", err)
			return
		}
		l.Log.Debugw("presentation process exited", "surface", name, "pid", pid)
	})

	return conn, nil
}

// ChildConn opens the channel inside a presentation process.
func ChildConn() (*Conn, error) {
	r := os.NewFile(childReadFD, "ipc-read")
	w := os.NewFile(childWriteFD, "ipc-write")
	if r == nil || w == nil {
		return nil, fmt.Errorf("%w: descriptors %d/%d not inherited", common.ErrChannelClosed, childReadFD, childWriteFD)
	}
	return NewConn(r, w, w, r), nil
}

func sandboxEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		for _, allowed := range sandboxEnvKeys {
			if key == allowed {
				env = append(env, kv)
				break
			}
		}
	}
	return env
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		f.Close()
	}
}
