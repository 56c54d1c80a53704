package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/yllada/deskshell/common"
)

// InstanceLock keeps a second host from starting for the same user.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// AcquireInstanceLock takes the lock file in dir. It fails with
// common.ErrAlreadyRunning while another host holds it.
func AcquireInstanceLock(dir string) (*InstanceLock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	path := filepath.Join(dir, common.LockFileName)
	l := &InstanceLock{path: path, lock: flock.New(path)}

	locked, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return nil, holderError(readPID(path))
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600); err != nil {
		_ = l.lock.Unlock()
		return nil, fmt.Errorf("failed to write PID to lock file: %w", err)
	}
	return l, nil
}

// Path returns the lock file.
func (l *InstanceLock) Path() string {
	return l.path
}

// Release unlocks. The file itself stays.
func (l *InstanceLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release instance lock: %w", err)
	}
	return nil
}

// holderError names the process holding the lock when it can still be found.
func holderError(pid int) error {
	if pid <= 0 {
		return common.ErrAlreadyRunning
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("%w (PID %d)", common.ErrAlreadyRunning, pid)
	}
	name, err := p.Name()
	if err != nil || name == "" {
		return fmt.Errorf("%w (PID %d)", common.ErrAlreadyRunning, pid)
	}
	return fmt.Errorf("%w (PID %d, %s)", common.ErrAlreadyRunning, pid, name)
}

func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
