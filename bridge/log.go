package bridge

import (
	"fmt"
	"runtime/debug"

	"github.com/yllada/deskshell/ipc"
)

// LogDebug forwards a debug entry to the host log.
func (b *Bridge) LogDebug(msg string, meta ...any) error {
	return b.log(ipc.ChannelLogDebug, msg, meta)
}

// LogInfo forwards an info entry to the host log.
func (b *Bridge) LogInfo(msg string, meta ...any) error {
	return b.log(ipc.ChannelLogInfo, msg, meta)
}

// LogWarn forwards a warning to the host log.
func (b *Bridge) LogWarn(msg string, meta ...any) error {
	return b.log(ipc.ChannelLogWarn, msg, meta)
}

// LogError forwards an error entry to the host log.
func (b *Bridge) LogError(msg string, meta ...any) error {
	return b.log(ipc.ChannelLogError, msg, meta)
}

func (b *Bridge) log(ch ipc.Channel, msg string, meta []any) error {
	// Errors marshal to {} otherwise.
	fields := make([]any, len(meta))
	for i, v := range meta {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[i] = v
	}
	return b.command(ch, ipc.LogPayload{Message: msg, Meta: fields})
}

// Guard runs fn and turns a panic into a log-error entry on the host.
// The recovered value is returned as an error.
func (b *Bridge) Guard(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("panic: %v", r)
		_ = b.LogError("uncaught panic in presentation code", err.Error(), string(debug.Stack()))
	}()
	fn()
	return nil
}
