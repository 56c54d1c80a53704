package common

import (
	"fmt"
	"runtime/debug"
)

// ErrorLogger is the part of a structured logger that Recover needs.
// *zap.SugaredLogger satisfies it.
type ErrorLogger interface {
	Errorw(msg string, keysAndValues ...interface{})
}

// Recover logs a panic of the calling goroutine instead of letting it crash
// the process. It must be deferred directly:
//
//	defer common.Recover(log, "theme update")
func Recover(log ErrorLogger, task string) {
	r := recover()
	if r == nil {
		return
	}
	if log == nil {
		return
	}
	log.Errorw("Recovered panic", "task", task, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
}

// Go runs fn on a new goroutine guarded by Recover.
func Go(log ErrorLogger, task string, fn func()) {
	go func() {
		defer Recover(log, task)
		fn()
	}()
}
