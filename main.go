// Package main provides the entry point for the desktop shell.
// The shell owns native windows, the theme and the logs; every window's UI
// runs in a sandboxed presentation process started from this same binary.
//
// Usage:
//
//	deskshell [--headless] [--verbose] [--config path]
//	deskshell logs sweep|path
//	deskshell version
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/yllada/deskshell/cli"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func init() {
	// GTK must own the main thread.
	runtime.LockOSThread()
}

func main() {
	root := cli.NewRootCommand(cli.BuildInfo{
		Version:   appVersion,
		Commit:    commitSHA,
		BuildTime: buildTime,
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
