// Package common provides shared constants, sentinel errors and path helpers
// used throughout the desktop shell.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: window sizes, debounce windows, log retention, file names
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Utils: XDG-aware config, state and runtime directories
//
// # Usage
//
//	import "github.com/yllada/deskshell/common"
//
//	// Use constants
//	wait := common.ResizeDebounce
//
//	// Check errors
//	if errors.Is(err, common.ErrSurfaceGone) {
//	    // The window closed under us; nothing to do.
//	}
package common
