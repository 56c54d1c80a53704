// Package theme keeps the single authoritative theme mode of the shell and
// pushes every change to all live surfaces.
package theme

import (
	"fmt"

	"github.com/yllada/deskshell/common"
)

// Mode is the authoritative theme source.
type Mode string

const (
	ModeDark   Mode = common.ThemeDark
	ModeLight  Mode = common.ThemeLight
	ModeSystem Mode = common.ThemeSystem
)

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeDark, ModeLight, ModeSystem:
		return true
	}
	return false
}

// ParseMode validates a wire or config value.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidThemeMode, s)
	}
	return m, nil
}

// Resolve maps a mode onto the dark flag given the OS preference.
func Resolve(m Mode, systemDark bool) bool {
	switch m {
	case ModeDark:
		return true
	case ModeLight:
		return false
	default:
		return systemDark
	}
}
