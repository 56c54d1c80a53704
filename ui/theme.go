package ui

import (
	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/yllada/deskshell/theme"
)

// NativeTheme applies the theme mode to GTK through the libadwaita style
// manager. The desktop preference comes from system, which is asked
// directly because a forced color scheme hides it from the style manager.
type NativeTheme struct {
	system theme.NativeTheme
}

var _ theme.NativeTheme = (*NativeTheme)(nil)

// NewNativeTheme wraps the desktop preference source. Pass a
// theme.PortalTheme when the portal is reachable, a theme.StaticTheme otherwise.
func NewNativeTheme(system theme.NativeTheme) *NativeTheme {
	return &NativeTheme{system: system}
}

// SetSource maps the mode onto the style manager's color scheme.
func (t *NativeTheme) SetSource(m theme.Mode) {
	scheme := colorScheme(m)
	glib.IdleAdd(func() {
		adw.StyleManagerGetDefault().SetColorScheme(scheme)
	})
	t.system.SetSource(m)
}

// SystemPrefersDark implements theme.NativeTheme.
func (t *NativeTheme) SystemPrefersDark() bool {
	return t.system.SystemPrefersDark()
}

// OnUpdated implements theme.NativeTheme.
func (t *NativeTheme) OnUpdated(fn func()) func() {
	return t.system.OnUpdated(fn)
}

func colorScheme(m theme.Mode) adw.ColorScheme {
	switch m {
	case theme.ModeDark:
		return adw.ColorSchemeForceDark
	case theme.ModeLight:
		return adw.ColorSchemeForceLight
	default:
		return adw.ColorSchemeDefault
	}
}
