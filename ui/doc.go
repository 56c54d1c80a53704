// Package ui is the native backend of the desktop shell.
//
// It provides the GTK4/libadwaita implementations the host runs on when it
// has a display:
//
//   - Application: the adw.Application lifecycle and a window.System that
//     opens one undecorated GTK window per surface
//   - NativeTheme: applies the theme mode through the libadwaita style
//     manager and reports the desktop preference
//   - TrayIndicator: system tray menu for surfaces, theme mode and quit
//
// # Thread Safety
//
// GTK operations must execute on the main thread. Every call that reaches
// this package from the host's goroutines is scheduled with glib.IdleAdd;
// state the host reads synchronously, such as the maximize flag, is cached
// from GTK signals.
//
// # File Organization
//
//   - app.go: Application lifecycle and window.System
//   - window.go: GTK window behind a surface
//   - theme.go: libadwaita style manager bridge
//   - tray.go: System tray indicator
//   - icons.go: Icon generation for tray
//   - styles.go: CSS styling
package ui
