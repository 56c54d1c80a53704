// Package common provides shared constants, types, and utilities
// used across the desktop shell.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "io.github.yllada.deskshell"
	// AppName is the display name of the application.
	AppName = "Desk Shell"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "deskshell"
)

// File names used by the application.
const (
	ConfigFileName = "config.yaml"
	LockFileName   = "deskshell.lock"
	// LogFilePrefix and LogFileExt frame the day-file name: log-YYYY-MM-DD.log.
	LogFilePrefix = "log-"
	LogFileExt    = ".log"
	// LogDateLayout is the calendar-day part of a log file name.
	LogDateLayout = "2006-01-02"
)

// Log retention. Fixed on purpose; not exposed through config.
const (
	// LogRetentionDays is how long a day file is kept.
	LogRetentionDays = 7
	// LogSweepInterval is how often the retention sweep runs after startup.
	LogSweepInterval = 24 * time.Hour
	// DefaultLogMaxSizeMB is the soft cap of a single log segment.
	DefaultLogMaxSizeMB = 20
)

// Default timeouts and intervals.
const (
	// ResizeDebounce is the quiet window before a surface learns its maximize state.
	ResizeDebounce = 80 * time.Millisecond
	// SurfaceOutboxSize is how many host messages may wait for a slow
	// presentation process before its surface is closed.
	SurfaceOutboxSize = 64
	// RequestTimeout bounds a surface-side request when the caller gives no deadline.
	RequestTimeout = 5 * time.Second
	// ShutdownTimeout is how long the host waits for surfaces to tear down.
	ShutdownTimeout = 3 * time.Second
)

// UI constants.
const (
	// MainWindowWidth is the default main surface width.
	MainWindowWidth = 1024
	// MainWindowHeight is the default main surface height.
	MainWindowHeight = 800
	// MinWindowWidth is the minimum main surface width.
	MinWindowWidth = 640
	// MinWindowHeight is the minimum main surface height.
	MinWindowHeight = 480
	// SettingsWindowWidth is the settings surface width.
	SettingsWindowWidth = 720
	// SettingsWindowHeight is the settings surface height.
	SettingsWindowHeight = 560
	// DialogWindowWidth is the dialog surface width.
	DialogWindowWidth = 420
	// DialogWindowHeight is the dialog surface height.
	DialogWindowHeight = 240
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
)

// Theme mode values as they appear on the wire and in config.
const (
	ThemeDark   = "dark"
	ThemeLight  = "light"
	ThemeSystem = "system"
)
