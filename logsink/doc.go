// Package logsink is the host's structured log write path.
//
// Entries are rendered as
//
//	[2026-10-16T09:30:00.000+02:00] [info] message {"key": "value"}
//
// and written both to the console and to a day file named
// log-YYYY-MM-DD.log in the log directory. A day file that reaches the size
// cap continues in log-YYYY-MM-DD.1.log, .2.log and so on. Entries that
// presentation processes forward over the log-* channels go through Forward,
// which keeps them inside the four ordinary levels.
//
// A retention sweep deletes day files older than seven days, once at Start
// and then every 24 hours. Logging is best-effort: no failure in this package
// is fatal to the host.
package logsink
