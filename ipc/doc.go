// Package ipc defines the narrow message channel between the host process
// and its presentation processes.
//
// # Channel Registry
//
// Every channel is a Channel constant declared in this package. The set is
// closed: host and presentation code import the same constants, so a name
// mismatch is a build defect rather than a runtime condition. Each channel
// has one Pattern:
//
//   - PatternCommand: presentation → host, fire-and-forget
//   - PatternRequest: presentation → host, exactly one reply
//   - PatternBroadcast: host → every live surface, fire-and-forget
//
// # Dispatch
//
// Decode turns an inbound Message into one of a sealed set of variant types
// (CloseWindow, SetThemeMode, Log, ...). Visit dispatches a variant to the
// matching Handler method. Adding a variant means adding a Handler method,
// and every implementation stops compiling until it handles it.
//
// # Wire format
//
// A Conn carries one JSON object per line. Messages on one Conn are written
// in order, which gives FIFO delivery per channel; requests are matched to
// replies by ID.
package ipc
