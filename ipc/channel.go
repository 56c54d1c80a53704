package ipc

import "sort"

// Channel names a message path between host and presentation processes.
type Channel string

// Window control.
const (
	ChannelCloseWindow       Channel = "close-window"
	ChannelMinimizeWindow    Channel = "minimize-window"
	ChannelMaximizeWindow    Channel = "maximize-window"
	ChannelIsWindowMaximized Channel = "is-window-maximized"
	// ChannelMaximizeWindowBack tells a surface whether it can currently be maximized.
	ChannelMaximizeWindowBack = ChannelMaximizeWindow + "back"
)

// Theme.
const (
	ChannelSetThemeMode     Channel = "set-theme-mode"
	ChannelGetThemeMode     Channel = "get-theme-mode"
	ChannelIsDarkTheme      Channel = "is-dark-theme"
	ChannelThemeModeUpdated Channel = "theme-mode-updated"
)

// Log forwarding.
const (
	ChannelLogDebug Channel = "log-debug"
	ChannelLogInfo  Channel = "log-info"
	ChannelLogWarn  Channel = "log-warn"
	ChannelLogError Channel = "log-error"
)

// Pattern is the direction and reply shape of a channel.
type Pattern int

const (
	PatternUnknown Pattern = iota
	PatternCommand
	PatternRequest
	PatternBroadcast
)

// String returns the string representation of the pattern.
func (p Pattern) String() string {
	switch p {
	case PatternCommand:
		return "command"
	case PatternRequest:
		return "request"
	case PatternBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

var registry = map[Channel]Pattern{
	ChannelCloseWindow:        PatternCommand,
	ChannelMinimizeWindow:     PatternCommand,
	ChannelMaximizeWindow:     PatternCommand,
	ChannelIsWindowMaximized:  PatternRequest,
	ChannelMaximizeWindowBack: PatternBroadcast,
	ChannelSetThemeMode:       PatternRequest,
	ChannelGetThemeMode:       PatternRequest,
	ChannelIsDarkTheme:        PatternRequest,
	ChannelThemeModeUpdated:   PatternBroadcast,
	ChannelLogDebug:           PatternCommand,
	ChannelLogInfo:            PatternCommand,
	ChannelLogWarn:            PatternCommand,
	ChannelLogError:           PatternCommand,
}

// Pattern returns the channel's pattern, PatternUnknown if it is not registered.
func (c Channel) Pattern() Pattern {
	return registry[c]
}

// Valid reports whether c is part of the registry.
func (c Channel) Valid() bool {
	_, ok := registry[c]
	return ok
}

// Channels returns every registered channel in name order.
func Channels() []Channel {
	out := make([]Channel, 0, len(registry))
	for c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ChannelsFor returns the registered channels with pattern p in name order.
func ChannelsFor(p Pattern) []Channel {
	var out []Channel
	for _, c := range Channels() {
		if registry[c] == p {
			out = append(out, c)
		}
	}
	return out
}
