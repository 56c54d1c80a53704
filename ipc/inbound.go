package ipc

import (
	"fmt"

	"github.com/yllada/deskshell/common"
)

// Handler receives decoded presentation → host messages for one surface.
// The surface is implied by the implementation; payloads never name one.
type Handler interface {
	CloseWindow(CloseWindow)
	MinimizeWindow(MinimizeWindow)
	MaximizeWindow(MaximizeWindow)
	Log(Log)
	// IsWindowMaximized returns ok=false when the surface is gone and no reply is owed.
	IsWindowMaximized(IsWindowMaximized) (maximized, ok bool)
	SetThemeMode(SetThemeMode) (isDark bool, err error)
	GetThemeMode(GetThemeMode) string
	IsDarkTheme(IsDarkTheme) bool
}

// Reply is the outcome of visiting a variant. Commands produce a zero Reply.
type Reply struct {
	// Owed is set when the sender waits for an answer.
	Owed  bool
	Value any
	Err   error
}

// Inbound is a decoded presentation → host message.
type Inbound interface {
	Visit(Handler) Reply
	isInbound()
}

type inbound struct{}

func (inbound) isInbound() {}

// CloseWindow asks the host to close the sending surface.
type CloseWindow struct{ inbound }

// MinimizeWindow asks the host to minimize the sending surface.
type MinimizeWindow struct{ inbound }

// MaximizeWindow toggles maximize on the sending surface.
type MaximizeWindow struct{ inbound }

// Log is a log entry forwarded from a presentation process.
type Log struct {
	inbound
	Level   string
	Message string
	Meta    []any
}

// IsWindowMaximized queries the sending surface's native maximize state.
type IsWindowMaximized struct{ inbound }

// SetThemeMode sets the process-wide theme mode.
type SetThemeMode struct {
	inbound
	Mode string
}

// GetThemeMode reads the process-wide theme mode.
type GetThemeMode struct{ inbound }

// IsDarkTheme reads the resolved dark flag.
type IsDarkTheme struct{ inbound }

func (CloseWindow) Visit(h Handler) Reply    { h.CloseWindow(CloseWindow{}); return Reply{} }
func (MinimizeWindow) Visit(h Handler) Reply { h.MinimizeWindow(MinimizeWindow{}); return Reply{} }
func (MaximizeWindow) Visit(h Handler) Reply { h.MaximizeWindow(MaximizeWindow{}); return Reply{} }
func (l Log) Visit(h Handler) Reply          { h.Log(l); return Reply{} }

func (q IsWindowMaximized) Visit(h Handler) Reply {
	maximized, ok := h.IsWindowMaximized(q)
	if !ok {
		return Reply{}
	}
	return Reply{Owed: true, Value: maximized}
}

func (q SetThemeMode) Visit(h Handler) Reply {
	isDark, err := h.SetThemeMode(q)
	return Reply{Owed: true, Value: isDark, Err: err}
}

func (q GetThemeMode) Visit(h Handler) Reply {
	return Reply{Owed: true, Value: h.GetThemeMode(q)}
}

func (q IsDarkTheme) Visit(h Handler) Reply {
	return Reply{Owed: true, Value: h.IsDarkTheme(q)}
}

// logLevels maps the log-* channels onto level names.
var logLevels = map[Channel]string{
	ChannelLogDebug: "debug",
	ChannelLogInfo:  "info",
	ChannelLogWarn:  "warn",
	ChannelLogError: "error",
}

// Decode turns a presentation → host message into its variant.
// Broadcast channels and kind/pattern mismatches are rejected with
// ErrInvalidMessage; unregistered names with ErrUnknownChannel.
func Decode(msg Message) (Inbound, error) {
	pattern := msg.Channel.Pattern()
	switch pattern {
	case PatternUnknown:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownChannel, msg.Channel)
	case PatternBroadcast:
		return nil, fmt.Errorf("%w: %s is host-originated", common.ErrInvalidMessage, msg.Channel)
	case PatternCommand:
		if msg.Kind != KindCommand {
			return nil, fmt.Errorf("%w: %s sent as %s", common.ErrInvalidMessage, msg.Channel, msg.Kind)
		}
	case PatternRequest:
		if msg.Kind != KindRequest || msg.ID == "" {
			return nil, fmt.Errorf("%w: %s sent as %s", common.ErrInvalidMessage, msg.Channel, msg.Kind)
		}
	}

	switch msg.Channel {
	case ChannelCloseWindow:
		return CloseWindow{}, nil
	case ChannelMinimizeWindow:
		return MinimizeWindow{}, nil
	case ChannelMaximizeWindow:
		return MaximizeWindow{}, nil
	case ChannelLogDebug, ChannelLogInfo, ChannelLogWarn, ChannelLogError:
		var p LogPayload
		if err := msg.Decode(&p); err != nil {
			return nil, err
		}
		return Log{Level: logLevels[msg.Channel], Message: p.Message, Meta: p.Meta}, nil
	case ChannelIsWindowMaximized:
		return IsWindowMaximized{}, nil
	case ChannelSetThemeMode:
		var mode string
		if err := msg.Decode(&mode); err != nil {
			return nil, err
		}
		return SetThemeMode{Mode: mode}, nil
	case ChannelGetThemeMode:
		return GetThemeMode{}, nil
	case ChannelIsDarkTheme:
		return IsDarkTheme{}, nil
	}
	return nil, fmt.Errorf("%w: %q", common.ErrUnknownChannel, msg.Channel)
}
