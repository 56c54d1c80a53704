package host

import (
	"errors"
	"runtime/debug"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/theme"
	"github.com/yllada/deskshell/window"
)

// dispatcher handles the messages of one surface. Its surface is the
// transport-level origin: payloads never name a target.
type dispatcher struct {
	host    *Host
	surface *window.Surface
}

var _ ipc.Handler = (*dispatcher)(nil)

func (d *dispatcher) CloseWindow(ipc.CloseWindow) {
	d.host.windows.Close(d.surface)
}

func (d *dispatcher) MinimizeWindow(ipc.MinimizeWindow) {
	d.host.windows.Minimize(d.surface)
}

func (d *dispatcher) MaximizeWindow(ipc.MaximizeWindow) {
	d.host.windows.ToggleMaximize(d.surface)
}

func (d *dispatcher) Log(l ipc.Log) {
	d.host.sink.Forward(l.Level, string(d.surface.Name), l.Message, l.Meta)
}

func (d *dispatcher) IsWindowMaximized(ipc.IsWindowMaximized) (bool, bool) {
	return d.host.windows.IsMaximized(d.surface)
}

func (d *dispatcher) SetThemeMode(q ipc.SetThemeMode) (bool, error) {
	mode, err := theme.ParseMode(q.Mode)
	if err != nil {
		return false, err
	}
	return d.host.theme.SetMode(mode)
}

func (d *dispatcher) GetThemeMode(ipc.GetThemeMode) string {
	return string(d.host.theme.Mode())
}

func (d *dispatcher) IsDarkTheme(ipc.IsDarkTheme) bool {
	return d.host.theme.IsDark()
}

// Serve reads the surface's channel until it closes. A channel that closes
// while the surface is still live means the presentation process died, and
// the surface is closed with it.
func (h *Host) Serve(s *window.Surface) {
	conn := s.Conn()
	if conn == nil {
		return
	}
	d := &dispatcher{host: h, surface: s}
	log := h.log.With("surface", s.Name)

	for {
		msg, err := conn.Receive()
		if errors.Is(err, common.ErrChannelClosed) {
			if s.Live() {
				log.Warnw("Presentation channel closed, closing surface")
				h.windows.Close(s)
			}
			return
		}
		if err != nil {
			log.Errorw("Dropping unreadable message", "error", err)
			continue
		}
		h.dispatch(d, msg)
	}
}

// dispatch decodes and handles one message and sends the owed reply.
func (h *Host) dispatch(d *dispatcher, msg ipc.Message) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("Recovered panic in dispatch",
				"surface", d.surface.Name, "channel", msg.Channel, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	in, err := ipc.Decode(msg)
	if err != nil {
		h.log.Errorw("Dropping message", "surface", d.surface.Name, "channel", msg.Channel, "error", err)
		// A malformed request on a known channel is still owed its one reply.
		if errors.Is(err, common.ErrInvalidMessage) && msg.Kind == ipc.KindRequest && msg.ID != "" {
			h.reply(d.surface, msg, nil, err)
		}
		return
	}

	reply := in.Visit(d)
	if !reply.Owed {
		return
	}
	h.reply(d.surface, msg, reply.Value, reply.Err)
}

func (h *Host) reply(s *window.Surface, req ipc.Message, value any, replyErr error) {
	out, err := ipc.NewReply(req, value, replyErr)
	if err != nil {
		h.log.Errorw("Failed to encode reply", "surface", s.Name, "channel", req.Channel, "error", err)
		return
	}
	if err := s.Send(out); err != nil {
		h.log.Debugw("Reply not delivered", "surface", s.Name, "channel", req.Channel, "error", err)
	}
}
