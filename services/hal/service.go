// services/hal/service.go
package hal

import (
	"context"
	"time"

	"portdrv-go/bus"
	"portdrv-go/port"
	"portdrv-go/types"
	"portdrv-go/x/mathx"
	"portdrv-go/x/timex"
)

// Refresh interval bounds (ms). 0 in the config disables periodic refresh.
const (
	minRefreshMS = 50
	maxRefreshMS = 3_600_000
)

// -----------------------------------------------------------------------------
// Entry point
// -----------------------------------------------------------------------------

// Run serves one port driver over the bus until ctx is cancelled. Every
// driver call happens on this goroutine; the driver itself carries no
// synchronisation.
func Run(ctx context.Context, conn *bus.Connection, drv *port.Driver) {
	s := &service{
		conn: conn,
		drv:  drv,
	}
	s.loop(ctx)
}

type service struct {
	conn *bus.Connection
	drv  *port.Driver

	// Latched wire config; the driver holds a reference into the table we
	// build from it, so it must stay reachable for the driver's lifetime.
	cfg     *port.Config
	nPins   int // pins currently published as retained info
	refresh bool
}

// -----------------------------------------------------------------------------
// Main loop
// -----------------------------------------------------------------------------

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "hal"))
	pinSub := s.conn.Subscribe(bus.T("hal", "pin", bus.WildcardOne, "control", bus.WildcardOne))
	ctrlSub := s.conn.Subscribe(bus.T("hal", "control", bus.WildcardOne))
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(pinSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	tick := time.NewTicker(time.Hour)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			s.applyConfig(msg, tick)

		case msg := <-pinSub.Channel():
			s.handlePinControl(msg)

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-tick.C:
			if s.refresh && s.drv.Status() == port.StatusInitialized {
				_ = s.drv.RefreshPortDirection()
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

func (s *service) applyConfig(msg *bus.Message, tick *time.Ticker) {
	var cfg HALConfig
	if err := decodeJSON(msg.Payload, &cfg); err != nil {
		s.publishState("error", "config_decode_failed", err)
		return
	}

	s.cfg = cfg.PortConfig()
	if err := s.drv.Init(s.cfg); err != nil {
		s.publishState("error", "init_failed", err)
		return
	}

	s.publishPinInfo()

	if cfg.RefreshMS > 0 {
		ms := mathx.Clamp(cfg.RefreshMS, minRefreshMS, maxRefreshMS)
		tick.Reset(time.Duration(ms) * time.Millisecond)
		s.refresh = true
	} else {
		tick.Reset(time.Hour)
		s.refresh = false
	}

	s.publishState("ready", "configured", nil)
}

// publishPinInfo retains one info document per table entry and clears
// documents for entries a shorter table no longer has.
func (s *service) publishPinInfo() {
	for i, p := range s.cfg.Pins {
		info := types.PinInfo{
			SchemaVersion:  1,
			Pin:            i,
			Port:           p.Port.String(),
			Channel:        uint8(p.Channel),
			Mode:           p.Mode.String(),
			Direction:      p.Direction.String(),
			DirChangeable:  p.DirChangeable,
			ModeChangeable: p.ModeChangeable,
		}
		if p.Direction == port.Out {
			info.Initial = p.InitialLevel.String()
		} else {
			info.Pull = p.Resistor.String()
		}
		s.pubRet(bus.T("hal", "pin", i, "info"), info)
	}
	for i := len(s.cfg.Pins); i < s.nPins; i++ {
		s.pubRet(bus.T("hal", "pin", i, "info"), nil)
	}
	s.nPins = len(s.cfg.Pins)
}

// -----------------------------------------------------------------------------
// Controls
// -----------------------------------------------------------------------------

// hal/pin/<n>/control/<method>
func (s *service) handlePinControl(msg *bus.Message) {
	if len(msg.Topic) < 5 {
		return
	}
	n, ok := asInt(msg.Topic[2])
	if !ok || !mathx.Between(n, 0, 0xFF) {
		s.replyErr(msg, "invalid pin address")
		return
	}
	method, _ := msg.Topic[4].(string)
	pl := mapFromAny(msg.Payload)

	switch method {
	case "set_direction":
		dir := parseDirection(asString(pl["direction"]))
		if err := s.drv.SetPinDirection(port.PinID(n), dir); err != nil {
			s.replyErr(msg, err.Error())
			return
		}
		s.replyOK(msg, map[string]any{"direction": dir.String()})

	case "set_mode":
		mode := parseMode(asString(pl["mode"]))
		if err := s.drv.SetPinMode(port.PinID(n), mode); err != nil {
			s.replyErr(msg, err.Error())
			return
		}
		s.replyOK(msg, map[string]any{"mode": mode.String()})

	default:
		s.replyErr(msg, "unsupported")
	}
}

// hal/control/<method>
func (s *service) handleControl(msg *bus.Message) {
	if len(msg.Topic) < 3 {
		return
	}
	method, _ := msg.Topic[2].(string)

	switch method {
	case "refresh":
		if err := s.drv.RefreshPortDirection(); err != nil {
			s.replyErr(msg, err.Error())
			return
		}
		s.replyOK(msg, nil)

	case "version":
		var vi port.VersionInfo
		if err := s.drv.VersionInfo(&vi); err != nil {
			s.replyErr(msg, err.Error())
			return
		}
		s.replyOK(msg, map[string]any{"version": vi})

	default:
		s.replyErr(msg, "unsupported")
	}
}

// ---- helpers ----

func (s *service) publishState(level, status string, err error) {
	st := types.HALState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T("hal", "state"), st, true))
}

func (s *service) replyOK(req *bus.Message, extra map[string]any) {
	if len(req.ReplyTo) == 0 {
		return
	}
	m := map[string]any{"ok": true}
	for k, v := range extra {
		m[k] = v
	}
	s.conn.Reply(req, m, false)
}

func (s *service) replyErr(req *bus.Message, e string) {
	if len(req.ReplyTo) == 0 {
		return
	}
	s.conn.Reply(req, map[string]any{"ok": false, "error": e}, false)
}

func (s *service) pubRet(t bus.Topic, p any) {
	s.conn.Publish(s.conn.NewMessage(t, p, true))
}
