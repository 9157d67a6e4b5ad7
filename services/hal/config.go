package hal

import (
	"portdrv-go/port"
)

// Minimal JSON config structures.

// HALConfig is supplied on the "config/hal" bus topic.
type HALConfig struct {
	Version   int       `json:"version"`
	RefreshMS int       `json:"refresh_ms,omitempty"` // 0 disables periodic refresh
	Pins      []PinSpec `json:"pins"`
}

// PinSpec is one pin table entry in wire form.
type PinSpec struct {
	Port           any    `json:"port"`    // "F" or 5
	Channel        uint8  `json:"channel"` // 0..7
	Mode           string `json:"mode"`    // "dio"
	Direction      string `json:"direction"`
	Initial        string `json:"initial,omitempty"` // "high"/"low", outputs
	Pull           string `json:"pull,omitempty"`    // "off"/"up"/"down", inputs
	DirChangeable  bool   `json:"dir_changeable"`
	ModeChangeable bool   `json:"mode_changeable"`
}

// PortConfig translates the wire form into the driver's table. Translation
// never fails: unrecognised ports, channels, and modes are carried through
// as out-of-range values for the driver to validate and report, so the
// skip-and-continue policy stays in one place.
func (c HALConfig) PortConfig() *port.Config {
	cfg := &port.Config{Pins: make([]port.PinConfig, 0, len(c.Pins))}
	for _, p := range c.Pins {
		cfg.Pins = append(cfg.Pins, port.PinConfig{
			Port:           parsePort(p.Port),
			Channel:        port.Channel(p.Channel),
			Mode:           parseMode(p.Mode),
			Direction:      parseDirection(p.Direction),
			InitialLevel:   parseLevel(p.Initial),
			DirChangeable:  p.DirChangeable,
			ModeChangeable: p.ModeChangeable,
			Resistor:       parsePull(p.Pull),
		})
	}
	return cfg
}
