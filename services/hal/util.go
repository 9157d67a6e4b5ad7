package hal

import (
	"encoding/json"
	"strings"

	"portdrv-go/port"
)

// Shared parse helpers for the wire config and control payloads.

// parsePort accepts a port letter ("A".."F", case-insensitive) or a numeric
// ordinal. Anything else maps to an out-of-range ordinal the driver rejects.
func parsePort(v any) port.PortID {
	const invalid = port.PortID(0xFF)
	if s, ok := v.(string); ok {
		s = strings.ToUpper(strings.TrimSpace(s))
		if len(s) == 1 && s[0] >= 'A' && s[0] <= 'F' {
			return port.PortID(s[0] - 'A')
		}
		return invalid
	}
	if n, ok := asInt(v); ok && n >= 0 && n <= 0xFE {
		return port.PortID(n)
	}
	return invalid
}

func parseDirection(s string) port.Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "out", "output":
		return port.Out
	default:
		return port.In
	}
}

func parseLevel(s string) port.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1":
		return port.High
	default:
		return port.Low
	}
}

func parsePull(v any) port.Resistor {
	switch s := asString(v); strings.ToLower(strings.TrimSpace(s)) {
	case "up", "pullup":
		return port.PullUp
	case "down", "pulldown":
		return port.PullDown
	default:
		return port.ResistorOff
	}
}

// parseMode maps "dio" to the digital I/O mode. Unknown names map to a
// reserved mode value so the driver reports them as unsupported.
func parseMode(s string) port.Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dio", "gpio":
		return port.ModeDigitalIO
	default:
		return port.Mode(0xFF)
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func mapFromAny(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		// Accept maps, structs, numbers… by marshaling then decoding to T.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

func asInt(t any) (int, bool) {
	switch v := t.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
