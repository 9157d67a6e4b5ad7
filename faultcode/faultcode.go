package faultcode

// Code is a stable fault identifier carried in diagnostic reports.
// It is a numeric newtype, comparable, allocation-free, and implements error.
// The values are part of the reporting contract and must not be renumbered.
type Code uint8

// Canonical codes.
const (
	// InvalidPin: out-of-range pin identifier, or an entry whose port or
	// channel falls outside the device (ports 0..5, channels 0..7).
	InvalidPin Code = 0x0A

	// DirectionLocked: runtime direction change attempted on a fixed pin.
	DirectionLocked Code = 0x0B

	// InvalidConfig: Init called with a nil configuration table.
	InvalidConfig Code = 0x0C

	// UnsupportedMode: any function mode other than digital I/O.
	UnsupportedMode Code = 0x0D

	// ModeLocked: runtime mode change attempted on a fixed pin.
	ModeLocked Code = 0x0E

	// Uninitialized: operation attempted before a completed Init.
	Uninitialized Code = 0x0F

	// NullArgument: nil output slot passed to the version query.
	NullArgument Code = 0x10
)

func (c Code) Error() string { return c.String() }

// String returns the short, stable name for a code.
func (c Code) String() string {
	switch c {
	case InvalidPin:
		return "invalid_pin"
	case DirectionLocked:
		return "direction_locked"
	case InvalidConfig:
		return "invalid_config"
	case UnsupportedMode:
		return "unsupported_mode"
	case ModeLocked:
		return "mode_locked"
	case Uninitialized:
		return "uninitialized"
	case NullArgument:
		return "null_argument"
	default:
		return "unknown_fault"
	}
}

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return e.C.String() + ": " + e.Msg
	}
	return e.C.String()
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to 0 (no fault).
func Of(err error) (Code, bool) {
	if err == nil {
		return 0, false
	}
	if c, ok := err.(Code); ok {
		return c, true
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code(), true
	}
	return 0, false
}
