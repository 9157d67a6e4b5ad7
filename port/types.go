package port

// ---- Pin addressing ----

// PortID is a physical port ordinal, 0..5 for ports A..F.
type PortID uint8

const (
	PortA PortID = iota
	PortB
	PortC
	PortD
	PortE
	PortF
)

func (p PortID) String() string {
	if p > PortF {
		return "?"
	}
	return string(rune('A' + p))
}

// Channel is a pin position within its port, 0..7.
type Channel uint8

// PinID indexes a pin's entry in the configuration table.
type PinID uint8

// ---- Pin attributes ----

type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

type Resistor uint8

const (
	ResistorOff Resistor = iota
	PullUp
	PullDown
)

func (r Resistor) String() string {
	switch r {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "off"
	}
}

// Mode is a pin function selector. Only plain digital I/O is implemented;
// every other value names a peripheral function this driver refuses.
type Mode uint8

const ModeDigitalIO Mode = 0

func (m Mode) String() string {
	if m == ModeDigitalIO {
		return "dio"
	}
	return "reserved"
}

// ---- Configuration ----

// PinConfig is one externally supplied pin description. Entries are
// immutable once handed to Init.
type PinConfig struct {
	Port           PortID
	Channel        Channel
	Mode           Mode
	Direction      Direction
	InitialLevel   Level // outputs only
	DirChangeable  bool
	ModeChangeable bool
	Resistor       Resistor // inputs only
}

// Config is the ordered pin table. The driver keeps the pointer it is given;
// the table must outlive the driver and must not be mutated while the driver
// holds it.
type Config struct {
	Pins []PinConfig
}

// ---- Module identity ----

const (
	VendorID   uint16 = 1000
	ModuleID   uint16 = 124
	InstanceID uint8  = 0

	SWMajorVersion uint8 = 1
	SWMinorVersion uint8 = 0
	SWPatchVersion uint8 = 0
)

// Service IDs identify the reporting operation in diagnostic reports.
const (
	ServiceInit                 uint8 = 0x00
	ServiceSetPinDirection      uint8 = 0x01
	ServiceRefreshPortDirection uint8 = 0x02
	ServiceVersionInfo          uint8 = 0x03
	ServiceSetPinMode           uint8 = 0x04
)

// VersionInfo is the module's fixed identification record.
type VersionInfo struct {
	VendorID uint16 `json:"vendor_id"`
	ModuleID uint16 `json:"module_id"`
	Major    uint8  `json:"major"`
	Minor    uint8  `json:"minor"`
	Patch    uint8  `json:"patch"`
}
