// Package port configures the general-purpose I/O pins of a TM4C123-class
// part from a static pin table: direction, pull resistor, initial output
// level, and digital function, with on-demand re-application of fixed
// directions.
//
// A Driver is single-context: Init and RefreshPortDirection are
// non-reentrant, and concurrent calls against the same pin race on the
// underlying registers. Exclusion is the caller's responsibility; the
// services/hal loop performs every driver call from one goroutine.
//
// Guard failures are reported to the diagnostic Reporter as
// (module, instance, service, fault) tuples and additionally returned as
// faultcode errors. Per-entry failures inside the table passes (Init,
// RefreshPortDirection) are report-only: the entry is skipped and the pass
// continues.
package port

import (
	"portdrv-go/det"
	"portdrv-go/drivers/tm4c123"
	"portdrv-go/faultcode"
)

// Status is the driver lifecycle flag.
type Status uint8

const (
	StatusNotInitialized Status = iota
	StatusInitialized
)

// Driver owns the configuration reference and lifecycle state for one
// register space. Multiple independent drivers may exist (e.g. one per
// simulated space in tests).
type Driver struct {
	sysctl *tm4c123.SysCtl
	ports  [tm4c123.NumPorts]*tm4c123.PortBlock
	sink   det.Reporter

	cfg    *Config
	status Status
}

// New builds a driver over a register memory. A nil sink discards reports.
func New(mem tm4c123.Memory, sink det.Reporter) *Driver {
	if sink == nil {
		sink = det.Discard
	}
	return &Driver{
		sysctl: tm4c123.NewSysCtl(mem),
		ports:  tm4c123.Ports(mem),
		sink:   sink,
	}
}

// Status returns the lifecycle flag.
func (d *Driver) Status() Status { return d.status }

// Config returns the latched configuration table, nil before Init.
func (d *Driver) Config() *Config { return d.cfg }

func (d *Driver) report(service uint8, code faultcode.Code) {
	d.sink.ReportError(ModuleID, InstanceID, service, code)
}

// needsUnlock identifies the NMI-capable pins (PD7, PF0) whose commit
// register must be unlocked before any direction or function write.
func needsUnlock(p PortID, ch Channel) bool {
	return (p == PortD && ch == 7) || (p == PortF && ch == 0)
}

// validPin re-validates a table entry's physical address. Configuration
// data crosses a module boundary and is never trusted.
func validPin(p PortID, ch Channel) bool {
	return uint8(p) < tm4c123.NumPorts && uint8(ch) < tm4c123.NumChannels
}

// Init latches the configuration table and programs every entry in table
// order. A nil table reports InvalidConfig and performs no register writes.
// Per-entry failures (unknown port or channel, unsupported mode) are
// reported and skipped; the driver still ends up initialized.
//
// Non-reentrant.
func (d *Driver) Init(cfg *Config) error {
	if cfg == nil {
		d.report(ServiceInit, faultcode.InvalidConfig)
		return faultcode.InvalidConfig
	}

	d.cfg = cfg

	// An interrupted pass must not masquerade as a completed one.
	d.status = StatusNotInitialized

	// Clock gates already opened during this pass, one bit per port.
	var clocked uint8

	for i := range cfg.Pins {
		pc := &cfg.Pins[i]

		if !validPin(pc.Port, pc.Channel) {
			d.report(ServiceInit, faultcode.InvalidPin)
			continue
		}

		if clocked&(1<<pc.Port) == 0 {
			d.sysctl.EnableGPIOClock(uint8(pc.Port))
			clocked |= 1 << pc.Port
		}

		blk := d.ports[pc.Port]
		ch := uint8(pc.Channel)

		if needsUnlock(pc.Port, pc.Channel) {
			blk.Unlock(ch)
		}

		if pc.Direction == Out {
			blk.Dir.SetBit(ch)
			if pc.InitialLevel == High {
				blk.Data.SetBit(ch)
			} else {
				blk.Data.ClearBit(ch)
			}
		} else {
			blk.Dir.ClearBit(ch)
			applyResistor(blk, ch, pc.Resistor)
		}

		switch pc.Mode {
		case ModeDigitalIO:
			applyDigitalIO(blk, ch)
		default:
			// The entry contributes no function-mode writes; the pass
			// continues with the next entry.
			d.report(ServiceInit, faultcode.UnsupportedMode)
		}
	}

	d.status = StatusInitialized
	return nil
}

// SetPinDirection changes one pin's direction at runtime. It touches only
// the direction bit: output level and pull configuration survive the change.
//
// Reentrant for distinct pins.
func (d *Driver) SetPinDirection(pin PinID, dir Direction) error {
	if d.status == StatusNotInitialized {
		d.report(ServiceSetPinDirection, faultcode.Uninitialized)
		return faultcode.Uninitialized
	}
	if int(pin) >= len(d.cfg.Pins) {
		d.report(ServiceSetPinDirection, faultcode.InvalidPin)
		return faultcode.InvalidPin
	}
	pc := &d.cfg.Pins[pin]
	if !pc.DirChangeable {
		d.report(ServiceSetPinDirection, faultcode.DirectionLocked)
		return faultcode.DirectionLocked
	}
	if !validPin(pc.Port, pc.Channel) {
		d.report(ServiceSetPinDirection, faultcode.InvalidPin)
		return faultcode.InvalidPin
	}

	blk := d.ports[pc.Port]
	ch := uint8(pc.Channel)

	if needsUnlock(pc.Port, pc.Channel) {
		blk.Unlock(ch)
	}
	if dir == Out {
		blk.Dir.SetBit(ch)
	} else {
		blk.Dir.ClearBit(ch)
	}
	return nil
}

// RefreshPortDirection re-applies the configured direction of every pin
// whose direction is fixed, restoring it after possible external tampering
// with the direction registers. Changeable pins are left alone. Invalid
// entries are reported and skipped.
//
// Non-reentrant.
func (d *Driver) RefreshPortDirection() error {
	if d.status == StatusNotInitialized {
		d.report(ServiceRefreshPortDirection, faultcode.Uninitialized)
		return faultcode.Uninitialized
	}

	for i := range d.cfg.Pins {
		pc := &d.cfg.Pins[i]
		if pc.DirChangeable {
			continue
		}
		if !validPin(pc.Port, pc.Channel) {
			d.report(ServiceRefreshPortDirection, faultcode.InvalidPin)
			continue
		}

		blk := d.ports[pc.Port]
		ch := uint8(pc.Channel)

		if needsUnlock(pc.Port, pc.Channel) {
			blk.Unlock(ch)
		}
		if pc.Direction == Out {
			blk.Dir.SetBit(ch)
		} else {
			blk.Dir.ClearBit(ch)
		}
	}
	return nil
}

// SetPinMode changes one pin's function mode at runtime. Only ModeDigitalIO
// is accepted; any other value reports UnsupportedMode and performs no
// register writes at all, unlock sequence included.
func (d *Driver) SetPinMode(pin PinID, mode Mode) error {
	if d.status == StatusNotInitialized {
		d.report(ServiceSetPinMode, faultcode.Uninitialized)
		return faultcode.Uninitialized
	}
	if int(pin) >= len(d.cfg.Pins) {
		d.report(ServiceSetPinMode, faultcode.InvalidPin)
		return faultcode.InvalidPin
	}
	pc := &d.cfg.Pins[pin]
	if !pc.ModeChangeable {
		d.report(ServiceSetPinMode, faultcode.ModeLocked)
		return faultcode.ModeLocked
	}
	if !validPin(pc.Port, pc.Channel) {
		d.report(ServiceSetPinMode, faultcode.InvalidPin)
		return faultcode.InvalidPin
	}

	switch mode {
	case ModeDigitalIO:
		blk := d.ports[pc.Port]
		ch := uint8(pc.Channel)
		if needsUnlock(pc.Port, pc.Channel) {
			blk.Unlock(ch)
		}
		applyDigitalIO(blk, ch)
		return nil
	default:
		d.report(ServiceSetPinMode, faultcode.UnsupportedMode)
		return faultcode.UnsupportedMode
	}
}

// VersionInfo fills vi from compile-time constants. Independent of driver
// state; a nil slot reports NullArgument.
func (d *Driver) VersionInfo(vi *VersionInfo) error {
	if vi == nil {
		d.report(ServiceVersionInfo, faultcode.NullArgument)
		return faultcode.NullArgument
	}
	vi.VendorID = VendorID
	vi.ModuleID = ModuleID
	vi.Major = SWMajorVersion
	vi.Minor = SWMinorVersion
	vi.Patch = SWPatchVersion
	return nil
}

// applyResistor programs the weak pull of an input channel. The opposite
// pull bit is cleared before the requested one is set, so both are never
// asserted at once while switching between pulls.
func applyResistor(blk *tm4c123.PortBlock, ch uint8, r Resistor) {
	switch r {
	case PullUp:
		blk.PullDown.ClearBit(ch)
		blk.PullUp.SetBit(ch)
	case PullDown:
		blk.PullUp.ClearBit(ch)
		blk.PullDown.SetBit(ch)
	default:
		blk.PullUp.ClearBit(ch)
		blk.PullDown.ClearBit(ch)
	}
}

// applyDigitalIO selects plain digital I/O: analog off, alternate function
// off, function-select nibble cleared, digital buffer enabled.
func applyDigitalIO(blk *tm4c123.PortBlock, ch uint8) {
	blk.AnalogMode.ClearBit(ch)
	blk.AltFunc.ClearBit(ch)
	blk.ClearControlNibble(ch)
	blk.DigitalEnable.SetBit(ch)
}
