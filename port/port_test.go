// port/port_test.go
package port

import (
	"testing"

	"github.com/stretchr/testify/require"

	"portdrv-go/det"
	"portdrv-go/drivers/tm4c123"
	"portdrv-go/faultcode"
)

// launchpadTable is the board default: red LED on PF1 driven high, user
// switch SW1 on PF4 as a pull-up input with a fixed direction.
func launchpadTable() *Config {
	return &Config{Pins: []PinConfig{
		{Port: PortF, Channel: 1, Mode: ModeDigitalIO, Direction: Out,
			InitialLevel: High, DirChangeable: true, ModeChangeable: true},
		{Port: PortF, Channel: 4, Mode: ModeDigitalIO, Direction: In,
			Resistor: PullUp},
	}}
}

func newDriver(t *testing.T) (*Driver, *tm4c123.Sim, *det.Recorder) {
	t.Helper()
	mem := tm4c123.NewSim()
	rec := det.NewRecorder()
	return New(mem, rec), mem, rec
}

func portF(mem *tm4c123.Sim) *tm4c123.PortBlock {
	return tm4c123.NewPortBlock(mem, tm4c123.PortFBase)
}

// ---------- Init ----------

func TestInit_NilConfig(t *testing.T) {
	drv, mem, rec := newDriver(t)

	err := drv.Init(nil)
	require.ErrorIs(t, err, faultcode.InvalidConfig)
	require.True(t, rec.Has(ServiceInit, faultcode.InvalidConfig))
	require.Equal(t, 0, mem.WriteCount(), "nil config must not touch registers")
	require.Equal(t, StatusNotInitialized, drv.Status())
}

func TestInit_LaunchpadTable(t *testing.T) {
	drv, mem, rec := newDriver(t)

	require.NoError(t, drv.Init(launchpadTable()))
	require.Equal(t, StatusInitialized, drv.Status())
	require.Equal(t, 0, rec.Count())

	f := portF(mem)

	// PF1: output, high, digital, no pulls, no alternate function.
	require.True(t, f.Dir.Bit(1))
	require.True(t, f.Data.Bit(1))
	require.True(t, f.DigitalEnable.Bit(1))
	require.False(t, f.AltFunc.Bit(1))
	require.False(t, f.AnalogMode.Bit(1))
	require.False(t, f.PullUp.Bit(1))
	require.False(t, f.PullDown.Bit(1))

	// PF4: input, pull-up only, digital.
	require.False(t, f.Dir.Bit(4))
	require.True(t, f.PullUp.Bit(4))
	require.False(t, f.PullDown.Bit(4))
	require.True(t, f.DigitalEnable.Bit(4))

	// Function-select nibbles cleared for both channels.
	require.Zero(t, f.PortControl.Load()&(0xF<<4))
	require.Zero(t, f.PortControl.Load()&(0xF<<16))

	// Clock gate for port F.
	require.True(t, mem.Bit(tm4c123.RCGCGPIOAddr, uint8(PortF)))
}

func TestInit_ClockEnabledOncePerPort(t *testing.T) {
	drv, mem, _ := newDriver(t)

	require.NoError(t, drv.Init(launchpadTable()))
	require.Equal(t, 1, mem.WritesTo(tm4c123.RCGCGPIOAddr),
		"one clock gate write per port, not per pin")
}

func TestInit_SkipsInvalidEntry(t *testing.T) {
	drv, mem, rec := newDriver(t)

	cfg := &Config{Pins: []PinConfig{
		{Port: PortF, Channel: 1, Mode: ModeDigitalIO, Direction: Out, InitialLevel: High},
		{Port: PortID(9), Channel: 3, Mode: ModeDigitalIO, Direction: Out},
		{Port: PortF, Channel: 2, Mode: ModeDigitalIO, Direction: Out, InitialLevel: Low},
	}}
	require.NoError(t, drv.Init(cfg))
	require.Equal(t, StatusInitialized, drv.Status())
	require.True(t, rec.Has(ServiceInit, faultcode.InvalidPin))
	require.Equal(t, 1, rec.Count(), "exactly one fault for the bad entry")

	// Entries before and after the bad one are both programmed.
	f := portF(mem)
	require.True(t, f.Dir.Bit(1))
	require.True(t, f.Dir.Bit(2))
}

func TestInit_InvalidChannelSkipped(t *testing.T) {
	drv, _, rec := newDriver(t)

	cfg := &Config{Pins: []PinConfig{
		{Port: PortF, Channel: 8, Mode: ModeDigitalIO, Direction: In},
	}}
	require.NoError(t, drv.Init(cfg))
	require.True(t, rec.Has(ServiceInit, faultcode.InvalidPin))
}

func TestInit_UnsupportedModeSkipsFunctionWrites(t *testing.T) {
	drv, mem, rec := newDriver(t)

	cfg := &Config{Pins: []PinConfig{
		{Port: PortF, Channel: 2, Mode: Mode(7), Direction: Out, InitialLevel: High},
		{Port: PortF, Channel: 3, Mode: ModeDigitalIO, Direction: Out},
	}}
	require.NoError(t, drv.Init(cfg))
	require.True(t, rec.Has(ServiceInit, faultcode.UnsupportedMode))

	f := portF(mem)
	// The direction writes for the bad entry land, its function writes do
	// not, and the following entry is fully programmed.
	require.True(t, f.Dir.Bit(2))
	require.False(t, f.DigitalEnable.Bit(2))
	require.True(t, f.DigitalEnable.Bit(3))
}

func TestInit_LatchesConfigReference(t *testing.T) {
	drv, _, _ := newDriver(t)
	cfg := launchpadTable()
	require.NoError(t, drv.Init(cfg))
	require.Same(t, cfg, drv.Config())
}

// ---------- Lifecycle guards ----------

func TestOpsBeforeInit(t *testing.T) {
	drv, mem, rec := newDriver(t)

	require.ErrorIs(t, drv.SetPinDirection(0, Out), faultcode.Uninitialized)
	require.ErrorIs(t, drv.RefreshPortDirection(), faultcode.Uninitialized)
	require.ErrorIs(t, drv.SetPinMode(0, ModeDigitalIO), faultcode.Uninitialized)

	require.True(t, rec.Has(ServiceSetPinDirection, faultcode.Uninitialized))
	require.True(t, rec.Has(ServiceRefreshPortDirection, faultcode.Uninitialized))
	require.True(t, rec.Has(ServiceSetPinMode, faultcode.Uninitialized))
	require.Equal(t, 0, mem.WriteCount(), "guard failures must not touch registers")

	// Version info has no lifecycle dependency.
	var vi VersionInfo
	require.NoError(t, drv.VersionInfo(&vi))
	require.Equal(t, uint16(124), vi.ModuleID)
}

// ---------- SetPinDirection ----------

func TestSetPinDirection_TouchesOnlyDirectionBit(t *testing.T) {
	drv, mem, _ := newDriver(t)
	require.NoError(t, drv.Init(launchpadTable()))

	f := portF(mem)
	mem.ResetJournal()

	require.NoError(t, drv.SetPinDirection(0, In))
	require.False(t, f.Dir.Bit(1))
	require.True(t, f.Data.Bit(1), "output level must survive the change")
	for _, w := range mem.Writes() {
		require.Equal(t, f.Dir.Addr(), w.Addr, "only the direction register may be written")
	}

	require.NoError(t, drv.SetPinDirection(0, Out))
	require.True(t, f.Dir.Bit(1))
}

func TestSetPinDirection_FixedPin(t *testing.T) {
	drv, mem, rec := newDriver(t)
	require.NoError(t, drv.Init(launchpadTable()))
	mem.ResetJournal()

	require.ErrorIs(t, drv.SetPinDirection(1, Out), faultcode.DirectionLocked)
	require.True(t, rec.Has(ServiceSetPinDirection, faultcode.DirectionLocked))
	require.Equal(t, 0, mem.WriteCount())
}

func TestSetPinDirection_OutOfRangePin(t *testing.T) {
	drv, mem, rec := newDriver(t)
	require.NoError(t, drv.Init(launchpadTable()))
	mem.ResetJournal()

	require.ErrorIs(t, drv.SetPinDirection(5, Out), faultcode.InvalidPin)
	require.True(t, rec.Has(ServiceSetPinDirection, faultcode.InvalidPin))
	require.Equal(t, 0, mem.WriteCount())
}

// ---------- RefreshPortDirection ----------

func TestRefresh_RestoresOnlyFixedPins(t *testing.T) {
	drv, mem, rec := newDriver(t)
	require.NoError(t, drv.Init(launchpadTable()))

	f := portF(mem)

	// Tamper with both directions behind the driver's back.
	dir := mem.Peek(f.Dir.Addr())
	mem.Poke(f.Dir.Addr(), dir&^(1<<1)|1<<4) // PF1 forced to input, PF4 to output

	require.NoError(t, drv.RefreshPortDirection())

	require.False(t, f.Dir.Bit(4), "fixed PF4 must be restored to input")
	require.False(t, f.Dir.Bit(1), "changeable PF1 is none of refresh's business")
	require.Equal(t, 0, rec.Count())
}

// ---------- SetPinMode ----------

func TestSetPinMode_DigitalIO(t *testing.T) {
	drv, mem, _ := newDriver(t)
	require.NoError(t, drv.Init(launchpadTable()))

	f := portF(mem)
	// Tamper: pretend another driver handed PF1 to an alternate function.
	mem.Poke(f.AltFunc.Addr(), 1<<1)

	require.NoError(t, drv.SetPinMode(0, ModeDigitalIO))
	require.False(t, f.AltFunc.Bit(1))
	require.True(t, f.DigitalEnable.Bit(1))
}

func TestSetPinMode_UnsupportedModeWritesNothing(t *testing.T) {
	drv, mem, rec := newDriver(t)

	// PF0 so a mode change would involve the unlock sequence; refusal must
	// suppress even that.
	cfg := &Config{Pins: []PinConfig{
		{Port: PortF, Channel: 0, Mode: ModeDigitalIO, Direction: In,
			Resistor: PullUp, ModeChangeable: true},
	}}
	require.NoError(t, drv.Init(cfg))
	mem.ResetJournal()

	require.ErrorIs(t, drv.SetPinMode(0, Mode(3)), faultcode.UnsupportedMode)
	require.True(t, rec.Has(ServiceSetPinMode, faultcode.UnsupportedMode))
	require.Equal(t, 0, mem.WriteCount(), "refused mode change must not write, unlock included")
}

func TestSetPinMode_FixedPin(t *testing.T) {
	drv, mem, rec := newDriver(t)
	require.NoError(t, drv.Init(launchpadTable()))
	mem.ResetJournal()

	require.ErrorIs(t, drv.SetPinMode(1, ModeDigitalIO), faultcode.ModeLocked)
	require.True(t, rec.Has(ServiceSetPinMode, faultcode.ModeLocked))
	require.Equal(t, 0, mem.WriteCount())
}

// ---------- Commit-locked pins ----------

func TestUnlockPrecedesDirectionWrite(t *testing.T) {
	drv, mem, _ := newDriver(t)

	// PF0 is commit-locked (it can raise NMIs); the lock key and commit
	// bit must land before its direction bit.
	cfg := &Config{Pins: []PinConfig{
		{Port: PortF, Channel: 0, Mode: ModeDigitalIO, Direction: In,
			Resistor: PullUp},
	}}
	require.NoError(t, drv.Init(cfg))

	f := portF(mem)
	requireOrdered(t, mem, f.Lock.Addr(), f.Commit.Addr(), f.Dir.Addr())

	lockWrites := mem.WritesTo(f.Lock.Addr())
	require.GreaterOrEqual(t, lockWrites, 1)
	for _, w := range mem.Writes() {
		if w.Addr == f.Lock.Addr() {
			require.Equal(t, uint32(tm4c123.LockKey), w.Value)
		}
	}

	// The refresh pass unlocks again before rewriting the direction.
	mem.ResetJournal()
	require.NoError(t, drv.RefreshPortDirection())
	requireOrdered(t, mem, f.Lock.Addr(), f.Commit.Addr(), f.Dir.Addr())
}

func TestPD7IsCommitLocked(t *testing.T) {
	drv, mem, _ := newDriver(t)

	cfg := &Config{Pins: []PinConfig{
		{Port: PortD, Channel: 7, Mode: ModeDigitalIO, Direction: Out,
			InitialLevel: Low, DirChangeable: true},
	}}
	require.NoError(t, drv.Init(cfg))

	d := tm4c123.NewPortBlock(mem, tm4c123.PortDBase)
	require.True(t, d.Commit.Bit(7))

	mem.ResetJournal()
	require.NoError(t, drv.SetPinDirection(0, In))
	requireOrdered(t, mem, d.Lock.Addr(), d.Commit.Addr(), d.Dir.Addr())
}

// requireOrdered asserts that the first write to each address appears in
// the journal in the given order.
func requireOrdered(t *testing.T, mem *tm4c123.Sim, addrs ...uint32) {
	t.Helper()
	writes := mem.Writes()
	last := -1
	for _, addr := range addrs {
		idx := -1
		for i, w := range writes {
			if w.Addr == addr {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0, "no write to %#x", addr)
		require.Greater(t, idx, last, "write to %#x out of order", addr)
		last = idx
	}
}

// ---------- Resistors ----------

func TestResistorSwitchNeverAssertsBoth(t *testing.T) {
	drv, mem, _ := newDriver(t)

	cfg := &Config{Pins: []PinConfig{
		{Port: PortB, Channel: 5, Mode: ModeDigitalIO, Direction: In, Resistor: PullUp},
	}}
	require.NoError(t, drv.Init(cfg))

	b := tm4c123.NewPortBlock(mem, tm4c123.PortBBase)
	require.True(t, b.PullUp.Bit(5))

	// Re-init with the opposite pull and replay the journal: at no point
	// may both pull bits be set for the channel.
	cfg2 := &Config{Pins: []PinConfig{
		{Port: PortB, Channel: 5, Mode: ModeDigitalIO, Direction: In, Resistor: PullDown},
	}}
	mem.ResetJournal()
	require.NoError(t, drv.Init(cfg2))

	up, down := uint32(0), uint32(0)
	for _, w := range mem.Writes() {
		switch w.Addr {
		case b.PullUp.Addr():
			up = w.Value
		case b.PullDown.Addr():
			down = w.Value
		}
		require.Zero(t, up&down&(1<<5), "both pulls asserted at once")
	}
	require.True(t, b.PullDown.Bit(5))
	require.False(t, b.PullUp.Bit(5))
}

func TestResistorOffClearsBoth(t *testing.T) {
	drv, mem, _ := newDriver(t)

	cfg := &Config{Pins: []PinConfig{
		{Port: PortB, Channel: 5, Mode: ModeDigitalIO, Direction: In, Resistor: PullDown},
	}}
	require.NoError(t, drv.Init(cfg))

	cfg2 := &Config{Pins: []PinConfig{
		{Port: PortB, Channel: 5, Mode: ModeDigitalIO, Direction: In, Resistor: ResistorOff},
	}}
	require.NoError(t, drv.Init(cfg2))

	b := tm4c123.NewPortBlock(mem, tm4c123.PortBBase)
	require.False(t, b.PullUp.Bit(5))
	require.False(t, b.PullDown.Bit(5))
}

// ---------- Version info ----------

func TestVersionInfo(t *testing.T) {
	drv, _, _ := newDriver(t)

	var vi VersionInfo
	require.NoError(t, drv.VersionInfo(&vi))
	require.Equal(t, uint16(1000), vi.VendorID)
	require.Equal(t, uint16(124), vi.ModuleID)
	require.Equal(t, uint8(1), vi.Major)
	require.Equal(t, uint8(0), vi.Minor)
	require.Equal(t, uint8(0), vi.Patch)
}

func TestVersionInfo_NilSlot(t *testing.T) {
	drv, _, rec := newDriver(t)

	require.ErrorIs(t, drv.VersionInfo(nil), faultcode.NullArgument)
	require.True(t, rec.Has(ServiceVersionInfo, faultcode.NullArgument))
}
