// Package tm4c123 provides the GPIO register map of the TM4C123 (Tiva-C,
// Cortex-M4) microcontroller family and typed handles for accessing it
// through a word-addressable memory backing.
package tm4c123

const (
	// NumPorts is the number of GPIO port blocks (A..F).
	NumPorts = 6

	// NumChannels is the number of pins per port block.
	NumChannels = 8

	// LockKey unlocks the commit register of a port block. Writing any
	// other value re-locks it.
	LockKey = 0x4C4F434B
)

// --- Port block base addresses (APB aperture) ---

const (
	PortABase = 0x4000_4000
	PortBBase = 0x4000_5000
	PortCBase = 0x4000_6000
	PortDBase = 0x4000_7000
	PortEBase = 0x4002_4000
	PortFBase = 0x4002_5000
)

// PortBases maps port ordinals 0..5 (A..F) to block base addresses.
var PortBases = [NumPorts]uint32{
	PortABase, PortBBase, PortCBase, PortDBase, PortEBase, PortFBase,
}

// --- Register offsets within a port block ---

const (
	offData          = 0x3FC // GPIODATA, full-mask alias
	offDir           = 0x400 // GPIODIR
	offAltFunc       = 0x420 // GPIOAFSEL
	offPullUp        = 0x510 // GPIOPUR
	offPullDown      = 0x514 // GPIOPDR
	offDigitalEnable = 0x51C // GPIODEN
	offLock          = 0x520 // GPIOLOCK
	offCommit        = 0x524 // GPIOCR
	offAnalogMode    = 0x528 // GPIOAMSEL
	offPortControl   = 0x52C // GPIOPCTL, 4 bits per channel
)

// --- System control ---

const (
	// RCGCGPIOAddr is the GPIO run-mode clock gating register; one enable
	// bit per port, same ordering as PortBases.
	RCGCGPIOAddr = 0x400F_E608
)

// -----------------------------------------------------------------------------
// Memory access
// -----------------------------------------------------------------------------

// Memory is word-addressable backing for the register space. Implementations
// are Sim (in-memory, for tests and demos) and DevMem (a mapped physical
// window on Linux hosts).
type Memory interface {
	Load(addr uint32) uint32
	Store(addr uint32, v uint32)
}

// Reg32 is a typed handle on one 32-bit register.
type Reg32 struct {
	mem  Memory
	addr uint32
}

func NewReg32(mem Memory, addr uint32) Reg32 { return Reg32{mem: mem, addr: addr} }

func (r Reg32) Addr() uint32    { return r.addr }
func (r Reg32) Load() uint32    { return r.mem.Load(r.addr) }
func (r Reg32) Store(v uint32)  { r.mem.Store(r.addr, v) }
func (r Reg32) Bit(n uint8) bool {
	return r.Load()&(1<<n) != 0
}

func (r Reg32) SetBit(n uint8) {
	r.Store(r.Load() | 1<<n)
}

func (r Reg32) ClearBit(n uint8) {
	r.Store(r.Load() &^ (1 << n))
}

// -----------------------------------------------------------------------------
// Port block
// -----------------------------------------------------------------------------

// PortBlock is the register file of one GPIO port, one handle per named
// register. All pin configuration goes through these handles; there is no
// offset arithmetic at call sites.
type PortBlock struct {
	Data          Reg32
	Dir           Reg32
	AltFunc       Reg32
	PullUp        Reg32
	PullDown      Reg32
	DigitalEnable Reg32
	Lock          Reg32
	Commit        Reg32
	AnalogMode    Reg32
	PortControl   Reg32
}

// NewPortBlock lays a register file over mem at the given block base.
func NewPortBlock(mem Memory, base uint32) *PortBlock {
	return &PortBlock{
		Data:          NewReg32(mem, base+offData),
		Dir:           NewReg32(mem, base+offDir),
		AltFunc:       NewReg32(mem, base+offAltFunc),
		PullUp:        NewReg32(mem, base+offPullUp),
		PullDown:      NewReg32(mem, base+offPullDown),
		DigitalEnable: NewReg32(mem, base+offDigitalEnable),
		Lock:          NewReg32(mem, base+offLock),
		Commit:        NewReg32(mem, base+offCommit),
		AnalogMode:    NewReg32(mem, base+offAnalogMode),
		PortControl:   NewReg32(mem, base+offPortControl),
	}
}

// Ports lays register files over mem for all six port blocks, indexed by
// port ordinal.
func Ports(mem Memory) [NumPorts]*PortBlock {
	var out [NumPorts]*PortBlock
	for i, base := range PortBases {
		out[i] = NewPortBlock(mem, base)
	}
	return out
}

// Unlock runs the lock/commit sequence for one channel: write the key to
// GPIOLOCK, then set the channel's commit bit. Hardware silently ignores
// writes to DIR/AFSEL/PUR/PDR/DEN for protected channels until this has run.
func (p *PortBlock) Unlock(ch uint8) {
	p.Lock.Store(LockKey)
	p.Commit.SetBit(ch)
}

// ClearControlNibble clears the channel's 4-bit function-select field in
// GPIOPCTL.
func (p *PortBlock) ClearControlNibble(ch uint8) {
	v := p.PortControl.Load()
	p.PortControl.Store(v &^ (0xF << (uint32(ch) * 4)))
}

// -----------------------------------------------------------------------------
// System control
// -----------------------------------------------------------------------------

// SysCtl exposes the system-control registers the GPIO driver touches.
type SysCtl struct {
	RunClockGate Reg32 // RCGCGPIO
}

func NewSysCtl(mem Memory) *SysCtl {
	return &SysCtl{RunClockGate: NewReg32(mem, RCGCGPIOAddr)}
}

// EnableGPIOClock opens the run-mode clock gate for a port ordinal.
// Idempotent at the hardware level; callers avoid redundant writes anyway.
func (s *SysCtl) EnableGPIOClock(port uint8) {
	s.RunClockGate.SetBit(port)
}
