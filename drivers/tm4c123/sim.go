package tm4c123

import (
	"sync"
)

// Sim is an in-memory register space for driving the GPIO driver from tests
// and host demos. It records every Store in an append-only journal so tests
// can assert write counts and ordering (for example that a lock write lands
// before a direction write). Unmapped words read as zero, matching the
// reset state of the registers the driver touches.
//
// Sim is mutex-guarded so a test may tamper with registers while a service
// goroutine owns the driver; the driver itself stays single-context.
type Sim struct {
	mu      sync.Mutex
	words   map[uint32]uint32
	journal []Access
}

// Access is one journalled register write.
type Access struct {
	Addr  uint32
	Value uint32
}

func NewSim() *Sim {
	return &Sim{words: make(map[uint32]uint32)}
}

func (s *Sim) Load(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[addr]
}

func (s *Sim) Store(addr uint32, v uint32) {
	s.mu.Lock()
	s.words[addr] = v
	s.journal = append(s.journal, Access{Addr: addr, Value: v})
	s.mu.Unlock()
}

// Peek reads a word without going through the driver-facing interface.
func (s *Sim) Peek(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[addr]
}

// Poke writes a word without journalling. Used to model external tampering
// with the register file.
func (s *Sim) Poke(addr uint32, v uint32) {
	s.mu.Lock()
	s.words[addr] = v
	s.mu.Unlock()
}

// Bit reports one bit of a word.
func (s *Sim) Bit(addr uint32, n uint8) bool {
	return s.Peek(addr)&(1<<n) != 0
}

// Writes returns a copy of the journal.
func (s *Sim) Writes() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Access, len(s.journal))
	copy(out, s.journal)
	return out
}

// WriteCount returns the number of journalled writes.
func (s *Sim) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.journal)
}

// WritesTo returns the number of journalled writes to one address.
func (s *Sim) WritesTo(addr uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.journal {
		if a.Addr == addr {
			n++
		}
	}
	return n
}

// ResetJournal clears the journal but keeps register contents.
func (s *Sim) ResetJournal() {
	s.mu.Lock()
	s.journal = nil
	s.mu.Unlock()
}
