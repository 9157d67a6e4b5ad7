// drivers/tm4c123/sim_test.go
package tm4c123

import "testing"

func TestSimJournalsStores(t *testing.T) {
	s := NewSim()

	s.Store(0x100, 0xAB)
	s.Store(0x104, 0xCD)
	s.Store(0x100, 0xEF)

	if s.Load(0x100) != 0xEF {
		t.Errorf("load = %#x", s.Load(0x100))
	}
	if s.WriteCount() != 3 {
		t.Errorf("write count = %d", s.WriteCount())
	}
	if s.WritesTo(0x100) != 2 {
		t.Errorf("writes to 0x100 = %d", s.WritesTo(0x100))
	}
	w := s.Writes()
	if w[0] != (Access{0x100, 0xAB}) || w[2] != (Access{0x100, 0xEF}) {
		t.Errorf("journal = %#v", w)
	}
}

func TestSimPokeBypassesJournal(t *testing.T) {
	s := NewSim()

	s.Poke(0x200, 0xFF)
	if s.WriteCount() != 0 {
		t.Error("poke must not be journalled")
	}
	if s.Load(0x200) != 0xFF {
		t.Error("poke must still change the word")
	}
}

func TestSimUnmappedReadsZero(t *testing.T) {
	s := NewSim()
	if s.Load(0xDEAD_BEEC) != 0 {
		t.Error("unmapped word must read zero")
	}
}

func TestSimResetJournalKeepsState(t *testing.T) {
	s := NewSim()
	s.Store(0x100, 1)
	s.ResetJournal()
	if s.WriteCount() != 0 || s.Load(0x100) != 1 {
		t.Error("reset must clear journal only")
	}
}
