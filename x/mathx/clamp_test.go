package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 10) != 5 || Clamp(-1, 0, 10) != 0 || Clamp(11, 0, 10) != 10 {
		t.Error("int clamp")
	}
	if Clamp(5, 10, 0) != 5 {
		t.Error("swapped bounds")
	}
}

func TestBetween(t *testing.T) {
	if !Between(0, 0, 7) || !Between(7, 0, 7) || Between(8, 0, 7) {
		t.Error("int between")
	}
	if !Between(3, 7, 0) {
		t.Error("swapped bounds")
	}
}
