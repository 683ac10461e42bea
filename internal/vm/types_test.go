package vm

import "testing"

func TestRegisters_ReadZero(t *testing.T) {
	t.Parallel()

	var r Registers
	r[RegZero] = 0xFF // writeReg never lets this happen, but Read must too

	if got := r.Read(RegZero); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestRegisters_ReadOrdinary(t *testing.T) {
	t.Parallel()

	var r Registers
	r[5] = 0x42
	r[RegSP] = 0x10

	if got := r.Read(5); got != 0x42 {
		t.Errorf("r[5]: got %#02x, want %#02x", got, 0x42)
	}

	if got := r.Read(RegSP); got != 0x10 {
		t.Errorf("r[SP]: got %#02x, want %#02x", got, 0x10)
	}
}

func TestFlags_FromValue(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		v            byte
		zero, negate bool
	}{
		{0, true, false},
		{1, false, false},
		{0x80, false, true},
		{0xFF, false, true},
	}

	for _, tc := range tcs {
		var f Flags

		f.fromValue(tc.v)

		if f.Zero != tc.zero {
			t.Errorf("value %#02x: zero: got %v, want %v", tc.v, f.Zero, tc.zero)
		}

		if f.Negative != tc.negate {
			t.Errorf("value %#02x: negative: got %v, want %v", tc.v, f.Negative, tc.negate)
		}
	}
}

func TestFlags_String(t *testing.T) {
	t.Parallel()

	f := Flags{Carry: true, Zero: true}
	if got, want := f.String(), "C-Z-"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
