package vm

import "testing"

type fakeInput byte

func (f fakeInput) Mask() byte { return byte(f) }

func TestMemory_ReadWrite(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.Write(0x0200, 0x42)

	if got := m.Read(0x0200); got != 0x42 {
		t.Errorf("got %#02x, want %#02x", got, 0x42)
	}
}

func TestMemory_WordIsLittleEndian(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.WriteWord(0x0200, 0x1234)

	if got := m.Read(0x0200); got != 0x34 {
		t.Errorf("low byte: got %#02x, want %#02x", got, 0x34)
	}

	if got := m.Read(0x0201); got != 0x12 {
		t.Errorf("high byte: got %#02x, want %#02x", got, 0x12)
	}

	if got := m.ReadWord(0x0200); got != 0x1234 {
		t.Errorf("ReadWord: got %#04x, want %#04x", got, 0x1234)
	}
}

func TestMemory_InputRegisterIsLive(t *testing.T) {
	t.Parallel()

	m := NewMemory()

	if got := m.Read(InputAddr); got != 0 {
		t.Errorf("no input attached: got %#02x, want 0", got)
	}

	m.Input = fakeInput(0x55)

	if got := m.Read(InputAddr); got != 0x55 {
		t.Errorf("got %#02x, want %#02x", got, 0x55)
	}
}

func TestMemory_InputRegisterIsReadOnly(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.Input = fakeInput(0x01)

	m.Write(InputAddr, 0xFF)

	if got := m.Read(InputAddr); got != 0x01 {
		t.Errorf("write to input register was not discarded: got %#02x", got)
	}
}

func TestMemory_Load(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.Load(0x0300, []byte{1, 2, 3})

	for i, want := range []byte{1, 2, 3} {
		if got := m.Read(uint16(0x0300 + i)); got != want {
			t.Errorf("byte[%d]: got %#02x, want %#02x", i, got, want)
		}
	}
}

func TestOpcodeError(t *testing.T) {
	t.Parallel()

	err := &OpcodeError{PC: 0x0200, Opcode: 0xFF}

	if got, want := err.Error(), "0x0200: invalid opcode 0xff"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
