package vm

import (
	"errors"
	"testing"

	"github.com/PBnJK/frame/internal/asm"
)

// newRunCPU builds a CPU whose reset vector points at 0x0200 and whose
// program bytes are loaded starting there, ready for Step.
func newRunCPU(t *testing.T, program []byte) (*CPU, *Memory) {
	t.Helper()

	mem := NewMemory()
	mem.WriteWord(ResetVectorLow, 0x0200)
	mem.Load(0x0200, program)

	return New(mem), mem
}

func op(t *testing.T, mnemonic string, mode asm.Mode) byte {
	t.Helper()

	o, _, ok := asm.Encode(mnemonic, mode)
	if !ok {
		t.Fatalf("no opcode for %s/%s", mnemonic, mode)
	}

	return byte(o)
}

func TestStep_MovImmediate(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "mov", asm.ModeAK), 1, 72})

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 72 {
		t.Errorf("R1: got %d, want 72", cpu.Reg[1])
	}

	if cpu.PC != 0x0203 {
		t.Errorf("PC: got %#04x, want %#04x", cpu.PC, 0x0203)
	}
}

func TestStep_MovRegToReg(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "mov", asm.ModeAB), 2<<4 | 1})
	cpu.Reg[2] = 9

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 9 {
		t.Errorf("R1: got %d, want 9", cpu.Reg[1])
	}
}

func TestStep_MovStoreAndLoad(t *testing.T) {
	t.Parallel()

	program := []byte{
		op(t, "mov", asm.ModeAK), 1, 0x42, // mov $1, 0x42
		op(t, "mov", asm.ModePA), 0x00, 0x03, 1, // mov %300, $1
		op(t, "mov", asm.ModeAP), 2, 0x00, 0x03, // mov $2, %300
	}

	cpu, mem := newRunCPU(t, program)

	for i := 0; i < 3; i++ {
		if err := cpu.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if got := mem.Read(0x0300); got != 0x42 {
		t.Errorf("mem[0x300]: got %#02x, want %#02x", got, 0x42)
	}

	if cpu.Reg[2] != 0x42 {
		t.Errorf("R2: got %#02x, want %#02x", cpu.Reg[2], 0x42)
	}
}

func TestStep_MovIndirect(t *testing.T) {
	t.Parallel()

	program := []byte{op(t, "mov", asm.ModeAIB), 2<<4 | 1, 0x10}

	cpu, mem := newRunCPU(t, program)
	mem.WriteWord(0x10, 0x0300)
	mem.Write(0x0305, 0x99)
	cpu.Reg[2] = 5

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 0x99 {
		t.Errorf("R1: got %#02x, want %#02x", cpu.Reg[1], 0x99)
	}
}

func TestStep_AddSetsCarryOnOverflow(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "add", asm.ModeAK), 1, 10})
	cpu.Reg[1] = 250

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 4 {
		t.Errorf("R1: got %d, want 4", cpu.Reg[1])
	}

	if !cpu.Flags.Carry {
		t.Error("expected carry set on overflow")
	}
}

func TestStep_AddThreeRegisterForm(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "add", asm.ModeABC), 3<<4 | 1, 2})
	cpu.Reg[2] = 5
	cpu.Reg[3] = 7

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 12 {
		t.Errorf("R1: got %d, want 12", cpu.Reg[1])
	}
}

func TestStep_EquSetsZero(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "equ", asm.ModeAK), 1, 5})
	cpu.Reg[1] = 5

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if !cpu.Flags.Zero {
		t.Error("expected zero flag set for equal operands")
	}
}

func TestStep_NotInvertsZero(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "not", asm.ModeA), 1})
	cpu.Flags.Zero = false

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if !cpu.Flags.Zero {
		t.Error("expected zero flag inverted to true")
	}

	if cpu.Reg[1] != 1 {
		t.Errorf("R1: got %d, want 1", cpu.Reg[1])
	}
}

func TestStep_ChyCopiesCarryToZero(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "chy", asm.ModeO)})
	cpu.Flags.Carry = true

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if !cpu.Flags.Zero {
		t.Error("expected zero flag copied from carry")
	}
}

func TestStep_ShiftsAndRotates(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "lsh", asm.ModeA), 1})
	cpu.Reg[1] = 0x81

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 0x02 {
		t.Errorf("R1: got %#02x, want %#02x", cpu.Reg[1], 0x02)
	}

	if !cpu.Flags.Carry {
		t.Error("expected carry set from the shifted-out high bit")
	}
}

func TestStep_RolFeedsCarryBackIn(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "rol", asm.ModeA), 1})
	cpu.Reg[1] = 0x01
	cpu.Flags.Carry = true

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 0x03 {
		t.Errorf("R1: got %#02x, want %#02x", cpu.Reg[1], 0x03)
	}
}

func TestStep_IncDecWrap(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "inc", asm.ModeA), 1})
	cpu.Reg[1] = 0xFF

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.Reg[1] != 0 {
		t.Errorf("R1: got %d, want 0", cpu.Reg[1])
	}

	if !cpu.Flags.Zero {
		t.Error("expected zero flag after wrapping to 0")
	}
}

func TestStep_PushPopRoundTrip(t *testing.T) {
	t.Parallel()

	program := []byte{
		op(t, "push", asm.ModeA), 1,
		op(t, "pop", asm.ModeA), 2,
	}

	cpu, _ := newRunCPU(t, program)
	cpu.Reg[1] = 0x55

	if err := cpu.Step(); err != nil {
		t.Fatalf("push step: %v", err)
	}

	if err := cpu.Step(); err != nil {
		t.Fatalf("pop step: %v", err)
	}

	if cpu.Reg[2] != 0x55 {
		t.Errorf("R2: got %#02x, want %#02x", cpu.Reg[2], 0x55)
	}
}

func TestStep_PushRecomputesZeroFlag(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "push", asm.ModeA), 1})
	cpu.Reg[1] = 0
	cpu.Flags.Zero = false

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if !cpu.Flags.Zero {
		t.Error("pushing 0 should set the zero flag, per the memory-write flag rule")
	}
}

func TestStep_PopDiscardRecomputesFlags(t *testing.T) {
	t.Parallel()

	program := []byte{
		op(t, "push", asm.ModeA), 1,
		op(t, "pop", asm.ModeO),
	}

	cpu, _ := newRunCPU(t, program)
	cpu.Reg[1] = 0x80
	cpu.Flags.Negative = false

	if err := cpu.Step(); err != nil {
		t.Fatalf("push step: %v", err)
	}

	cpu.Flags.Negative = false // pushing 0x80 already set it; clear it to isolate pop's effect

	if err := cpu.Step(); err != nil {
		t.Fatalf("pop step: %v", err)
	}

	if !cpu.Flags.Negative {
		t.Error("discarding a popped 0x80 should still set the negative flag")
	}
}

func TestStep_CallRet(t *testing.T) {
	t.Parallel()

	program := []byte{
		op(t, "call", asm.ModeP), 0x10, 0x02, // call 0x0210
	}

	cpu, mem := newRunCPU(t, program)
	mem.Write(0x0210, op(t, "ret", asm.ModeO))

	if err := cpu.Step(); err != nil {
		t.Fatalf("call step: %v", err)
	}

	if cpu.PC != 0x0210 {
		t.Fatalf("PC after call: got %#04x, want %#04x", cpu.PC, 0x0210)
	}

	if err := cpu.Step(); err != nil {
		t.Fatalf("ret step: %v", err)
	}

	if cpu.PC != 0x0203 {
		t.Errorf("PC after ret: got %#04x, want %#04x", cpu.PC, 0x0203)
	}
}

func TestStep_Halt(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{op(t, "hlt", asm.ModeO)})

	if err := cpu.Step(); !errors.Is(err, ErrHalted) {
		t.Fatalf("got %v, want ErrHalted", err)
	}
}

func TestStep_InvalidOpcode(t *testing.T) {
	t.Parallel()

	cpu, _ := newRunCPU(t, []byte{0xFF})

	err := cpu.Step()

	var oe *OpcodeError
	if !errors.As(err, &oe) {
		t.Fatalf("got %v (%T), want *OpcodeError", err, err)
	}

	if oe.PC != 0x0200 || oe.Opcode != 0xFF {
		t.Errorf("got PC=%#04x Opcode=%#02x, want PC=%#04x Opcode=%#02x",
			oe.PC, oe.Opcode, 0x0200, 0xFF)
	}
}

func TestStep_BranchOnZero(t *testing.T) {
	t.Parallel()

	program := []byte{op(t, "brt", asm.ModeP), 0x00, 0x03}

	cpu, _ := newRunCPU(t, program)
	cpu.Flags.Zero = true

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.PC != 0x0300 {
		t.Errorf("PC: got %#04x, want %#04x", cpu.PC, 0x0300)
	}
}

func TestStep_BranchNotTakenFallsThrough(t *testing.T) {
	t.Parallel()

	program := []byte{op(t, "brt", asm.ModeP), 0x00, 0x03}

	cpu, _ := newRunCPU(t, program)
	cpu.Flags.Zero = false

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if cpu.PC != 0x0203 {
		t.Errorf("PC: got %#04x, want %#04x", cpu.PC, 0x0203)
	}
}
