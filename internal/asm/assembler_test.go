package asm

import "testing"

func assembleOK(t *testing.T, src string) *Image {
	t.Helper()

	a := NewAssembler()

	img, err := a.Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	return img
}

func TestAssembler_SimpleProgram(t *testing.T) {
	t.Parallel()

	img := assembleOK(t, `
.addr %200
@main
mov $1, 72
hlt
`)

	if img.Entry != 0x200 {
		t.Fatalf("entry: got %#04x, want %#04x", img.Entry, 0x200)
	}

	op, _, ok := Encode("mov", ModeAK)
	if !ok {
		t.Fatal("mov/AK not encodable")
	}

	if got := img.Bytes[0x200]; got != byte(op) {
		t.Errorf("opcode byte: got %#02x, want %#02x", got, op)
	}

	if got := img.Bytes[0x201]; got != 1 {
		t.Errorf("reg byte: got %d, want 1", got)
	}

	if got := img.Bytes[0x202]; got != 72 {
		t.Errorf("imm byte: got %d, want 72", got)
	}

	hltOp, _, _ := Encode("hlt", ModeO)
	if got := img.Bytes[0x203]; got != byte(hltOp) {
		t.Errorf("hlt opcode: got %#02x, want %#02x", got, hltOp)
	}
}

func TestAssembler_ForwardLabelReference(t *testing.T) {
	t.Parallel()

	img := assembleOK(t, `
.addr %200
@main
jmp @skip
hlt
@skip
inc $1
`)

	jmpOp, _, _ := Encode("jmp", ModeP)
	if got := img.Bytes[0x200]; got != byte(jmpOp) {
		t.Fatalf("jmp opcode: got %#02x, want %#02x", got, jmpOp)
	}

	// jmp @skip is opcode (1) + address (2) = 3 bytes, then hlt is 1 byte,
	// so @skip resolves to 0x200+3+1 = 0x204.
	wantSkip := uint16(0x204)

	gotSkip := uint16(img.Bytes[0x201]) | uint16(img.Bytes[0x202])<<8
	if gotSkip != wantSkip {
		t.Errorf("patched address: got %#04x, want %#04x", gotSkip, wantSkip)
	}

	if addr, ok := img.Labels["skip"]; !ok || addr != wantSkip {
		t.Errorf("label table: got %#04x, ok=%v, want %#04x", addr, ok, wantSkip)
	}
}

func TestAssembler_RegisterSixteenRejectedInNibbleSlot(t *testing.T) {
	t.Parallel()

	a := NewAssembler()

	_, err := a.Assemble(`
.addr %200
@main
mov $s, $1
`)

	if err == nil {
		t.Fatal("expected an error for $s in a packed-nibble operand")
	}
}

func TestAssembler_RegisterSixteenAllowedInFullByteSlot(t *testing.T) {
	t.Parallel()

	img := assembleOK(t, `
.addr %200
@main
mov $s, 3
`)

	if got := img.Bytes[0x201]; got != 16 {
		t.Errorf("reg byte: got %d, want 16", got)
	}
}

func TestAssembler_UnsupportedModeReportsSupportedList(t *testing.T) {
	t.Parallel()

	a := NewAssembler()

	_, err := a.Assemble(`
.addr %200
@main
call $1
`)

	if err == nil {
		t.Fatal("expected an error: call only supports an address operand")
	}
}

func TestAssembler_UnresolvedLabel(t *testing.T) {
	t.Parallel()

	a := NewAssembler()

	_, err := a.Assemble(`
.addr %200
@main
jmp @nowhere
`)

	if err == nil {
		t.Fatal("expected an unresolved-label error")
	}
}

func TestAssembler_ByteAndWordDirectives(t *testing.T) {
	t.Parallel()

	img := assembleOK(t, `
.addr %200
@main
.byte 1, 2, 3
.word 0x1234
`)

	want := []byte{1, 2, 3, 0x34, 0x12}
	for i, b := range want {
		if got := img.Bytes[0x200+i]; got != b {
			t.Errorf("byte[%d]: got %#02x, want %#02x", i, got, b)
		}
	}
}
