package vm

// disasm.go is a supplemented feature: a disassembler over a raw image,
// used by the `disasm` CLI command. It decodes bytes, the mirror image of
// internal/asm/image.go's disasmText, which renders the assembler's debug
// map from already-parsed tokens instead.

import (
	"fmt"
	"strings"

	"github.com/PBnJK/frame/internal/asm"
)

// Disassemble decodes one instruction starting at addr and renders it as
// assembly text, returning the address immediately after it. ok is false
// when the byte at addr isn't a known opcode.
func Disassemble(image *[65536]byte, addr uint16) (text string, next uint16, ok bool) {
	opByte := image[addr]
	pc := addr + 1

	mnemonic, mode, found := asm.Decode(asm.Opcode(opByte))
	if !found {
		return fmt.Sprintf(".byte %#02x", opByte), addr + 1, false
	}

	args, pc := disasmOperands(image, pc, mode)

	var b strings.Builder

	b.WriteString(mnemonic)

	for i, a := range args {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}

		b.WriteString(a)
	}

	return b.String(), pc, true
}

func disasmOperands(image *[65536]byte, pc uint16, mode asm.Mode) ([]string, uint16) {
	next := func() byte {
		b := image[pc]
		pc++

		return b
	}

	word := func() uint16 {
		lo, hi := next(), next()

		return uint16(lo) | uint16(hi)<<8
	}

	reg := func(v byte) string {
		if v == RegSP {
			return "$s"
		}

		return fmt.Sprintf("$%x", v)
	}

	switch mode {
	case asm.ModeO:
		return nil, pc
	case asm.ModeA:
		return []string{reg(next())}, pc
	case asm.ModeK:
		return []string{fmt.Sprintf("%d", next())}, pc
	case asm.ModeP:
		return []string{fmt.Sprintf("%%%x", word())}, pc
	case asm.ModeAB:
		b := next()
		return []string{reg(b & 0x0F), reg(b >> 4)}, pc
	case asm.ModeAK:
		r := reg(next())
		return []string{r, fmt.Sprintf("%d", next())}, pc
	case asm.ModeKA:
		k := fmt.Sprintf("%d", next())
		return []string{k, reg(next())}, pc
	case asm.ModeKK:
		return []string{fmt.Sprintf("%d", next()), fmt.Sprintf("%d", next())}, pc
	case asm.ModeAP:
		r := reg(next())
		return []string{r, fmt.Sprintf("%%%x", word())}, pc
	case asm.ModePA:
		a := fmt.Sprintf("%%%x", word())
		return []string{a, reg(next())}, pc
	case asm.ModePK:
		a := fmt.Sprintf("%%%x", word())
		return []string{a, fmt.Sprintf("%d", next())}, pc
	case asm.ModeABC:
		b := next()
		return []string{reg(b & 0x0F), reg(b >> 4), reg(next())}, pc
	case asm.ModeABK:
		b := next()
		return []string{reg(b & 0x0F), reg(b >> 4), fmt.Sprintf("%d", next())}, pc
	case asm.ModeAPB, asm.ModePAB:
		a := fmt.Sprintf("%%%x", word())
		b := next()
		return []string{a, reg(b & 0x0F), reg(b >> 4)}, pc
	case asm.ModeAPK, asm.ModePAK:
		a := fmt.Sprintf("%%%x", word())
		r := reg(next())
		return []string{a, r, fmt.Sprintf("%d", next())}, pc
	case asm.ModeAIB:
		b := next()
		i := next()
		return []string{reg(b & 0x0F), fmt.Sprintf("(%x)", i), reg(b >> 4)}, pc
	case asm.ModeAIK:
		r := reg(next())
		i := next()
		return []string{r, fmt.Sprintf("(%x)", i), fmt.Sprintf("%d", next())}, pc
	default:
		return nil, pc
	}
}
