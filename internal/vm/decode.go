package vm

// decode.go reads an instruction's operand bytes off the program counter,
// mirroring internal/asm's emitOperands byte-for-byte (§4.D, §8 invariant
// 2: an instruction's consumed byte count always matches its mode).

import "github.com/PBnJK/frame/internal/asm"

// Operands holds the decoded fields of one instruction's operand bytes.
// Which fields are meaningful depends on the mode and mnemonic; exec.go's
// per-(mnemonic, mode) switch knows which to read.
type Operands struct {
	RegA, RegB byte // register indices; role (src/dst) depends on the mnemonic
	Imm, Imm2  byte
	Addr       uint16
	Ind        byte
}

// decodeOperands reads mode's operand bytes from cpu, advancing PC as it
// goes, in exactly the order the assembler wrote them.
func decodeOperands(cpu *CPU, mode asm.Mode) Operands {
	var o Operands

	switch mode {
	case asm.ModeO:
	case asm.ModeA:
		o.RegA = cpu.fetch()
	case asm.ModeK:
		o.Imm = cpu.fetch()
	case asm.ModeP:
		o.Addr = fetchWord(cpu)
	case asm.ModeAB:
		b := cpu.fetch()
		o.RegA, o.RegB = b&0x0F, b>>4
	case asm.ModeAK:
		o.RegA = cpu.fetch()
		o.Imm = cpu.fetch()
	case asm.ModeKA:
		o.Imm = cpu.fetch()
		o.RegA = cpu.fetch()
	case asm.ModeKK:
		o.Imm = cpu.fetch()
		o.Imm2 = cpu.fetch()
	case asm.ModeAP:
		o.RegA = cpu.fetch()
		o.Addr = fetchWord(cpu)
	case asm.ModePA:
		o.Addr = fetchWord(cpu)
		o.RegA = cpu.fetch()
	case asm.ModePK:
		o.Addr = fetchWord(cpu)
		o.Imm = cpu.fetch()
	case asm.ModeABC:
		b := cpu.fetch()
		o.RegA, o.RegB = b&0x0F, b>>4
		o.Imm2 = cpu.fetch() // the C register, carried in Imm2
	case asm.ModeABK:
		b := cpu.fetch()
		o.RegA, o.RegB = b&0x0F, b>>4
		o.Imm = cpu.fetch()
	case asm.ModeAPB, asm.ModePAB:
		o.Addr = fetchWord(cpu)
		b := cpu.fetch()
		o.RegA, o.RegB = b&0x0F, b>>4
	case asm.ModeAPK, asm.ModePAK:
		o.Addr = fetchWord(cpu)
		o.RegA = cpu.fetch()
		o.Imm = cpu.fetch()
	case asm.ModeAIB:
		b := cpu.fetch()
		o.RegA, o.RegB = b&0x0F, b>>4
		o.Ind = cpu.fetch()
	case asm.ModeAIK:
		o.RegA = cpu.fetch()
		o.Ind = cpu.fetch()
		o.Imm = cpu.fetch()
	}

	return o
}

func fetchWord(cpu *CPU) uint16 {
	lo := cpu.fetch()
	hi := cpu.fetch()

	return uint16(lo) | uint16(hi)<<8
}

// regC returns the third register operand of an ABC instruction, which
// decodeOperands stores in Imm2 (ABC has no immediate slot to conflict
// with it).
func (o Operands) regC() byte { return o.Imm2 }
