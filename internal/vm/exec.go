package vm

// exec.go is the fetch-decode-execute cycle and per-mnemonic semantics
// (§4.F). Opcodes are dispatched through a dense tagged enumeration and a
// single switch (§9's explicit design note), not the interface-per-stage
// style the teacher's original LC-3 core used.

import (
	"errors"
	"fmt"

	"github.com/PBnJK/frame/internal/asm"
)

// ErrHalted is returned by Step when hlt is executed; the scheduler treats
// it as "enter paused state", not a fatal error.
var ErrHalted = errors.New("halted")

// Step runs exactly one instruction: fetch the opcode byte, decode its
// operands, and execute it (§4.F: "one cycle = one dispatched
// instruction").
func (cpu *CPU) Step() error {
	pc := cpu.PC
	opByte := cpu.fetch()

	mnemonic, mode, ok := asm.Decode(asm.Opcode(opByte))
	if !ok {
		return &OpcodeError{PC: pc, Opcode: opByte}
	}

	ops := decodeOperands(cpu, mode)

	return cpu.execute(mnemonic, mode, ops)
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}

// resolveAddr applies mov/jmp/brt/brf's optional trailing register or
// immediate offset to a base address.
func (cpu *CPU) resolveAddr(mode asm.Mode, ops Operands) uint16 {
	switch mode {
	case asm.ModeAPB, asm.ModePAB:
		return ops.Addr + uint16(cpu.Reg.Read(ops.RegB))
	case asm.ModeAPK, asm.ModePAK:
		return ops.Addr + uint16(ops.Imm)
	default:
		return ops.Addr
	}
}

// indirectBase reads the 16-bit pointer stored at zero-page offset i: low
// byte at i, high byte at i+1, where the +1 wraps within the zero page
// (mod 256), not the full address space (§4.F).
func (cpu *CPU) indirectBase(i byte) uint16 {
	lo := cpu.Mem.Read(uint16(i))
	hi := cpu.Mem.Read(uint16(i + 1))

	return uint16(lo) | uint16(hi)<<8
}

func (cpu *CPU) execute(mnemonic string, mode asm.Mode, ops Operands) error {
	switch mnemonic {
	case "hlt":
		return ErrHalted

	case "mov":
		return cpu.execMov(mode, ops)

	case "jmp":
		cpu.PC = cpu.resolveAddr(mode, ops)

	case "brt":
		if cpu.Flags.Zero {
			cpu.PC = cpu.resolveAddr(mode, ops)
		}

	case "brf":
		if !cpu.Flags.Zero {
			cpu.PC = cpu.resolveAddr(mode, ops)
		}

	case "equ":
		cpu.Flags.Zero = cpu.compare(mode, ops, func(a, b byte) bool { return a == b })

	case "lss":
		cpu.Flags.Zero = cpu.compare(mode, ops, func(a, b byte) bool { return a < b })

	case "and":
		cpu.execAlu(mode, ops, func(a, b byte) byte { return a & b })

	case "or":
		cpu.execAlu(mode, ops, func(a, b byte) byte { return a | b })

	case "xor":
		cpu.execAlu(mode, ops, func(a, b byte) byte { return a ^ b })

	case "not":
		cpu.Flags.Zero = !cpu.Flags.Zero

		if mode == asm.ModeA {
			cpu.writeRegSilent(ops.RegA, boolToByte(cpu.Flags.Zero))
		}

	case "lsh":
		v := cpu.Reg.Read(ops.RegA)
		carry := v&0x80 != 0
		cpu.Flags.Carry = carry
		cpu.writeReg(ops.RegA, v<<1)

	case "rsh":
		v := cpu.Reg.Read(ops.RegA)
		carry := v&0x01 != 0
		cpu.Flags.Carry = carry
		cpu.writeReg(ops.RegA, v>>1)

	case "rol":
		v := cpu.Reg.Read(ops.RegA)
		oldCarry := boolToByte(cpu.Flags.Carry)
		cpu.Flags.Carry = v&0x80 != 0
		cpu.writeReg(ops.RegA, v<<1|oldCarry)

	case "ror":
		v := cpu.Reg.Read(ops.RegA)
		oldCarry := cpu.Flags.Carry
		cpu.Flags.Carry = v&0x01 != 0

		result := v >> 1
		if oldCarry {
			result |= 0x80
		}

		cpu.writeReg(ops.RegA, result)

	case "add":
		cpu.execAdd(mode, ops)

	case "inc":
		cpu.writeReg(ops.RegA, cpu.Reg.Read(ops.RegA)+1)

	case "dec":
		cpu.writeReg(ops.RegA, cpu.Reg.Read(ops.RegA)-1)

	case "call":
		cpu.pushWord(cpu.PC)
		cpu.PC = ops.Addr

	case "ret":
		cpu.PC = cpu.popWord()

	case "push":
		if mode == asm.ModeK {
			cpu.push(ops.Imm)
		} else {
			cpu.push(cpu.Reg.Read(ops.RegA))
		}

	case "pop":
		v := cpu.pop()
		if mode == asm.ModeA {
			cpu.writeReg(ops.RegA, v)
		}

	case "sei":
		switch mode {
		case asm.ModeA:
			cpu.Flags.IntEna = cpu.Reg.Read(ops.RegA) != 0
		case asm.ModeK:
			cpu.Flags.IntEna = ops.Imm != 0
		default:
			cpu.Flags.IntEna = true
		}

	case "chy":
		cpu.Flags.Zero = cpu.Flags.Carry

	default:
		return fmt.Errorf("vm: unimplemented mnemonic %q", mnemonic)
	}

	return nil
}

// execMov implements every mov addressing form (§4.F): plain register
// copy, load/store with an address, optionally offset by a register or an
// immediate, and indirect zero-page loads.
func (cpu *CPU) execMov(mode asm.Mode, ops Operands) error {
	switch mode {
	case asm.ModeAB:
		cpu.writeReg(ops.RegA, cpu.Reg.Read(ops.RegB))

	case asm.ModeAK:
		cpu.writeReg(ops.RegA, ops.Imm)

	case asm.ModeAP:
		cpu.writeReg(ops.RegA, cpu.Mem.Read(ops.Addr))

	case asm.ModePA:
		cpu.Mem.Write(ops.Addr, cpu.Reg.Read(ops.RegA))
		cpu.Flags.fromValue(cpu.Reg.Read(ops.RegA))

	case asm.ModePK:
		cpu.Mem.Write(ops.Addr, ops.Imm)
		cpu.Flags.fromValue(ops.Imm)

	case asm.ModeAPB, asm.ModeAPK:
		cpu.writeReg(ops.RegA, cpu.Mem.Read(cpu.resolveAddr(mode, ops)))

	case asm.ModePAB, asm.ModePAK:
		addr := cpu.resolveAddr(mode, ops)
		v := cpu.Reg.Read(ops.RegA)
		cpu.Mem.Write(addr, v)
		cpu.Flags.fromValue(v)

	case asm.ModeAIB:
		base := cpu.indirectBase(ops.Ind)
		cpu.writeReg(ops.RegA, cpu.Mem.Read(base+uint16(cpu.Reg.Read(ops.RegB))))

	case asm.ModeAIK:
		base := cpu.indirectBase(ops.Ind)
		cpu.writeReg(ops.RegA, cpu.Mem.Read(base+uint16(ops.Imm)))
	}

	return nil
}

// compare implements equ/lss's three comparison modes (§4.F), keeping the
// comparison's operand order faithful to the mode's argument order: AB and
// AK compare the A-role value against B/imm; KA compares the immediate
// against the A-role value.
func (cpu *CPU) compare(mode asm.Mode, ops Operands, cmp func(a, b byte) bool) bool {
	switch mode {
	case asm.ModeAB:
		return cmp(cpu.Reg.Read(ops.RegA), cpu.Reg.Read(ops.RegB))
	case asm.ModeAK:
		return cmp(cpu.Reg.Read(ops.RegA), ops.Imm)
	case asm.ModeKA:
		return cmp(ops.Imm, cpu.Reg.Read(ops.RegA))
	default:
		return false
	}
}

// execAlu implements and/or/xor's four register/immediate forms (§4.F),
// always writing the dst register and recomputing Zero/Negative from the
// written value via the ordinary register-write path.
func (cpu *CPU) execAlu(mode asm.Mode, ops Operands, op func(a, b byte) byte) {
	switch mode {
	case asm.ModeAB:
		cpu.writeReg(ops.RegA, op(cpu.Reg.Read(ops.RegA), cpu.Reg.Read(ops.RegB)))
	case asm.ModeAK:
		cpu.writeReg(ops.RegA, op(cpu.Reg.Read(ops.RegA), ops.Imm))
	case asm.ModeABC:
		cpu.writeReg(ops.RegA, op(cpu.Reg.Read(ops.RegB), cpu.Reg.Read(ops.regC())))
	case asm.ModeABK:
		cpu.writeReg(ops.RegA, op(cpu.Reg.Read(ops.RegB), ops.Imm))
	}
}

// execAdd is and/or/xor's sibling, kept separate because it additionally
// sets Carry on unsigned overflow (§4.F, §8 invariant 7).
func (cpu *CPU) execAdd(mode asm.Mode, ops Operands) {
	var dst byte

	var sum int

	switch mode {
	case asm.ModeAB:
		dst = ops.RegA
		sum = int(cpu.Reg.Read(ops.RegA)) + int(cpu.Reg.Read(ops.RegB))
	case asm.ModeAK:
		dst = ops.RegA
		sum = int(cpu.Reg.Read(ops.RegA)) + int(ops.Imm)
	case asm.ModeABC:
		dst = ops.RegA
		sum = int(cpu.Reg.Read(ops.RegB)) + int(cpu.Reg.Read(ops.regC()))
	case asm.ModeABK:
		dst = ops.RegA
		sum = int(cpu.Reg.Read(ops.RegB)) + int(ops.Imm)
	}

	cpu.Flags.Carry = sum > 0xFF
	cpu.writeReg(dst, byte(sum))
}
