// Package vm implements the FRAME CPU, scheduler, renderer and input
// contract (§3, §4.E-§4.I).
package vm

import (
	"fmt"

	"github.com/PBnJK/frame/internal/log"
)

// CPU is the fetch-decode-execute engine: register file, flags, program
// counter and the memory it operates on.
type CPU struct {
	PC    uint16
	Reg   Registers
	Flags Flags
	Mem   *Memory

	log *log.Logger
}

// Option configures a CPU at construction.
type Option func(*CPU)

// WithLogger attaches a logger; without one, log.DefaultLogger() is used.
func WithLogger(logger *log.Logger) Option {
	return func(c *CPU) { c.log = logger }
}

// New creates a CPU over mem, with the program counter at the reset vector
// (§3: "on reset, PC is loaded from 0xFFFE/0xFFFF").
func New(mem *Memory, opts ...Option) *CPU {
	cpu := &CPU{
		Mem: mem,
		log: log.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(cpu)
	}

	cpu.Reset()

	return cpu
}

// Reset reloads PC from the reset vector and clears registers and flags.
// It does not touch memory: the loader is responsible for re-placing the
// kernel and program images and the vectors before Reset is called (§3's
// lifecycle: "resetting re-seeds the reset vector and the kernel image").
func (cpu *CPU) Reset() {
	cpu.Reg = Registers{}
	cpu.Flags = Flags{}
	cpu.PC = cpu.Mem.ReadWord(ResetVectorLow)

	cpu.log.Debug("cpu reset", "pc", fmt.Sprintf("%#04x", cpu.PC))
}

func (cpu *CPU) String() string {
	return fmt.Sprintf("PC: %#04x FLAGS: %s REG: %v", cpu.PC, cpu.Flags, cpu.Reg)
}

// fetch reads the byte at PC and advances PC, wrapping modulo 65536 (§3:
// "PC wraps, it does not halt the machine").
func (cpu *CPU) fetch() byte {
	b := cpu.Mem.Read(cpu.PC)
	cpu.PC++

	return b
}

// writeReg stores v into register reg and recomputes Zero/Negative from
// the value actually stored. Writing R0 is a no-op on the register itself,
// but still recomputes the flags from the effective value 0 (§8: "writing
// to register 0 leaves it at 0; the zero flag after such a write is 1").
func (cpu *CPU) writeReg(reg byte, v byte) {
	if reg == RegZero {
		cpu.Flags.fromValue(0)
		return
	}

	cpu.Reg[reg] = v
	cpu.Flags.fromValue(v)
}

// writeRegSilent stores v into register reg without touching Zero/Negative.
// Used by the flag-register instructions (not/equ/lss/chy, §4.F) which set
// Zero explicitly as their primary effect and must not have a register
// write in the same instruction immediately clobber it.
func (cpu *CPU) writeRegSilent(reg byte, v byte) {
	if reg == RegZero {
		return
	}

	cpu.Reg[reg] = v
}

// push writes one byte to the top of the stack and advances SP. SP is a
// single byte register, so it wraps within the stack page (0x0100-0x01FF)
// on its own (§3). Like every other memory write, it recomputes
// Zero/Negative from the byte written (§3: "recomputed on every write to
// memory or to a register").
func (cpu *CPU) push(b byte) {
	addr := uint16(StackPageStart) + uint16(cpu.Reg[RegSP])
	cpu.Mem.Write(addr, b)
	cpu.Reg[RegSP]++
	cpu.Flags.fromValue(b)
}

// pop reads and removes the top byte of the stack, recomputing
// Zero/Negative from the byte read.
func (cpu *CPU) pop() byte {
	cpu.Reg[RegSP]--
	addr := uint16(StackPageStart) + uint16(cpu.Reg[RegSP])
	v := cpu.Mem.Read(addr)
	cpu.Flags.fromValue(v)

	return v
}

// pushWord pushes a 16-bit value high byte first, so the low byte ends up
// on top of the stack (§4.F's stack discipline: pushes write MSB then LSB,
// so pops read LSB then MSB).
func (cpu *CPU) pushWord(v uint16) {
	cpu.push(byte(v >> 8))
	cpu.push(byte(v))
}

// popWord reverses pushWord.
func (cpu *CPU) popWord() uint16 {
	lo := cpu.pop()
	hi := cpu.pop()

	return uint16(lo) | uint16(hi)<<8
}
