package vm

// types.go defines the basic data types of the CPU: byte-wide registers, the
// flag set, and the register file, per §3.

import "fmt"

// NumRegisters is the register file's size: R0 (hard-wired zero) through
// R15 (general purpose) plus R16, the stack pointer.
const (
	NumRegisters = 17
	RegZero      = 0  // R0 always reads 0; writes to it are discarded.
	RegSP        = 16 // R16 is the stack pointer.
)

// Registers holds the seventeen single-byte registers, indexed 0-16.
type Registers [NumRegisters]byte

// Read returns the value in register r. Reading R0 always returns 0.
func (r Registers) Read(reg byte) byte {
	if reg == RegZero {
		return 0
	}

	return r[reg]
}

// Flags holds the four condition flags (§3): Carry, Interrupt-enable, Zero
// and Negative. Zero does double duty as the ALU zero flag and as an
// explicit one-bit condition register that equ/lss/not/chy write directly.
type Flags struct {
	Carry    bool
	IntEna   bool
	Zero     bool
	Negative bool
}

func (f Flags) String() string {
	bit := func(set bool, c byte) byte {
		if set {
			return c
		}

		return '-'
	}

	return fmt.Sprintf("%c%c%c%c",
		bit(f.Carry, 'C'), bit(f.IntEna, 'I'), bit(f.Zero, 'Z'), bit(f.Negative, 'N'))
}

// fromValue recomputes Zero and Negative from a byte that was just written
// to a register or memory (§4.F's flag invariant). Carry and IntEna are left
// untouched: only the instructions that define them (add, lsh/rsh/rol/ror,
// sei) update those.
func (f *Flags) fromValue(v byte) {
	f.Zero = v == 0
	f.Negative = v&0x80 != 0
}
