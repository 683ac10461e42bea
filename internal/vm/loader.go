package vm

// loader.go places a program and the kernel into memory and sets the reset
// vector, the lifecycle spec.md §3 calls "loading" and "resetting".

import (
	"fmt"

	"github.com/PBnJK/frame/internal/asm"
	"github.com/PBnJK/frame/internal/log"
)

// Loader copies assembled images into a Memory.
type Loader struct {
	mem *Memory
	log *log.Logger
}

// NewLoader creates a loader over mem.
func NewLoader(mem *Memory) *Loader {
	return &Loader{mem: mem, log: log.DefaultLogger()}
}

// Load places the kernel image at its fixed region (§4.I), the program
// image below it, and points the reset vector at the program's entry
// label (§3: "PC is loaded from the reset vector on reset"). The kernel is
// re-copied on every Load, matching the documented lifecycle: a reset
// always restores a working kernel even if guest code scribbled over it.
func (l *Loader) Load(program, kernel *asm.Image) error {
	if kernel == nil {
		return fmt.Errorf("loader: no kernel image")
	}

	if program == nil {
		return fmt.Errorf("loader: no program image")
	}

	l.mem.Load(0, program.Bytes[:asm.KernelOrigin])
	l.mem.Load(asm.KernelOrigin, kernel.Bytes[asm.KernelOrigin:asm.KernelEnd+1])

	// The program may also ship an IRQ vector of its own (pointing at a
	// handler it defines). Those bytes lie outside both regions copied
	// above, so they are copied separately.
	l.mem.Load(IRQVectorLow, program.Bytes[IRQVectorLow:ResetVectorLow])

	l.mem.WriteWord(ResetVectorLow, program.Entry)

	l.log.Info("loaded", "entry", fmt.Sprintf("%#04x", program.Entry))

	return nil
}
