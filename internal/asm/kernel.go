package asm

import "fmt"

// KernelOrigin is where the kernel image (§4.I) is assembled to, and
// KernelEnd its last addressable byte.
const (
	KernelOrigin = 0xE000
	KernelEnd    = 0xE6FF
)

// kernelSource is the fixed assembly program occupying the kernel region.
// It's assembled once, through the same Assembler used for user programs,
// and its label table is then handed to the user program's assembler as
// external info (§4.D, §4.I) so guest code can `call` these routines by
// name.
//
// Register convention: kernel routines take their argument(s) in $1 and
// clobber $1-$3 as scratch. A caller that needs $1-$3 preserved across a
// call saves them with push/pop first.
//
// ktxt_print's string pointer is passed out of band: the caller writes a
// little-endian 16-bit pointer to zero-page FE/FF before calling.
const kernelSource = `
.addr 0xE000

@ktxt_clear
  mov $1, 0
@_ktxt_clear_loop
  mov %E7C0, $0, $1
  inc $1
  equ $1, 64
  brf @_ktxt_clear_loop
  mov %E7BF, 0
  ret

@ktxt_move_x
  mov $2, %E7BF
  and $2, 0x38
  and $1, 7
  or $2, $1
  mov %E7BF, $2
  ret

@ktxt_move_y
  mov $2, %E7BF
  and $2, 7
  and $1, 7
  lsh $1
  lsh $1
  lsh $1
  or $2, $1
  mov %E7BF, $2
  ret

@ktxt_newline
  mov $1, %E7BF
  and $1, 0x38
  add $1, 8
  and $1, 0x3F
  mov %E7BF, $1
  ret

@ktxt_putch
  mov $2, %E7BF
  and $2, 0x3F
  mov %E7C0, $1, $2
  mov $3, %E7BF
  mov $2, $3
  and $2, 7
  inc $2
  equ $2, 8
  brt @_ktxt_putch_wrap
  and $3, 0x38
  or $3, $2
  mov %E7BF, $3
  ret
@_ktxt_putch_wrap
  call @ktxt_newline
  ret

@ktxt_print
  mov $1, 0
@_ktxt_print_loop
  mov $2, (FE), $1
  equ $2, 0
  brt @_ktxt_print_done
  push $1
  mov $1, $2
  call @ktxt_putch
  pop $1
  inc $1
  jmp @_ktxt_print_loop
@_ktxt_print_done
  ret
`

// AssembleKernel assembles the kernel source and returns its image and
// label table. Failure is fatal (§7): a FRAME VM cannot start without a
// working kernel.
func AssembleKernel() (*Image, error) {
	a := NewAssembler()

	img, err := a.Assemble(kernelSource)
	if err != nil {
		return nil, fmt.Errorf("kernel: assembly failed: %w", err)
	}

	for name, addr := range img.Labels {
		if addr > KernelEnd && addr < 0xFFFC {
			return nil, fmt.Errorf("kernel: label %s at %#04x falls outside the kernel region", name, addr)
		}
	}

	return img, nil
}
