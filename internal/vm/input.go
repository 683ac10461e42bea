package vm

// input.go is the memory-mapped input register and the keyboard contract
// that drives it (§6).

import "sync"

// Button is one bit of the input register's bitmask.
type Button byte

// The eight buttons, in bit order (§3: "0xE700 ... bit 0 Left, 1 Down, 2
// Up, 3 Right, 4 A, 5 B, 6 Start, 7 Menu").
const (
	ButtonLeft Button = 1 << iota
	ButtonDown
	ButtonUp
	ButtonRight
	ButtonA
	ButtonB
	ButtonStart
	ButtonMenu
)

// ButtonState is a live, concurrency-safe button bitmask: the host writes
// it from a keyboard listener goroutine, the VM reads it from the CPU
// fetch path, and the two must never race (§5: "only the host writes the
// input register; only the guest reads it").
type ButtonState struct {
	mu   sync.Mutex
	mask byte
}

// Mask implements Input.
func (b *ButtonState) Mask() byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.mask
}

// Set presses or releases btn.
func (b *ButtonState) Set(btn Button, down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if down {
		b.mask |= byte(btn)
	} else {
		b.mask &^= byte(btn)
	}
}

// KeyRune maps a printable keystroke to the button it drives, per §6's
// keyboard contract: arrow keys and WASD both map to the direction
// buttons, Z is A, X is B.
func KeyRune(r rune) (Button, bool) {
	switch r {
	case 'a', 'A':
		return ButtonLeft, true
	case 's', 'S':
		return ButtonDown, true
	case 'w', 'W':
		return ButtonUp, true
	case 'd', 'D':
		return ButtonRight, true
	case 'z', 'Z':
		return ButtonA, true
	case 'x', 'X':
		return ButtonB, true
	default:
		return 0, false
	}
}

// KeyName maps a non-printable key, named the way a terminal escape
// sequence decoder would name it, to the button it drives.
func KeyName(name string) (Button, bool) {
	switch name {
	case "ArrowLeft":
		return ButtonLeft, true
	case "ArrowDown":
		return ButtonDown, true
	case "ArrowUp":
		return ButtonUp, true
	case "ArrowRight":
		return ButtonRight, true
	case "Enter":
		return ButtonStart, true
	case "Backspace":
		return ButtonMenu, true
	default:
		return 0, false
	}
}
