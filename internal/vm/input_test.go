package vm

import (
	"sync"
	"testing"
)

func TestButtonState_SetAndMask(t *testing.T) {
	t.Parallel()

	var bs ButtonState

	bs.Set(ButtonLeft, true)
	bs.Set(ButtonA, true)

	if got, want := bs.Mask(), byte(ButtonLeft|ButtonA); got != want {
		t.Errorf("got %#02x, want %#02x", got, want)
	}

	bs.Set(ButtonLeft, false)

	if got, want := bs.Mask(), byte(ButtonA); got != want {
		t.Errorf("got %#02x, want %#02x", got, want)
	}
}

func TestButtonState_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	var bs ButtonState

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			bs.Set(ButtonStart, true)
		}()

		go func() {
			defer wg.Done()

			_ = bs.Mask()
		}()
	}

	wg.Wait()
}

func TestKeyRune(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		r    rune
		btn  Button
		want bool
	}{
		{'w', ButtonUp, true},
		{'W', ButtonUp, true},
		{'d', ButtonRight, true},
		{'z', ButtonA, true},
		{'x', ButtonB, true},
		{'q', 0, false},
	}

	for _, tc := range tcs {
		btn, ok := KeyRune(tc.r)
		if ok != tc.want {
			t.Errorf("KeyRune(%q): ok got %v, want %v", tc.r, ok, tc.want)
		}

		if ok && btn != tc.btn {
			t.Errorf("KeyRune(%q): got %v, want %v", tc.r, btn, tc.btn)
		}
	}
}

func TestKeyName(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		btn  Button
		want bool
	}{
		{"ArrowUp", ButtonUp, true},
		{"Enter", ButtonStart, true},
		{"Backspace", ButtonMenu, true},
		{"Tab", 0, false},
	}

	for _, tc := range tcs {
		btn, ok := KeyName(tc.name)
		if ok != tc.want {
			t.Errorf("KeyName(%q): ok got %v, want %v", tc.name, ok, tc.want)
		}

		if ok && btn != tc.btn {
			t.Errorf("KeyName(%q): got %v, want %v", tc.name, btn, tc.btn)
		}
	}
}

func TestMemory_InputMaskFeedsReadOnlyRegister(t *testing.T) {
	t.Parallel()

	var bs ButtonState
	bs.Set(ButtonB, true)

	mem := NewMemory()
	mem.Input = &bs

	if got := mem.Read(InputAddr); got != byte(ButtonB) {
		t.Errorf("got %#02x, want %#02x", got, byte(ButtonB))
	}
}
