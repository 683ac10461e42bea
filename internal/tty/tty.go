// Package tty provides terminal emulation.
package tty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/PBnJK/frame/internal/vm"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is a serial console for the machine simulated using Unix terminal I/O[^1]. It adapts the
// machine's (virtual) input register and framebuffer for use on contemporary systems[^2].
//
// Keystrokes read from the console are mapped through [vm.KeyRune]/[vm.KeyName] onto the
// button state the CPU reads its input register from. Frames rendered by the VM's [vm.Renderer]
// are drawn to the console as block characters, implementing [vm.Surface].
//
// [1]: See: tty(4), termios(4).
// [2]: These systems, themselves, emulating electromechanical teletype devices, of course.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	buttons *vm.ButtonState

	// Pending pixel buffer, blitted to the terminal a frame at a time.
	pixels [64][64]bool
}

// ErrNoTTY is returned if standard input is not a terminal. In this case, asynchronous I/O is
// not supported by the console.
var ErrNoTTY error = errors.New("console: not a TTY")

// ConsoleContext creates a Console context with the standard streams, wired to buttons. Calling
// cancel will restore the terminal state and release resources.
func ConsoleContext(parent context.Context, buttons *vm.ButtonState) (
	context.Context, *Console, context.CancelFunc,
) {
	ctx, cause := context.WithCancelCause(parent)

	console, err := NewConsole(os.Stdin, os.Stdout, os.Stderr, buttons)
	if err != nil {
		cause(err)

		return ctx, console, func() { cause(err) }
	}

	go console.readTerminal(ctx, cause)

	return ctx, console, console.Restore
}

// NewConsole creates a Console using the provided streams, driving buttons from keystrokes read on
// sin. If the input stream is not a terminal, ErrNoTTY is returned. Callers are responsible for
// calling [Console.Restore] to return the terminal to its initial state.
func NewConsole(sin, sout, _ *os.File, buttons *vm.ButtonState) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	cons := Console{
		fd:      fd,
		in:      sin,
		out:     term.NewTerminal(sout, ""),
		state:   saved,
		buttons: buttons,
	}

	if err := cons.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return &cons, nil
}

// Writer returns an io.Writer that writes to the terminal.
func (c Console) Writer() io.Writer {
	return c.out
}

// Restore returns the terminal to its initial state. It does not interrupt a read already in
// progress.
func (c *Console) Restore() {
	_ = term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO); err != nil {
		return err
	}

	_ = syscall.SetNonblock(c.fd, false)

	return nil
}

// readTerminal reads keystrokes from the terminal and sets/clears buttons until the context is
// cancelled. A bare keystroke is held down for one scheduler tick interval: FRAME's input register is a
// live bitmask, not an edge-triggered queue (§6), so there is no press/release pairing to model
// over a terminal.
func (c Console) readTerminal(ctx context.Context, cancel context.CancelCauseFunc) {
	buf := bufio.NewReader(c.in)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r, _, err := buf.ReadRune()
		if err != nil {
			cancel(err)
			return
		}

		btn, ok := vm.KeyRune(r)
		if !ok {
			btn, ok = keyEscape(buf, r)
		}

		if !ok {
			continue
		}

		c.buttons.Set(btn, true)
		go c.release(btn)
	}
}

// release clears btn shortly after it is set, approximating a key tap in a bitmask register that
// has no separate release event from the terminal.
func (c Console) release(btn vm.Button) {
	time.Sleep(16777 * time.Microsecond) // one scheduler tick
	c.buttons.Set(btn, false)
}

// keyEscape recognizes arrow keys and a couple of named keys from their ANSI escape sequences.
func keyEscape(buf *bufio.Reader, first rune) (vm.Button, bool) {
	switch first {
	case '\r', '\n':
		return vm.KeyName("Enter")
	case 0x7f, 0x08:
		return vm.KeyName("Backspace")
	case 0x1b:
		rest, err := buf.Peek(2)
		if err != nil || len(rest) < 2 || rest[0] != '[' {
			return 0, false
		}

		_, _ = buf.Discard(2)

		switch rest[1] {
		case 'A':
			return vm.KeyName("ArrowUp")
		case 'B':
			return vm.KeyName("ArrowDown")
		case 'C':
			return vm.KeyName("ArrowRight")
		case 'D':
			return vm.KeyName("ArrowLeft")
		}
	}

	return 0, false
}

// Surface implements vm.Surface, rendering the framebuffer as block characters (§4.H, §6).
var _ vm.Surface = (*Console)(nil)

func (c *Console) ClearRect(x0, y0, x1, y1 int) {
	for y := y0; y <= y1 && y < len(c.pixels); y++ {
		for x := x0; x <= x1 && x < len(c.pixels[y]); x++ {
			c.pixels[y][x] = false
		}
	}
}

func (c *Console) SetColor(bool) {}

func (c *Console) FillPixel(x, y int) {
	if y >= 0 && y < len(c.pixels) && x >= 0 && x < len(c.pixels[y]) {
		c.pixels[y][x] = true
	}
}

// Flush draws the pending frame to the terminal, two pixel rows per text row (using the upper/
// lower half-block characters) so a 64x64 framebuffer fits in 32 terminal rows.
func (c *Console) Flush() {
	var b strings.Builder

	b.WriteString("\x1b[H")

	for y := 0; y < len(c.pixels); y += 2 {
		for x := 0; x < len(c.pixels[y]); x++ {
			top := c.pixels[y][x]
			bottom := y+1 < len(c.pixels) && c.pixels[y+1][x]

			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}

		b.WriteString("\r\n")
	}

	fmt.Fprint(c.out, b.String())
}
