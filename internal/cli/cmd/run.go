package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/PBnJK/frame/internal/asm"
	"github.com/PBnJK/frame/internal/cli"
	"github.com/PBnJK/frame/internal/encoding"
	"github.com/PBnJK/frame/internal/log"
	"github.com/PBnJK/frame/internal/tty"
	"github.com/PBnJK/frame/internal/vm"
)

// Runner is the command that loads an assembled image and runs it (§4.G).
func Runner() cli.Command {
	return &runner{log: log.DefaultLogger()}
}

type runner struct {
	logLevel slog.Level
	log      *log.Logger
}

func (runner) Description() string {
	return "run a program"
}

func (runner) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `run program.hex

Runs an executable image in the emulator.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return r.logLevel.UnmarshalText([]byte(s))
	})

	return fs
}

// Run loads and executes the program.
func (r *runner) Run(ctx context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if len(args) == 0 {
		logger.Error("run: no image file given")
		return 1
	}

	log.LogLevel.Set(r.logLevel)

	obj, err := r.loadImage(args[0])
	if err != nil {
		logger.Error("error loading image", "err", err)
		return -1
	}

	kernel, err := asm.AssembleKernel()
	if err != nil {
		logger.Error("kernel assembly failed", "err", err)
		return -1
	}

	program := &asm.Image{Entry: obj.Entry}
	copy(program.Bytes[:], obj.Data)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	defer cancelTimeout()

	logger.Debug("initializing machine")

	mem := vm.NewMemory()
	buttons := &vm.ButtonState{}
	mem.Input = buttons

	cpu := vm.New(mem, vm.WithLogger(logger))
	loader := vm.NewLoader(mem)

	if err := loader.Load(program, kernel); err != nil {
		logger.Error(err.Error())
		return 1
	}

	renderer := &vm.Renderer{}
	scheduler := vm.NewScheduler(cpu, renderer)

	ctx, console, restore := tty.ConsoleContext(ctx, buttons)
	defer restore()

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("no terminal attached, running headless", "err", err)
	} else {
		renderer.Surface = console
	}

	if renderer.Surface != nil {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					console.Flush()
				}
			}
		}()
	}

	go func(cancel context.CancelCauseFunc) {
		logger.Info("starting machine")

		err := scheduler.Run(ctx)

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("run timeout")
		case err != nil:
			logger.Error(err.Error())
		}

		cancel(err)
	}(cancel)

	<-ctx.Done()

	switch cause := context.Cause(ctx); {
	case errors.Is(cause, context.DeadlineExceeded):
		logger.Error("exec timeout!")
		return 2
	case errors.Is(cause, context.Canceled):
		logger.Info("program completed")
		return 0
	case cause != nil:
		logger.Error("program error", "err", cause)
		return 2
	default:
		logger.Info("terminated")
		return 0
	}
}

func (r runner) loadImage(fn string) (encoding.Object, error) {
	r.log.Debug("loading image", "file", fn)

	file, err := os.Open(fn)
	if err != nil {
		return encoding.Object{}, err
	}
	defer file.Close()

	text, err := io.ReadAll(file)
	if err != nil {
		return encoding.Object{}, err
	}

	var hex encoding.HexEncoding
	if err := hex.UnmarshalText(text); err != nil {
		return encoding.Object{}, err
	}

	r.log.Debug("loaded image", "bytes", len(hex.Object.Data), "entry", fmt.Sprintf("%#04x", hex.Object.Entry))

	return hex.Object, nil
}
