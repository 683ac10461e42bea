package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/PBnJK/frame/internal/asm"
	"github.com/PBnJK/frame/internal/cli"
	"github.com/PBnJK/frame/internal/log"
	"github.com/PBnJK/frame/internal/vm"
)

// demoSource writes "HI" to the text buffer's first two cells, then halts
// — enough to exercise assembly, loading and execution without a terminal
// attached. It never enables interrupts, so no render cycle runs.
const demoSource = `
.addr %200
@main
mov $1, 72
mov %e7c0, $1
mov $1, 73
mov %e7c1, $1
hlt
`

// Demo is a demonstration command.
func Demo() cli.Command {
	return new(demo)
}

type demo struct {
	debug bool
	quiet bool
}

func (demo) Description() string {
	return "run demo program"
}

func (d demo) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `
demo [ -debug | -quiet ]

Assemble and run a small demonstration program, printing machine state.`)

	return err
}

func (d *demo) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)

	fs.BoolVar(&d.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&d.quiet, "quiet", false, "enable quiet output, machine display only")

	return fs
}

func (d demo) Run(ctx context.Context, _ []string, out io.Writer, _ *log.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.quiet {
		log.LogLevel.Set(log.Error)
	}

	if d.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stdout)
	log.SetDefault(logger)
	log.DefaultLogger = func() *log.Logger {
		return logger
	}

	logger.Info("assembling demo program")

	kernel, err := asm.AssembleKernel()
	if err != nil {
		logger.Error("kernel assembly failed", "err", err)
		return 2
	}

	assembler := asm.NewAssembler(
		asm.WithLogger(logger),
		asm.WithLabels(kernel.Labels),
		asm.WithDefines(kernel.Defines),
	)

	program, err := assembler.Assemble(demoSource)
	if err != nil {
		logger.Error("assemble failed", "err", err)
		return 2
	}

	logger.Info("initializing machine")

	mem := vm.NewMemory()
	cpu := vm.New(mem, vm.WithLogger(logger))
	loader := vm.NewLoader(mem)

	if err := loader.Load(program, kernel); err != nil {
		logger.Error("error loading code", "err", err)
		return 2
	}

	renderer := &vm.Renderer{}
	scheduler := vm.NewScheduler(cpu, renderer)

	go func() {
		logger.Info("starting machine")

		err := scheduler.Run(ctx)

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("demo timeout")
		case err != nil:
			logger.Error(err.Error())
		}
	}()

	<-ctx.Done()

	cells := mem.Bytes()[vm.TextBufferStart : vm.TextBufferStart+2]
	fmt.Fprintf(out, "text buffer: %q\n", string(cells[:]))

	logger.Info("demo completed")

	return 0
}
