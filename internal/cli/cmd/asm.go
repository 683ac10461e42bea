package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"context"

	"github.com/PBnJK/frame/internal/asm"
	"github.com/PBnJK/frame/internal/cli"
	"github.com/PBnJK/frame/internal/encoding"
	"github.com/PBnJK/frame/internal/log"
)

// Assembler is the command that translates FRAME assembly source into an
// executable image.
//
//	frame asm -o a.hex FILE.asm
func Assembler() cli.Command {
	return new(assembler)
}

type assembler struct {
	debug  bool
	output string
}

func (assembler) Description() string {
	return "assemble source code into an executable image"
}

func (assembler) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `asm [-o file.hex] file.asm

Assemble source into a hex-encoded executable image.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	fs.BoolVar(&a.debug, "debug", false, "enable debug logging")
	fs.StringVar(&a.output, "o", "a.hex", "output `filename`")

	return fs
}

// Run assembles the named source file and writes the resulting image.
func (a *assembler) Run(_ context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if a.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("asm: no source file given")
		return 1
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("read failed", "file", args[0], "err", err)
		return 1
	}

	kernel, err := asm.AssembleKernel()
	if err != nil {
		logger.Error("kernel assembly failed", "err", err)
		return 1
	}

	assembler := asm.NewAssembler(
		asm.WithLogger(logger),
		asm.WithLabels(kernel.Labels),
		asm.WithDefines(kernel.Defines),
	)

	image, err := assembler.Assemble(string(src))
	if err != nil {
		logger.Error("assemble failed", "err", err)
		return 1
	}

	logger.Debug("assembled", "entry", fmt.Sprintf("%#04x", image.Entry), "instructions", len(image.Debug))

	hex := encoding.HexEncoding{
		Object: encoding.Object{
			Entry: image.Entry,
			Data:  image.Bytes[:asm.KernelOrigin],
		},
	}

	text, err := hex.MarshalText()
	if err != nil {
		logger.Error("encode failed", "err", err)
		return 1
	}

	out, err := os.Create(a.output)
	if err != nil {
		logger.Error("open failed", "out", a.output, "err", err)
		return 1
	}
	defer out.Close()

	if _, err := out.Write(text); err != nil {
		logger.Error("write failed", "out", a.output, "err", err)
		return 1
	}

	logger.Info("wrote image", "out", a.output, "bytes", len(text))

	return 0
}
