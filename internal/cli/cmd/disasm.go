package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/PBnJK/frame/internal/cli"
	"github.com/PBnJK/frame/internal/encoding"
	"github.com/PBnJK/frame/internal/log"
	"github.com/PBnJK/frame/internal/vm"
)

// Disassembler is the supplemented command that renders an assembled image
// back to assembly text (§ SUPPLEMENTED FEATURES).
func Disassembler() cli.Command {
	return new(disassembler)
}

type disassembler struct{}

func (disassembler) Description() string {
	return "disassemble an executable image"
}

func (disassembler) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `disasm program.hex

Disassembles a hex-encoded executable image to assembly text.`)

	return err
}

func (disassembler) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("disasm", flag.ExitOnError)
}

func (disassembler) Run(_ context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) == 0 {
		logger.Error("disasm: no image file given")
		return 1
	}

	file, err := os.Open(args[0])
	if err != nil {
		logger.Error("open failed", "err", err)
		return 1
	}
	defer file.Close()

	text, err := io.ReadAll(file)
	if err != nil {
		logger.Error("read failed", "err", err)
		return 1
	}

	var hex encoding.HexEncoding
	if err := hex.UnmarshalText(text); err != nil {
		logger.Error("decode failed", "err", err)
		return 1
	}

	var image [65536]byte

	copy(image[:], hex.Object.Data)

	fmt.Fprintf(out, "entry: %#04x\n", hex.Object.Entry)

	for addr := uint16(0); int(addr) < len(hex.Object.Data); {
		text, next, ok := vm.Disassemble(&image, addr)
		if !ok {
			fmt.Fprintf(out, "%#04x: %s\n", addr, text)
			addr = next

			continue
		}

		fmt.Fprintf(out, "%#04x: %s\n", addr, text)

		if next <= addr {
			break
		}

		addr = next
	}

	return 0
}
