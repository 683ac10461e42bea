package asm

import (
	"fmt"
	"strings"
)

// Image is the product of assembling a source file: the full 64KiB memory
// image, the resolved entry point, and a debug map from emission offset to
// printable instruction text (§6).
type Image struct {
	Bytes   [65536]byte
	Entry   uint16
	Debug   map[uint16]string
	Labels  SymbolTable
	Defines DefineTable
}

// disasmText renders a mnemonic and its as-written operands as printable
// assembly text, for the debug map. It works from the tokens the driver
// already parsed, not from re-decoding bytes — internal/vm's disassembler
// (§ SUPPLEMENTED FEATURES) does that job for an arbitrary image.
func disasmText(mnemonic string, mode Mode, args []arg) string {
	var b strings.Builder

	b.WriteString(mnemonic)

	for i, a := range args {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}

		b.WriteString(argText(a))
	}

	return b.String()
}

func argText(a arg) string {
	t := a.tok

	switch a.kind {
	case KindReg:
		if t.Int == 16 {
			return "$s"
		}

		return fmt.Sprintf("$%x", t.Int)
	case KindImm:
		if t.Deferred {
			if t.High {
				return "@>" + t.Name
			}

			return "@<" + t.Name
		}

		return fmt.Sprintf("%d", t.Int)
	case KindAddr:
		if t.Kind == TokLabel {
			return "@" + t.Name
		}

		return fmt.Sprintf("%%%x", t.Int)
	case KindInd:
		return fmt.Sprintf("(%x)", t.Int)
	default:
		return t.Text
	}
}
