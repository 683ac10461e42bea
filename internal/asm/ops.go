// ops.go is the §4.C mnemonic→mode→opcode table and its reverse.
//
// Opcode values are a dense enumeration assigned in declaration order; per
// §4.C they aren't semantically load-bearing across implementations, only
// internally consistent between this table and the decoder in
// internal/vm/decode.go.

package asm

import "sort"

// Opcode is one byte-wide instruction opcode.
type Opcode uint8

// mnemonicModes lists, for each mnemonic, the addressing modes it supports,
// in the order opcodes are assigned. See DESIGN.md's "Open questions
// resolved" for the reasoning behind each mnemonic's mode set.
var mnemonicModes = map[string][]Mode{
	"hlt": {ModeO, ModeA, ModeK},
	"mov": {
		ModeAB, ModeAK, ModeAP, ModePA, ModePK,
		ModeAPB, ModePAB, ModeAPK, ModePAK,
		ModeAIB, ModeAIK,
	},
	"jmp":  {ModeP, ModePA, ModePK},
	"brt":  {ModeP, ModePA, ModePK},
	"brf":  {ModeP, ModePA, ModePK},
	"equ":  {ModeAB, ModeAK, ModeKA},
	"lss":  {ModeAB, ModeAK, ModeKA},
	"and":  {ModeAB, ModeABC, ModeAK, ModeABK},
	"or":   {ModeAB, ModeABC, ModeAK, ModeABK},
	"xor":  {ModeAB, ModeABC, ModeAK, ModeABK},
	"not":  {ModeO, ModeA},
	"lsh":  {ModeA},
	"rsh":  {ModeA},
	"rol":  {ModeA},
	"ror":  {ModeA},
	"add":  {ModeAB, ModeABC, ModeAK, ModeABK},
	"inc":  {ModeA},
	"dec":  {ModeA},
	"call": {ModeP},
	"ret":  {ModeO},
	"push": {ModeA, ModeK},
	"pop":  {ModeO, ModeA},
	"sei":  {ModeO, ModeA, ModeK},
	"chy":  {ModeO},
}

// mnemonicOrder fixes the iteration order used to assign dense opcode
// values, so two runs of this package always produce the same table.
var mnemonicOrder = []string{
	"hlt", "mov", "jmp", "brt", "brf", "equ", "lss",
	"and", "or", "xor", "not", "lsh", "rsh", "rol", "ror",
	"add", "inc", "dec", "call", "ret", "push", "pop", "sei", "chy",
}

// mnemonics is the set of known mnemonics, used by the lexer to classify a
// word as TokInstruction rather than TokIdentifier.
var mnemonics = func() map[string]struct{} {
	m := make(map[string]struct{}, len(mnemonicModes))
	for name := range mnemonicModes {
		m[name] = struct{}{}
	}

	return m
}()

// opEntry is one (mnemonic, mode) -> opcode assignment.
type opEntry struct {
	mnemonic string
	mode     Mode
}

var (
	encodeTable = map[string]map[Mode]Opcode{}
	decodeTable = map[Opcode]opEntry{}
)

func init() {
	if got, want := len(mnemonicOrder), len(mnemonicModes); got != want {
		panic("ops: mnemonicOrder and mnemonicModes disagree on mnemonic count")
	}

	var next Opcode

	for _, mnemonic := range mnemonicOrder {
		modes := mnemonicModes[mnemonic]
		encodeTable[mnemonic] = make(map[Mode]Opcode, len(modes))

		for _, mode := range modes {
			op := next
			next++

			encodeTable[mnemonic][mode] = op
			decodeTable[op] = opEntry{mnemonic: mnemonic, mode: mode}
		}
	}
}

// Encode returns the opcode for a mnemonic used with a mode, and the sorted
// list of modes the mnemonic does support when it isn't this one (§4.C:
// "the assembler reports the list of modes it does support").
func Encode(mnemonic string, mode Mode) (Opcode, []Mode, bool) {
	modes, ok := mnemonicModes[mnemonic]
	if !ok {
		return 0, nil, false
	}

	if op, ok := encodeTable[mnemonic][mode]; ok {
		return op, nil, true
	}

	supported := append([]Mode(nil), modes...)
	sort.Slice(supported, func(i, j int) bool { return supported[i] < supported[j] })

	return 0, supported, false
}

// Decode returns the mnemonic and mode for an opcode byte. ok is false for
// an opcode with no assigned instruction (§7: "invalid opcode at PC").
func Decode(op Opcode) (mnemonic string, mode Mode, ok bool) {
	e, found := decodeTable[op]
	if !found {
		return "", 0, false
	}

	return e.mnemonic, e.mode, true
}

// Modes returns the modes a mnemonic supports, in assignment order.
func Modes(mnemonic string) []Mode {
	return mnemonicModes[mnemonic]
}

// IsMnemonic reports whether name is a known instruction mnemonic.
func IsMnemonic(name string) bool {
	_, ok := mnemonics[name]
	return ok
}
