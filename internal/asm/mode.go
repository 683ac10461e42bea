// mode.go resolves an ordered sequence of argument kinds to an addressing
// mode, per §4.B: a prefix tree keyed by the kind sequence.

package asm

// ArgKind is the kind of a single parsed argument: a register, an
// immediate, an address, or an indirect zero-page pointer.
type ArgKind uint8

const (
	KindReg ArgKind = iota
	KindImm
	KindAddr
	KindInd
)

func (k ArgKind) letter() byte {
	switch k {
	case KindReg:
		return 'A'
	case KindImm:
		return 'K'
	case KindAddr:
		return 'P'
	case KindInd:
		return 'I'
	default:
		return '?'
	}
}

// Mode is an addressing mode: one of the argument-kind tuples in §4.B.
type Mode uint8

//go:generate go run golang.org/x/tools/cmd/stringer -type Mode -output mode_string.go

const (
	ModeO Mode = iota
	ModeA
	ModeK
	ModeP
	ModeAB
	ModeAK
	ModeAP
	ModeKA
	ModeKK
	ModePA
	ModePK
	ModeABC
	ModeABK
	ModeAPB
	ModePAB
	ModeAPK
	ModePAK
	ModeAIB
	ModeAIK
)

// modeSeq is the canonical argument-kind sequence for each mode. The trie
// below is built from it; the byte layouts (OperandBytes, the assembler's
// emitOperands and internal/vm's decode.go) are written out per mode
// separately.
var modeSeq = map[Mode][]ArgKind{
	ModeO:   {},
	ModeA:   {KindReg},
	ModeK:   {KindImm},
	ModeP:   {KindAddr},
	ModeAB:  {KindReg, KindReg},
	ModeAK:  {KindReg, KindImm},
	ModeAP:  {KindReg, KindAddr},
	ModeKA:  {KindImm, KindReg},
	ModeKK:  {KindImm, KindImm},
	ModePA:  {KindAddr, KindReg},
	ModePK:  {KindAddr, KindImm},
	ModeABC: {KindReg, KindReg, KindReg},
	ModeABK: {KindReg, KindReg, KindImm},
	ModeAPB: {KindReg, KindAddr, KindReg},
	ModePAB: {KindAddr, KindReg, KindReg},
	ModeAPK: {KindReg, KindAddr, KindImm},
	ModePAK: {KindAddr, KindReg, KindImm},
	ModeAIB: {KindReg, KindInd, KindReg},
	ModeAIK: {KindReg, KindInd, KindImm},
}

// trieNode is one node of the kind-sequence trie. terminal marks a node at
// which some mode's sequence ends; such a node can still have children (A
// is a prefix of AB).
type trieNode struct {
	children map[ArgKind]*trieNode
	mode     Mode
	terminal bool
}

var modeTrie = buildModeTrie()

func buildModeTrie() *trieNode {
	root := &trieNode{children: map[ArgKind]*trieNode{}}

	for mode, seq := range modeSeq {
		node := root

		for _, k := range seq {
			next, ok := node.children[k]
			if !ok {
				next = &trieNode{children: map[ArgKind]*trieNode{}}
				node.children[k] = next
			}

			node = next
		}

		node.terminal = true
		node.mode = mode
	}

	return root
}

// ResolveMode looks up the addressing mode for an ordered sequence of
// argument kinds. ok is false when no mode matches (§4.B: "missing
// sequences yield 'no such mode'").
func ResolveMode(kinds []ArgKind) (Mode, bool) {
	node := modeTrie

	for _, k := range kinds {
		next, ok := node.children[k]
		if !ok {
			return 0, false
		}

		node = next
	}

	if !node.terminal {
		return 0, false
	}

	return node.mode, true
}

// ArgCount returns how many arguments a mode takes.
func (m Mode) ArgCount() int { return len(modeSeq[m]) }

// Kinds returns the canonical argument-kind sequence for a mode.
func (m Mode) Kinds() []ArgKind { return modeSeq[m] }

// OperandBytes returns the number of bytes, after the opcode byte, that a
// mode occupies in the image, per the table in §4.D. This must stay in
// exact lockstep with the assembler's emitOperands and the CPU's operand
// decoder (§8 invariant 2: an instruction's byte count always matches its
// mode's declared size).
func (m Mode) OperandBytes() int {
	switch m {
	case ModeO:
		return 0
	case ModeA, ModeK:
		return 1
	case ModeP:
		return 2
	case ModeAB: // one byte: two registers packed as nibbles
		return 1
	case ModeAK, ModeKA, ModeKK:
		return 2
	case ModeAP, ModePA, ModePK:
		return 3
	case ModeABC: // packed AB byte + one more register byte
		return 2
	case ModeABK: // packed AB byte + immediate
		return 2
	case ModeAPB, ModePAB: // address + packed AB byte
		return 3
	case ModeAPK, ModePAK: // address + register byte + immediate
		return 4
	case ModeAIB: // packed AB byte + indirect byte
		return 2
	case ModeAIK: // register byte + indirect byte + immediate
		return 3
	default:
		return 0
	}
}

// modeLabels gives each mode its canonical §4.B name. Argument kinds alone
// can't distinguish, say, AB from ABC's first two slots from AB itself by
// letter, or tell APB from PAB apart by kind alone in a way a human reads
// naturally, so the label is looked up rather than derived.
var modeLabels = map[Mode]string{
	ModeO: "O", ModeA: "A", ModeK: "K", ModeP: "P",
	ModeAB: "AB", ModeAK: "AK", ModeAP: "AP", ModeKA: "KA", ModeKK: "KK",
	ModePA: "PA", ModePK: "PK",
	ModeABC: "ABC", ModeABK: "ABK",
	ModeAPB: "APB", ModePAB: "PAB", ModeAPK: "APK", ModePAK: "PAK",
	ModeAIB: "AIB", ModeAIK: "AIK",
}

// modeName renders a mode using its canonical §4.B name.
func modeName(m Mode) string {
	if s, ok := modeLabels[m]; ok {
		return s
	}

	return "?"
}
