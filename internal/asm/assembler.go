// Package asm is the FRAME assembler: a single-pass lexer/driver pair that
// resolves forward label references by back-patching, per §4.D.
package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PBnJK/frame/internal/log"
)

// SymbolTable maps a label name to the address it was defined at.
type SymbolTable map[string]uint16

// DefineTable maps a .def alias to the token it stands for.
type DefineTable map[string]Token

// SyntaxError is one lexical, parse or semantic error, reported with its
// source position (§7).
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// fwdRefs tracks pending back-patches for one label: whole-address
// (2-byte), low-byte-only and high-byte-only offsets into the image.
type fwdRefs struct {
	whole []uint16
	low   []uint16
	high  []uint16
}

// Assembler drives the lexer across one source file, maintaining the
// cursor, label table, forward-reference tables and define table
// described in §4.D.
type Assembler struct {
	labels  SymbolTable
	defines DefineTable
	fwd     map[string]*fwdRefs

	image [65536]byte
	debug map[uint16]string

	cursor uint16

	lex     *Lexer
	cur     Token
	reuse   bool // true: Next() returns cur again instead of re-lexing

	errs []error
	log  *log.Logger
}

// Option configures an Assembler at construction.
type Option func(*Assembler)

// WithLabels seeds the assembler's label table with labels defined
// elsewhere — the mechanism by which kernel symbols (§4.I) become visible
// to user-program assembly.
func WithLabels(labels SymbolTable) Option {
	return func(a *Assembler) {
		for name, addr := range labels {
			a.labels[name] = addr
		}
	}
}

// WithDefines seeds the assembler's define table, alongside WithLabels.
func WithDefines(defines DefineTable) Option {
	return func(a *Assembler) {
		for name, tok := range defines {
			a.defines[name] = tok
		}
	}
}

// WithLogger attaches a logger; without one, log.DefaultLogger() is used.
func WithLogger(logger *log.Logger) Option {
	return func(a *Assembler) { a.log = logger }
}

// NewAssembler creates an Assembler ready to assemble source.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		labels:  make(SymbolTable),
		defines: make(DefineTable),
		fwd:     make(map[string]*fwdRefs),
		debug:   make(map[uint16]string),
		log:     log.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Labels returns the assembler's label table, including any labels seeded
// externally and any defined by the last Assemble call.
func (a *Assembler) Labels() SymbolTable { return a.labels }

// Defines returns the assembler's define table.
func (a *Assembler) Defines() DefineTable { return a.defines }

// Assemble assembles src, producing a 64KiB image. Assembly is
// deterministic: the same source always produces the same image, entry
// point and debug map (§8).
func (a *Assembler) Assemble(src string) (*Image, error) {
	a.lex = NewLexer(src)
	a.cursor = 0
	a.errs = nil
	a.reuse = false

	a.log.Debug("assembling", "bytes", len(src))

	for {
		tok := a.next()
		if tok.Kind == TokEOF {
			break
		}

		a.statement(tok)
	}

	for name, refs := range a.fwd {
		if len(refs.whole)+len(refs.low)+len(refs.high) > 0 {
			a.errorf(0, 0, "unresolved label: %s", name)
		}
	}

	if len(a.errs) > 0 {
		return nil, errors.Join(a.errs...)
	}

	entry := a.labels["main"]

	img := &Image{
		Bytes:   a.image,
		Entry:   entry,
		Debug:   a.debug,
		Labels:  cloneLabels(a.labels),
		Defines: cloneDefines(a.defines),
	}

	a.log.Info("assembled", "entry", fmt.Sprintf("%#04x", entry), "labels", len(a.labels))

	return img, nil
}

func cloneLabels(l SymbolTable) SymbolTable {
	out := make(SymbolTable, len(l))
	for k, v := range l {
		out[k] = v
	}

	return out
}

func cloneDefines(d DefineTable) DefineTable {
	out := make(DefineTable, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}

// next returns the next token, honouring the one-token "reuse" buffer that
// directives which over-read (by peeking for an optional continuation) use
// to put a token back.
func (a *Assembler) next() Token {
	if a.reuse {
		a.reuse = false
		return a.cur
	}

	a.cur = a.lex.Next()

	return a.cur
}

// unread marks the current token to be returned again by the next call to
// next().
func (a *Assembler) unread() { a.reuse = true }

func (a *Assembler) errorf(line, col int, format string, args ...interface{}) {
	a.errs = append(a.errs, &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)})
}

// statement parses one top-level construct: a label definition, a
// directive, or an instruction.
func (a *Assembler) statement(tok Token) {
	switch tok.Kind {
	case TokLabel:
		a.defineLabel(tok)
	case TokDirective:
		a.directive(tok)
	case TokInstruction:
		a.instruction(tok)
	case TokError:
		a.errorf(tok.Line, tok.Col, "unexpected character: %q", tok.Text)
	default:
		a.errorf(tok.Line, tok.Col, "unexpected token: %s", tok.Text)
	}
}

func (a *Assembler) defineLabel(tok Token) {
	if _, ok := a.labels[tok.Name]; ok && !strings.HasPrefix(tok.Name, "_") {
		a.errorf(tok.Line, tok.Col, "label redefined: %s", tok.Name)
		return
	}

	a.labels[tok.Name] = a.cursor
	a.patch(tok.Name, a.cursor)
}

// patch resolves every pending forward reference to name now that its
// address is known.
func (a *Assembler) patch(name string, addr uint16) {
	refs, ok := a.fwd[name]
	if !ok {
		return
	}

	for _, off := range refs.whole {
		a.image[off] = byte(addr & 0xFF)
		a.image[off+1] = byte(addr >> 8)
	}

	for _, off := range refs.low {
		a.image[off] = byte(addr & 0xFF)
	}

	for _, off := range refs.high {
		a.image[off] = byte(addr >> 8)
	}

	refs.whole = nil
	refs.low = nil
	refs.high = nil
}

func (a *Assembler) refsFor(name string) *fwdRefs {
	refs, ok := a.fwd[name]
	if !ok {
		refs = &fwdRefs{}
		a.fwd[name] = refs
	}

	return refs
}

// emit writes one byte at the cursor and advances it, wrapping modulo
// 65536.
func (a *Assembler) emit(b byte) {
	a.image[a.cursor] = b
	a.cursor++
}

// emitWhole writes a resolved or forward-referenced 16-bit address,
// low byte first.
func (a *Assembler) emitWhole(name string, addr uint16, known bool) {
	if !known {
		a.refsFor(name).whole = append(a.refsFor(name).whole, a.cursor)
	}

	a.emit(byte(addr & 0xFF))
	a.emit(byte(addr >> 8))
}

// emitDeferred writes one byte for a @</@> label-byte reference.
func (a *Assembler) emitDeferred(name string, high bool, addr uint16, known bool) {
	if !known {
		refs := a.refsFor(name)
		if high {
			refs.high = append(refs.high, a.cursor)
		} else {
			refs.low = append(refs.low, a.cursor)
		}

		a.emit(0)

		return
	}

	if high {
		a.emit(byte(addr >> 8))
	} else {
		a.emit(byte(addr & 0xFF))
	}
}

func (a *Assembler) directive(tok Token) {
	switch tok.Name {
	case "addr":
		a.directiveAddr(tok)
	case "byte":
		a.directiveByte(tok)
	case "word":
		a.directiveWord(tok)
	case "def":
		a.directiveDef(tok)
	default:
		a.errorf(tok.Line, tok.Col, "unknown directive: .%s", tok.Name)
	}
}

func (a *Assembler) directiveAddr(tok Token) {
	v := a.next()
	v = a.resolveDefine(v)

	switch v.Kind {
	case TokImmediate:
		if v.Int < 0 || v.Int > 0xFFFF {
			a.errorf(v.Line, v.Col, "address out of range: %s", v.Text)
			return
		}

		a.cursor = uint16(v.Int)
	case TokAddress:
		a.cursor = uint16(v.Int)
	default:
		a.errorf(tok.Line, tok.Col, ".addr: expected an address, got %s", v.Text)
	}
}

func (a *Assembler) directiveByte(tok Token) {
	for {
		v := a.next()
		v = a.resolveDefine(v)

		switch v.Kind {
		case TokImmediate:
			if v.Deferred {
				a.emitDeferredValue(v)
			} else {
				a.emit(byte(v.Int))
			}
		default:
			a.errorf(v.Line, v.Col, ".byte: expected an immediate, got %s", v.Text)
			return
		}

		if !a.acceptComma() {
			return
		}
	}
}

func (a *Assembler) directiveWord(tok Token) {
	for {
		v := a.next()
		v = a.resolveDefine(v)

		switch v.Kind {
		case TokImmediate:
			if v.Deferred {
				a.emitDeferredValue(v)
				a.emit(0)
			} else {
				a.emit(byte(v.Int & 0xFF))
				a.emit(byte((v.Int >> 8) & 0xFF))
			}
		case TokAddress:
			a.emit(byte(v.Int & 0xFF))
			a.emit(byte(v.Int >> 8))
		case TokLabel:
			addr, known := a.labels[v.Name]
			a.emitWhole(v.Name, addr, known)
		default:
			a.errorf(v.Line, v.Col, ".word: expected a value, got %s", v.Text)
			return
		}

		if !a.acceptComma() {
			return
		}
	}
}

func (a *Assembler) emitDeferredValue(v Token) {
	addr, known := a.labels[v.Name]
	a.emitDeferred(v.Name, v.High, addr, known)
}

func (a *Assembler) directiveDef(tok Token) {
	name := a.next()
	if name.Kind != TokIdentifier {
		a.errorf(tok.Line, tok.Col, ".def: expected a name, got %s", name.Text)
		return
	}

	value := a.next()
	if value.Kind == TokIndirect {
		rparen := a.next()
		if rparen.Kind != TokRightParen {
			a.errorf(rparen.Line, rparen.Col, "expected ')' after indirect value")
			return
		}
	}

	a.defines[name.Name] = value
}

func (a *Assembler) acceptComma() bool {
	t := a.next()
	if t.Kind == TokComma {
		return true
	}

	a.unread()

	return false
}

// resolveDefine substitutes a .def alias with the token it was bound to.
func (a *Assembler) resolveDefine(t Token) Token {
	if t.Kind != TokIdentifier {
		return t
	}

	if bound, ok := a.defines[t.Name]; ok {
		return bound
	}

	return t
}

// instruction parses one mnemonic and its operand list, resolves the
// addressing mode, and emits the opcode and operand bytes.
func (a *Assembler) instruction(tok Token) {
	opOffset := a.cursor

	operands := a.operands(tok.Line)

	kinds := make([]ArgKind, len(operands))
	for i, op := range operands {
		kinds[i] = op.kind
	}

	mode, ok := ResolveMode(kinds)
	if !ok {
		a.errorf(tok.Line, tok.Col, "no such addressing mode for %s", tok.Name)
		return
	}

	opcode, supported, ok := Encode(tok.Name, mode)
	if !ok {
		names := make([]string, len(supported))
		for i, m := range supported {
			names[i] = modeName(m)
		}

		a.errorf(tok.Line, tok.Col, "%s does not support mode %s; supported: %s",
			tok.Name, modeName(mode), strings.Join(names, ", "))

		return
	}

	a.emit(byte(opcode))
	a.debug[opOffset] = disasmText(tok.Name, mode, operands)
	a.emitOperands(mode, operands)
}

// arg is one parsed operand: its kind plus whatever payload is needed to
// emit it (a register index, a literal byte, or a possibly-unresolved
// label reference).
type arg struct {
	kind ArgKind
	tok  Token
}

func (a *Assembler) operands(line int) []arg {
	var args []arg

	raw := a.next()
	first := a.resolveDefine(raw)

	// The operand list starts on the mnemonic's own line: a label on a
	// later line is a label definition, not an operand.
	if raw.Line != line || !isOperandStart(first.Kind) {
		a.unread()
		return args
	}

	args = append(args, a.readArg(first))

	for a.acceptComma() {
		t := a.next()
		t = a.resolveDefine(t)
		args = append(args, a.readArg(t))
	}

	return args
}

func isOperandStart(k TokenKind) bool {
	switch k {
	case TokRegister, TokImmediate, TokAddress, TokIndirect, TokLabel:
		return true
	default:
		return false
	}
}

func (a *Assembler) readArg(t Token) arg {
	switch t.Kind {
	case TokRegister:
		return arg{kind: KindReg, tok: t}
	case TokImmediate:
		return arg{kind: KindImm, tok: t}
	case TokAddress:
		return arg{kind: KindAddr, tok: t}
	case TokLabel:
		return arg{kind: KindAddr, tok: t}
	case TokIndirect:
		rparen := a.next()
		if rparen.Kind != TokRightParen {
			a.errorf(rparen.Line, rparen.Col, "expected ')' after indirect value")
		}

		return arg{kind: KindInd, tok: t}
	default:
		a.errorf(t.Line, t.Col, "unexpected operand: %s", t.Text)
		return arg{kind: KindImm, tok: t}
	}
}

// emitOperands writes the operand bytes for mode, per the layout table in
// §4.D.
func (a *Assembler) emitOperands(mode Mode, args []arg) {
	// regByte emits a register operand that has a byte to itself: the full
	// 0-16 range is representable, since register 16 ($s, the stack
	// pointer) sets a bit outside the low nibble that registers 0-15 never
	// set.
	regByte := func(i int) byte { return byte(args[i].tok.Int) }

	// regNibble emits one of two registers packed into the same byte as
	// two 4-bit fields. Only registers 0-15 fit; $s has no nibble value
	// and is rejected here rather than silently aliasing register 0.
	regNibble := func(i int) byte {
		t := args[i].tok
		if t.Int > 15 {
			a.errorf(t.Line, t.Col, "$s is not valid in this operand position")
			return 0
		}

		return byte(t.Int)
	}

	imm := func(i int) {
		t := args[i].tok
		if t.Deferred {
			a.emitDeferredValue(t)
		} else {
			a.emit(byte(t.Int))
		}
	}

	addr := func(i int) {
		t := args[i].tok
		if t.Kind == TokLabel {
			loc, known := a.labels[t.Name]
			a.emitWhole(t.Name, loc, known)
		} else {
			a.emit(byte(t.Int & 0xFF))
			a.emit(byte(t.Int >> 8))
		}
	}

	ind := func(i int) { a.emit(byte(args[i].tok.Int & 0xFF)) }

	switch mode {
	case ModeO:
	case ModeA:
		a.emit(regByte(0))
	case ModeK:
		imm(0)
	case ModeP:
		addr(0)
	case ModeAB:
		a.emit(regNibble(0) | regNibble(1)<<4)
	case ModeAK:
		a.emit(regByte(0))
		imm(1)
	case ModeKA:
		imm(0)
		a.emit(regByte(1))
	case ModeKK:
		imm(0)
		imm(1)
	case ModeAP:
		a.emit(regByte(0))
		addr(1)
	case ModePA:
		addr(0)
		a.emit(regByte(1))
	case ModePK:
		addr(0)
		imm(1)
	case ModeABC:
		a.emit(regNibble(0) | regNibble(1)<<4)
		a.emit(regByte(2))
	case ModeABK:
		a.emit(regNibble(0) | regNibble(1)<<4)
		imm(2)
	case ModeAPB:
		addr(1)
		a.emit(regNibble(0) | regNibble(2)<<4)
	case ModePAB:
		addr(0)
		a.emit(regNibble(1) | regNibble(2)<<4)
	case ModeAPK:
		addr(1)
		a.emit(regByte(0))
		imm(2)
	case ModePAK:
		addr(0)
		a.emit(regByte(1))
		imm(2)
	case ModeAIB:
		a.emit(regNibble(0) | regNibble(2)<<4)
		ind(1)
	case ModeAIK:
		a.emit(regByte(0))
		ind(1)
		imm(2)
	}
}
