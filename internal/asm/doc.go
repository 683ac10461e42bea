// Package asm implements the FRAME assembler.
//
// It's a single pass over a token stream: forward label references are
// recorded as pending emission offsets and patched in once the label's
// address is known. At the end of input, anything still pending is a
// syntax error.
//
//	.addr 0x200
//	@main
//	  mov $1, 0x2A
//	  call @print
//	  hlt
//
//	@print
//	  push $1
//	  ret
//
// See Grammar for the full syntax.
package asm

// Grammar declares FRAME assembly syntax in EBNF (with some liberties).
var Grammar = (`
program        = { line } ;

line           = '#' comment
               | label
               | directive [ '#' comment ]
               | instruction [ '#' comment ] ;

comment        = { char } ;

label          = '@' ident ;

directive      = '.' "addr" value
               | '.' "byte" value { ',' value }
               | '.' "word" value { ',' value }
               | '.' "def" ident token ;

instruction    = mnemonic [ operand { ',' operand } ] ;

mnemonic       = ident ;

operand        = register | immediate | address | indirect | label ;

register       = '$' hex | '$' 's' ;

immediate      = number | character | deferred ;

deferred       = '@' '<' ident
               | '@' '>' ident ;

address        = '%' hex { hex } ;

indirect       = '(' hex { hex } ')' ;

number         = "0x" { hex }
               | "0o" { octal }
               | "0b" { binary }
               | decimal { decimal } ;

character      = "'" char "'" ;

ident          = ( letter | '_' ) { letter | digit | '_' } ;

value          = number | deferred ;

token          = register | immediate | address | indirect | ident ;
`)
