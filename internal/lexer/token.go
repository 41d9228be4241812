// Package lexer turns Tulpar source text into a stream of typed tokens.
package lexer

import "fmt"

// Kind enumerates every token kind the scanner produces.
type Kind int

const (
	// terminal markers
	EOF Kind = iota
	ERROR

	// literals
	IntLit
	FloatLit
	StringLit
	Ident

	// keywords
	Func
	Return
	If
	Else
	While
	For
	In
	Break
	Continue
	True
	False
	Import
	Try
	Catch
	Finally
	Throw

	// type names
	TypeInt
	TypeFloat
	TypeStr
	TypeBool
	TypeArray
	TypeArrayInt
	TypeArrayFloat
	TypeArrayStr
	TypeArrayBool
	TypeObject

	// operators
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	Eq
	NotEq
	Lt
	Gt
	LtEq
	GtEq
	AndAnd
	OrOr
	Bang
	PlusEq
	MinusEq
	StarEq
	SlashEq
	PlusPlus
	MinusMinus

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Colon
)

var kindNames = map[Kind]string{
	EOF: "EOF", ERROR: "ERROR",
	IntLit: "IntLit", FloatLit: "FloatLit", StringLit: "StringLit", Ident: "Ident",
	Func: "func", Return: "return", If: "if", Else: "else", While: "while", For: "for",
	In: "in", Break: "break", Continue: "continue", True: "true", False: "false",
	Import: "import", Try: "try", Catch: "catch", Finally: "finally", Throw: "throw",
	TypeInt: "int", TypeFloat: "float", TypeStr: "str", TypeBool: "bool", TypeArray: "array",
	TypeArrayInt: "arrayInt", TypeArrayFloat: "arrayFloat", TypeArrayStr: "arrayStr", TypeArrayBool: "arrayBool",
	TypeObject: "object",
	Plus:       "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Assign: "=", Eq: "==", NotEq: "!=", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Bang: "!",
	PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=",
	PlusPlus: "++", MinusMinus: "--",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semicolon: ";", Comma: ",", Colon: ":",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// keywords maps reserved identifiers to their token kind.
var keywords = map[string]Kind{
	"func": Func, "return": Return, "if": If, "else": Else, "while": While,
	"for": For, "in": In, "break": Break, "continue": Continue,
	"true": True, "false": False, "import": Import,
	"try": Try, "catch": Catch, "finally": Finally, "throw": Throw,
	"int": TypeInt, "float": TypeFloat, "str": TypeStr, "bool": TypeBool,
	"array": TypeArray, "arrayInt": TypeArrayInt, "arrayFloat": TypeArrayFloat,
	"arrayStr": TypeArrayStr, "arrayBool": TypeArrayBool, "object": TypeObject,
}

// IsTypeName reports whether k introduces a VarDecl.
func IsTypeName(k Kind) bool {
	switch k {
	case TypeInt, TypeFloat, TypeStr, TypeBool, TypeArray,
		TypeArrayInt, TypeArrayFloat, TypeArrayStr, TypeArrayBool, TypeObject:
		return true
	}
	return false
}

// Token is a single lexeme with source location, per spec §3.1.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}
