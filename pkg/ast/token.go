package ast

import "github.com/ckod3/Tiny-Shading-Language/pkg/source"

// TokenKind enumerates the lexical classes produced by the frontend scanner.
type TokenKind uint8

// Token kinds recognised by the TSL grammar.
const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber
	TokString
	TokKeyword
	TokPunct
)

// Token pairs a lexical class with the span of source text it covers. The
// TSL alphabet is small and fixed, so tokens carry a concrete kind rather
// than an index into a generic rule table.
type Token struct {
	Kind TokenKind
	Span source.Span
	Text string
}

var keywords = map[string]bool{
	"shader": true, "struct": true, "in": true, "out": true,
	"if": true, "else": true, "for": true, "while": true, "return": true,
	"void": true, "int": true, "float": true, "bool": true, "double": true,
	"float3": true, "float4": true, "matrix": true, "closure": true,
	"true": true, "false": true, "global": true,
}

// IsKeyword reports whether the given identifier text is a reserved word.
func IsKeyword(text string) bool {
	return keywords[text]
}
