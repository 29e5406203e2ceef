package ast

import (
	"unicode"

	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
)

// Lexer tokenises TSL source text on demand, one rune buffer per compile.
// A Lexer is never shared across goroutines; each compile driver scans
// with its own.
type Lexer struct {
	file  *source.File
	text  []rune
	index int
}

// NewLexer constructs a lexer over a named source file's contents.
func NewLexer(file *source.File) *Lexer {
	return &Lexer{file, []rune(file.Text()), 0}
}

func (l *Lexer) peekRune() (rune, bool) {
	if l.index >= len(l.text) {
		return 0, false
	}
	return l.text[l.index], true
}

func (l *Lexer) skipTrivia() {
	for {
		r, ok := l.peekRune()
		if !ok {
			return
		}
		//
		switch {
		case unicode.IsSpace(r):
			l.index++
		case r == '/' && l.index+1 < len(l.text) && l.text[l.index+1] == '/':
			for l.index < len(l.text) && l.text[l.index] != '\n' {
				l.index++
			}
		case r == '/' && l.index+1 < len(l.text) && l.text[l.index+1] == '*':
			l.index += 2
			for l.index+1 < len(l.text) && !(l.text[l.index] == '*' && l.text[l.index+1] == '/') {
				l.index++
			}
			l.index += 2
		default:
			return
		}
	}
}

// Next returns the next token in the stream, or a TokEOF token once the
// input is exhausted.
func (l *Lexer) Next() (Token, error) {
	l.skipTrivia()
	//
	start := l.index
	r, ok := l.peekRune()
	if !ok {
		return Token{TokEOF, source.NewSpan(start, start), ""}, nil
	}
	//
	switch {
	case unicode.IsLetter(r) || r == '_':
		for {
			r, ok := l.peekRune()
			if !ok || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				break
			}
			l.index++
		}
		//
		text := string(l.text[start:l.index])
		span := source.NewSpan(start, l.index)
		//
		if IsKeyword(text) {
			return Token{TokKeyword, span, text}, nil
		}
		return Token{TokIdent, span, text}, nil
	case unicode.IsDigit(r):
		for {
			r, ok := l.peekRune()
			if !ok || !(unicode.IsDigit(r) || r == '.' || r == 'f' || r == 'F') {
				break
			}
			l.index++
		}
		return Token{TokNumber, source.NewSpan(start, l.index), string(l.text[start:l.index])}, nil
	case isPunct(r):
		l.index++
		// Greedily match the small set of two-character operators.
		if next, ok := l.peekRune(); ok {
			pair := string(r) + string(next)
			switch pair {
			case "==", "!=", "<=", ">=", "&&", "||":
				l.index++
				return Token{TokPunct, source.NewSpan(start, l.index), pair}, nil
			}
		}
		return Token{TokPunct, source.NewSpan(start, l.index), string(r)}, nil
	default:
		return Token{}, l.errAt(start, "unexpected character %q", r)
	}
}

func isPunct(r rune) bool {
	switch r {
	case '(', ')', '{', '}', '[', ']', ',', ';', '.', '<', '>',
		'=', '+', '-', '*', '/', '!', '&', '|', ':':
		return true
	}
	return false
}

func (l *Lexer) errAt(index int, format string, args ...any) error {
	return source.NewSyntaxError(l.file, source.NewSpan(index, index+1), format, args...)
}

// File returns the file this lexer is scanning, for span-relative error
// reporting by the parser.
func (l *Lexer) File() *source.File {
	return l.file
}
