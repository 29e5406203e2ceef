package ast

import (
	"strconv"
	"strings"

	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
)

// Parser drives a Lexer over TSL source, allocating nodes into an Arena and
// invoking a Driver's callbacks as each top-level construct completes. One
// Parser instance is used for exactly one compile.
type Parser struct {
	lex     *Lexer
	arena   *Arena
	driver  Driver
	tok     Token
	lookTok Token
	haveTok bool
	file    *source.File
}

// NewParser constructs a parser over the given file, allocating into arena
// and reporting constructs to driver.
func NewParser(file *source.File, arena *Arena, driver Driver) (*Parser, error) {
	p := &Parser{lex: NewLexer(file), arena: arena, driver: driver, file: file}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	if p.haveTok {
		p.tok = p.lookTok
		p.haveTok = false
		return nil
	}
	//
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) peek() (Token, error) {
	if !p.haveTok {
		tok, err := p.lex.Next()
		if err != nil {
			return Token{}, err
		}
		p.lookTok = tok
		p.haveTok = true
	}
	return p.lookTok, nil
}

func (p *Parser) errAt(span source.Span, format string, args ...any) error {
	return source.NewSyntaxError(p.file, span, format, args...)
}

// ParseProgram parses the entire source file as a sequence of top-level
// declarations, reporting each one to the driver as it completes. It
// returns the first syntax error encountered, if any.
func (p *Parser) ParseProgram() error {
	for p.tok.Kind != TokEOF {
		if err := p.parseTopLevel(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseTopLevel() error {
	switch {
	case p.isKeyword("struct"):
		return p.parseStruct()
	case p.isKeyword("global"):
		return p.parseGlobal()
	case p.isKeyword("shader"):
		return p.parseFunction(true)
	case p.isBaseTypeKeyword():
		return p.parseFunction(false)
	default:
		return p.errAt(p.tok.Span, "unexpected token %q at top level", p.tok.Text)
	}
}

func (p *Parser) isKeyword(kw string) bool {
	return p.tok.Kind == TokKeyword && p.tok.Text == kw
}

func (p *Parser) isBaseTypeKeyword() bool {
	if p.tok.Kind != TokKeyword {
		return false
	}
	_, ok := ParseBaseType(p.tok.Text)
	return ok
}

func (p *Parser) expectPunct(s string) (source.Span, error) {
	if p.tok.Kind != TokPunct || p.tok.Text != s {
		return source.Span{}, p.errAt(p.tok.Span, "expected %q, found %q", s, p.tok.Text)
	}
	span := p.tok.Span
	return span, p.advance()
}

func (p *Parser) expectIdent() (string, source.Span, error) {
	if p.tok.Kind != TokIdent {
		return "", source.Span{}, p.errAt(p.tok.Span, "expected identifier, found %q", p.tok.Text)
	}
	name := p.driver.ClaimPermanentAddress(p.tok.Text)
	span := p.tok.Span
	return name, span, p.advance()
}

func (p *Parser) expectType() (BaseType, error) {
	if p.tok.Kind != TokKeyword {
		return 0, p.errAt(p.tok.Span, "expected type, found %q", p.tok.Text)
	}
	t, ok := ParseBaseType(p.tok.Text)
	if !ok {
		return 0, p.errAt(p.tok.Span, "expected type, found %q", p.tok.Text)
	}
	return t, p.advance()
}

func (p *Parser) parseStruct() error {
	start := p.tok.Span
	if err := p.advance(); err != nil { // 'struct'
		return err
	}
	//
	name, _, err := p.expectIdent()
	if err != nil {
		return err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return err
	}
	//
	var fields []StructField
	for !(p.tok.Kind == TokPunct && p.tok.Text == "}") {
		ftype, err := p.expectType()
		if err != nil {
			return err
		}
		fname, _, err := p.expectIdent()
		if err != nil {
			return err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return err
		}
		fields = append(fields, StructField{fname, ftype})
	}
	end, err := p.expectPunct("}")
	if err != nil {
		return err
	}
	// C-style declarations allow a trailing semicolon after the brace.
	if p.tok.Kind == TokPunct && p.tok.Text == ";" {
		if err := p.advance(); err != nil {
			return err
		}
	}
	//
	handle := p.arena.Alloc(NewStructDecl(name, fields, source.NewSpan(start.Start(), end.End())))
	p.driver.PushStructure(handle)
	return nil
}

func (p *Parser) parseGlobal() error {
	start := p.tok.Span
	if err := p.advance(); err != nil { // 'global'
		return err
	}
	//
	typ, err := p.expectType()
	if err != nil {
		return err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return err
	}
	end, err := p.expectPunct(";")
	if err != nil {
		return err
	}
	//
	handle := p.arena.Alloc(NewGlobalParamDecl(name, typ, source.NewSpan(start.Start(), end.End())))
	p.driver.PushGlobalParameter(handle)
	return nil
}

func (p *Parser) parseFunction(isShader bool) error {
	start := p.tok.Span
	//
	retType := TypeVoid
	if isShader {
		if err := p.advance(); err != nil { // 'shader'
			return err
		}
	} else {
		var err error
		retType, err = p.expectType()
		if err != nil {
			return err
		}
	}
	//
	name, _, err := p.expectIdent()
	if err != nil {
		return err
	}
	//
	params, err := p.parseParams()
	if err != nil {
		return err
	}
	//
	body, err := p.parseBlock()
	if err != nil {
		return err
	}
	//
	end := p.prevSpanEnd()
	handle := p.arena.Alloc(NewFunctionDecl(name, isShader, retType, params, body, source.NewSpan(start.Start(), end)))
	p.driver.PushFunction(handle, isShader)
	return nil
}

// prevSpanEnd is an approximation used only for computing a closing span;
// the parser does not track a separate "previous token" span register, so
// it reuses the current token's start as the end marker for diagnostics.
func (p *Parser) prevSpanEnd() int {
	return p.tok.Span.Start()
}

func (p *Parser) parseParams() ([]Param, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	//
	var params []Param
	for !(p.tok.Kind == TokPunct && p.tok.Text == ")") {
		if len(params) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		//
		dir := DirIn
		if p.isKeyword("in") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.isKeyword("out") {
			dir = DirOut
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		//
		typ, err := p.expectType()
		if err != nil {
			return nil, err
		}
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		//
		var def *Value
		if p.tok.Kind == TokPunct && p.tok.Text == "=" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			v, err := p.parseLiteralValue(typ)
			if err != nil {
				return nil, err
			}
			def = &v
		}
		//
		params = append(params, Param{name, typ, dir, def})
	}
	_, err := p.expectPunct(")")
	return params, err
}

func (p *Parser) parseLiteralValue(typ BaseType) (Value, error) {
	switch typ {
	case TypeBool:
		if p.isKeyword("true") || p.isKeyword("false") {
			v := p.tok.Text == "true"
			return BoolValue(v), p.advance()
		}
		return Value{}, p.errAt(p.tok.Span, "expected boolean literal")
	case TypeInt:
		n, err := p.parseNumberLiteral()
		if err != nil {
			return Value{}, err
		}
		return IntValue(int64(n)), nil
	case TypeFloat:
		n, err := p.parseNumberLiteral()
		if err != nil {
			return Value{}, err
		}
		return FloatValue(n), nil
	case TypeDouble:
		n, err := p.parseNumberLiteral()
		if err != nil {
			return Value{}, err
		}
		return DoubleValue(n), nil
	case TypeFloat3, TypeFloat4:
		return p.parseVectorLiteral(typ)
	default:
		return Value{}, p.errAt(p.tok.Span, "type %s cannot carry a default value", typ)
	}
}

func (p *Parser) parseNumberLiteral() (float64, error) {
	neg := false
	if p.tok.Kind == TokPunct && p.tok.Text == "-" {
		neg = true
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	if p.tok.Kind != TokNumber {
		return 0, p.errAt(p.tok.Span, "expected numeric literal, found %q", p.tok.Text)
	}
	text := strings.TrimSuffix(strings.TrimSuffix(p.tok.Text, "f"), "F")
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, p.errAt(p.tok.Span, "malformed numeric literal %q", p.tok.Text)
	}
	if neg {
		n = -n
	}
	return n, p.advance()
}

func (p *Parser) parseVectorLiteral(typ BaseType) (Value, error) {
	// Accept either "float3(x,y,z)" or a bare "(x,y,z)".
	if (p.tok.Kind == TokIdent || p.tok.Kind == TokKeyword) && p.tok.Text == typ.String() {
		if err := p.advance(); err != nil {
			return Value{}, err
		}
	}
	if _, err := p.expectPunct("("); err != nil {
		return Value{}, err
	}
	//
	var comps []float64
	for !(p.tok.Kind == TokPunct && p.tok.Text == ")") {
		if len(comps) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return Value{}, err
			}
		}
		n, err := p.parseNumberLiteral()
		if err != nil {
			return Value{}, err
		}
		comps = append(comps, n)
	}
	if _, err := p.expectPunct(")"); err != nil {
		return Value{}, err
	}
	//
	var v Value
	v.Type = typ
	for i := 0; i < len(comps) && i < 4; i++ {
		v.Vector[i] = comps[i]
	}
	return v, nil
}

func (p *Parser) parseBlock() (Handle, error) {
	start, err := p.expectPunct("{")
	if err != nil {
		return Invalid, err
	}
	//
	var stmts []Handle
	for !(p.tok.Kind == TokPunct && p.tok.Text == "}") {
		s, err := p.parseStatement()
		if err != nil {
			return Invalid, err
		}
		stmts = append(stmts, s)
	}
	end, err := p.expectPunct("}")
	if err != nil {
		return Invalid, err
	}
	//
	return p.arena.Alloc(NewBlock(stmts, source.NewSpan(start.Start(), end.End()))), nil
}

func (p *Parser) parseStatement() (Handle, error) {
	switch {
	case p.tok.Kind == TokPunct && p.tok.Text == "{":
		return p.parseBlock()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isBaseTypeKeyword():
		return p.parseVarDecl()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseVarDecl() (Handle, error) {
	start := p.tok.Span
	typ, err := p.expectType()
	if err != nil {
		return Invalid, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return Invalid, err
	}
	//
	init := Invalid
	if p.tok.Kind == TokPunct && p.tok.Text == "=" {
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		init, err = p.parseExpr()
		if err != nil {
			return Invalid, err
		}
	}
	end, err := p.expectPunct(";")
	if err != nil {
		return Invalid, err
	}
	//
	return p.arena.Alloc(NewVarDecl(name, typ, init, source.NewSpan(start.Start(), end.End()))), nil
}

func (p *Parser) parseIf() (Handle, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return Invalid, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return Invalid, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return Invalid, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return Invalid, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return Invalid, err
	}
	//
	els := Invalid
	if p.isKeyword("else") {
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		els, err = p.parseStatement()
		if err != nil {
			return Invalid, err
		}
	}
	//
	end := p.prevSpanEnd()
	return p.arena.Alloc(NewIf(cond, then, els, source.NewSpan(start.Start(), end))), nil
}

func (p *Parser) parseWhile() (Handle, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return Invalid, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return Invalid, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return Invalid, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return Invalid, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return Invalid, err
	}
	//
	end := p.prevSpanEnd()
	return p.arena.Alloc(NewWhile(cond, body, source.NewSpan(start.Start(), end))), nil
}

func (p *Parser) parseFor() (Handle, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return Invalid, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return Invalid, err
	}
	//
	init := Invalid
	var err error
	if !(p.tok.Kind == TokPunct && p.tok.Text == ";") {
		if p.isBaseTypeKeyword() {
			init, err = p.parseVarDeclNoSemi()
		} else {
			init, err = p.parseExpr()
		}
		if err != nil {
			return Invalid, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return Invalid, err
	}
	//
	cond := Invalid
	if !(p.tok.Kind == TokPunct && p.tok.Text == ";") {
		cond, err = p.parseExpr()
		if err != nil {
			return Invalid, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return Invalid, err
	}
	//
	post := Invalid
	if !(p.tok.Kind == TokPunct && p.tok.Text == ")") {
		post, err = p.parseExpr()
		if err != nil {
			return Invalid, err
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return Invalid, err
	}
	//
	body, err := p.parseStatement()
	if err != nil {
		return Invalid, err
	}
	//
	end := p.prevSpanEnd()
	return p.arena.Alloc(NewFor(init, cond, post, body, source.NewSpan(start.Start(), end))), nil
}

func (p *Parser) parseVarDeclNoSemi() (Handle, error) {
	start := p.tok.Span
	typ, err := p.expectType()
	if err != nil {
		return Invalid, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return Invalid, err
	}
	//
	init := Invalid
	if p.tok.Kind == TokPunct && p.tok.Text == "=" {
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		init, err = p.parseExpr()
		if err != nil {
			return Invalid, err
		}
	}
	end := p.prevSpanEnd()
	return p.arena.Alloc(NewVarDecl(name, typ, init, source.NewSpan(start.Start(), end))), nil
}

func (p *Parser) parseReturn() (Handle, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return Invalid, err
	}
	//
	value := Invalid
	if !(p.tok.Kind == TokPunct && p.tok.Text == ";") {
		v, err := p.parseExpr()
		if err != nil {
			return Invalid, err
		}
		value = v
	}
	end, err := p.expectPunct(";")
	if err != nil {
		return Invalid, err
	}
	//
	return p.arena.Alloc(NewReturn(value, source.NewSpan(start.Start(), end.End()))), nil
}

func (p *Parser) parseExprOrAssignStmt() (Handle, error) {
	start := p.tok.Span
	lhs, err := p.parseExpr()
	if err != nil {
		return Invalid, err
	}
	//
	if p.tok.Kind == TokPunct && p.tok.Text == "=" {
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return Invalid, err
		}
		end, err := p.expectPunct(";")
		if err != nil {
			return Invalid, err
		}
		return p.arena.Alloc(NewAssign(lhs, rhs, source.NewSpan(start.Start(), end.End()))), nil
	}
	//
	end, err := p.expectPunct(";")
	if err != nil {
		return Invalid, err
	}
	return p.arena.Alloc(NewExprStmt(lhs, source.NewSpan(start.Start(), end.End()))), nil
}

// Expressions, by ascending precedence: logical-or > logical-and >
// comparison > additive > multiplicative > unary > postfix > primary.

func (p *Parser) parseExpr() (Handle, error) {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (Handle, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return Invalid, err
	}
	//
	for p.tok.Kind == TokPunct && p.tok.Text == "||" {
		start := p.tok.Span
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return Invalid, err
		}
		end := p.prevSpanEnd()
		left = p.arena.Alloc(NewBinary("||", left, right, source.NewSpan(start.Start(), end)))
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (Handle, error) {
	left, err := p.parseComparison()
	if err != nil {
		return Invalid, err
	}
	//
	for p.tok.Kind == TokPunct && p.tok.Text == "&&" {
		start := p.tok.Span
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return Invalid, err
		}
		end := p.prevSpanEnd()
		left = p.arena.Alloc(NewBinary("&&", left, right, source.NewSpan(start.Start(), end)))
	}
	return left, nil
}

func (p *Parser) parseComparison() (Handle, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return Invalid, err
	}
	//
	for p.tok.Kind == TokPunct && isCompareOp(p.tok.Text) {
		op := p.tok.Text
		start := p.tok.Span
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return Invalid, err
		}
		end := p.prevSpanEnd()
		left = p.arena.Alloc(NewBinary(op, left, right, source.NewSpan(start.Start(), end)))
	}
	return left, nil
}

func isCompareOp(s string) bool {
	switch s {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}
	return false
}

func (p *Parser) parseAdditive() (Handle, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return Invalid, err
	}
	//
	for p.tok.Kind == TokPunct && (p.tok.Text == "+" || p.tok.Text == "-") {
		op := p.tok.Text
		start := p.tok.Span
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return Invalid, err
		}
		end := p.prevSpanEnd()
		left = p.arena.Alloc(NewBinary(op, left, right, source.NewSpan(start.Start(), end)))
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Handle, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Invalid, err
	}
	//
	for p.tok.Kind == TokPunct && (p.tok.Text == "*" || p.tok.Text == "/") {
		op := p.tok.Text
		start := p.tok.Span
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return Invalid, err
		}
		end := p.prevSpanEnd()
		left = p.arena.Alloc(NewBinary(op, left, right, source.NewSpan(start.Start(), end)))
	}
	return left, nil
}

func (p *Parser) parseUnary() (Handle, error) {
	if p.tok.Kind == TokPunct && (p.tok.Text == "-" || p.tok.Text == "!") {
		op := p.tok.Text
		start := p.tok.Span
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return Invalid, err
		}
		end := p.prevSpanEnd()
		return p.arena.Alloc(NewUnary(op, operand, source.NewSpan(start.Start(), end))), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Handle, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return Invalid, err
	}
	//
	for {
		if p.tok.Kind == TokPunct && p.tok.Text == "." {
			start := p.tok.Span
			if err := p.advance(); err != nil {
				return Invalid, err
			}
			field, _, err := p.expectIdent()
			if err != nil {
				return Invalid, err
			}
			expr = p.arena.Alloc(NewMember(expr, field, source.NewSpan(start.Start(), p.prevSpanEnd())))
			continue
		}
		break
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Handle, error) {
	start := p.tok.Span
	//
	switch {
	case p.tok.Kind == TokNumber:
		isInt := !strings.ContainsAny(p.tok.Text, ".fF")
		n, err := p.parseNumberLiteral()
		if err != nil {
			return Invalid, err
		}
		v := FloatValue(n)
		if isInt {
			v = IntValue(int64(n))
		}
		return p.arena.Alloc(NewLiteral(v, source.NewSpan(start.Start(), p.prevSpanEnd()))), nil
	case p.isKeyword("true") || p.isKeyword("false"):
		v := p.tok.Text == "true"
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		return p.arena.Alloc(NewLiteral(BoolValue(v), source.NewSpan(start.Start(), p.prevSpanEnd()))), nil
	case p.tok.Kind == TokPunct && p.tok.Text == "(":
		if err := p.advance(); err != nil {
			return Invalid, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return Invalid, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return Invalid, err
		}
		return expr, nil
	case p.tok.Kind == TokIdent && p.tok.Text == "make_closure":
		return p.parseClosureCall()
	case p.tok.Kind == TokIdent || p.isBaseTypeKeyword():
		name, _, err := p.expectIdentOrTypeName()
		if err != nil {
			return Invalid, err
		}
		if p.tok.Kind == TokPunct && p.tok.Text == "(" {
			args, err := p.parseArgs()
			if err != nil {
				return Invalid, err
			}
			return p.arena.Alloc(NewCall(name, args, source.NewSpan(start.Start(), p.prevSpanEnd()))), nil
		}
		return p.arena.Alloc(NewIdent(name, source.NewSpan(start.Start(), p.prevSpanEnd()))), nil
	default:
		return Invalid, p.errAt(p.tok.Span, "unexpected token %q in expression", p.tok.Text)
	}
}

func (p *Parser) expectIdentOrTypeName() (string, source.Span, error) {
	if p.tok.Kind == TokIdent {
		return p.expectIdent()
	}
	// A base-type keyword used as a constructor call, e.g. float3(...).
	name := p.tok.Text
	span := p.tok.Span
	return name, span, p.advance()
}

func (p *Parser) parseClosureCall() (Handle, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil { // 'make_closure'
		return Invalid, err
	}
	if _, err := p.expectPunct("<"); err != nil {
		return Invalid, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return Invalid, err
	}
	if _, err := p.expectPunct(">"); err != nil {
		return Invalid, err
	}
	args, err := p.parseArgs()
	if err != nil {
		return Invalid, err
	}
	//
	p.driver.ClosureTouched(name)
	return p.arena.Alloc(NewClosureCall(name, args, source.NewSpan(start.Start(), p.prevSpanEnd()))), nil
}

func (p *Parser) parseArgs() ([]Handle, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	//
	var args []Handle
	for !(p.tok.Kind == TokPunct && p.tok.Text == ")") {
		if len(args) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	_, err := p.expectPunct(")")
	return args, err
}
