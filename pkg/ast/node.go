package ast

import "github.com/ckod3/Tiny-Shading-Language/pkg/source"

// Expressions. Each concrete type implements Node via an embedded span.

// Literal is a constant value appearing directly in source.
type Literal struct {
	Value Value
	span  source.Span
}

// Span implements Node.
func (n *Literal) Span() source.Span { return n.span }

// NewLiteral constructs a literal expression node.
func NewLiteral(v Value, span source.Span) *Literal {
	return &Literal{v, span}
}

// Ident references a variable, parameter or global by name.
type Ident struct {
	Name string
	span source.Span
}

// Span implements Node.
func (n *Ident) Span() source.Span { return n.span }

// NewIdent constructs an identifier reference node.
func NewIdent(name string, span source.Span) *Ident {
	return &Ident{name, span}
}

// Binary is a binary operator expression, e.g. "a + b".
type Binary struct {
	Op          string
	Left, Right Handle
	span        source.Span
}

// Span implements Node.
func (n *Binary) Span() source.Span { return n.span }

// NewBinary constructs a binary expression node.
func NewBinary(op string, left, right Handle, span source.Span) *Binary {
	return &Binary{op, left, right, span}
}

// Unary is a unary prefix operator expression, e.g. "-a" or "!a".
type Unary struct {
	Op      string
	Operand Handle
	span    source.Span
}

// Span implements Node.
func (n *Unary) Span() source.Span { return n.span }

// NewUnary constructs a unary expression node.
func NewUnary(op string, operand Handle, span source.Span) *Unary {
	return &Unary{op, operand, span}
}

// Call is a function call or, when Closure is non-empty, a closure
// constructor invocation of the form "make_closure<Name>(args...)". The
// parser fires the driver's ClosureTouched callback the moment such a
// call is recognised.
type Call struct {
	Name    string
	Closure string
	Args    []Handle
	span    source.Span
}

// Span implements Node.
func (n *Call) Span() source.Span { return n.span }

// NewCall constructs a function-call expression node.
func NewCall(name string, args []Handle, span source.Span) *Call {
	return &Call{Name: name, Args: args, span: span}
}

// NewClosureCall constructs a make_closure<Name>(...) expression node.
func NewClosureCall(closure string, args []Handle, span source.Span) *Call {
	return &Call{Closure: closure, Args: args, span: span}
}

// Member accesses a struct field or vector swizzle component of Target.
type Member struct {
	Target Handle
	Field  string
	span   source.Span
}

// Span implements Node.
func (n *Member) Span() source.Span { return n.span }

// NewMember constructs a field/swizzle access expression node.
func NewMember(target Handle, field string, span source.Span) *Member {
	return &Member{target, field, span}
}

// Statements.

// Block is a sequence of statements forming one lexical scope.
type Block struct {
	Stmts []Handle
	span  source.Span
}

// Span implements Node.
func (n *Block) Span() source.Span { return n.span }

// NewBlock constructs a statement block node.
func NewBlock(stmts []Handle, span source.Span) *Block {
	return &Block{stmts, span}
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr Handle
	span source.Span
}

// Span implements Node.
func (n *ExprStmt) Span() source.Span { return n.span }

// NewExprStmt constructs an expression-statement node.
func NewExprStmt(expr Handle, span source.Span) *ExprStmt {
	return &ExprStmt{expr, span}
}

// Assign stores the value of Value into the lvalue expression Target.
type Assign struct {
	Target Handle
	Value  Handle
	span   source.Span
}

// Span implements Node.
func (n *Assign) Span() source.Span { return n.span }

// NewAssign constructs an assignment statement node.
func NewAssign(target, value Handle, span source.Span) *Assign {
	return &Assign{target, value, span}
}

// VarDecl declares a local variable, with an optional initializer.
type VarDecl struct {
	Name string
	Type BaseType
	Init Handle // Invalid if there is no initializer
	span source.Span
}

// Span implements Node.
func (n *VarDecl) Span() source.Span { return n.span }

// NewVarDecl constructs a local-variable declaration statement node.
func NewVarDecl(name string, typ BaseType, init Handle, span source.Span) *VarDecl {
	return &VarDecl{name, typ, init, span}
}

// If is a conditional statement with an optional else branch.
type If struct {
	Cond       Handle
	Then, Else Handle // Else is Invalid when absent
	span       source.Span
}

// Span implements Node.
func (n *If) Span() source.Span { return n.span }

// NewIf constructs an if statement node.
func NewIf(cond, then, els Handle, span source.Span) *If {
	return &If{cond, then, els, span}
}

// While is a pre-tested loop statement.
type While struct {
	Cond Handle
	Body Handle
	span source.Span
}

// Span implements Node.
func (n *While) Span() source.Span { return n.span }

// NewWhile constructs a while-loop statement node.
func NewWhile(cond, body Handle, span source.Span) *While {
	return &While{cond, body, span}
}

// For is a C-style counted loop statement.
type For struct {
	Init, Cond, Post Handle // each may be Invalid
	Body             Handle
	span             source.Span
}

// Span implements Node.
func (n *For) Span() source.Span { return n.span }

// NewFor constructs a for-loop statement node.
func NewFor(init, cond, post, body Handle, span source.Span) *For {
	return &For{init, cond, post, body, span}
}

// Return exits the enclosing function, optionally yielding a value.
type Return struct {
	Value Handle // Invalid for a bare "return;"
	span  source.Span
}

// Span implements Node.
func (n *Return) Span() source.Span { return n.span }

// NewReturn constructs a return statement node.
func NewReturn(value Handle, span source.Span) *Return {
	return &Return{value, span}
}

// Declarations.

// Param is one formal parameter of a function or shader.
type Param struct {
	Name      string
	Type      BaseType
	Direction Direction
	Default   *Value
}

// FunctionDecl is a free function or a shader entry point. Exactly one
// FunctionDecl per compile may have IsShader set; it becomes the template's
// root.
type FunctionDecl struct {
	Name     string
	IsShader bool
	// ReturnType is TypeVoid for a shader (shaders always return void and
	// communicate results through "out" parameters) and the declared
	// return type for a plain function.
	ReturnType BaseType
	Params     []Param
	Body       Handle
	span       source.Span
}

// Span implements Node.
func (n *FunctionDecl) Span() source.Span { return n.span }

// NewFunctionDecl constructs a function or shader declaration node.
func NewFunctionDecl(name string, isShader bool, retType BaseType, params []Param, body Handle, span source.Span) *FunctionDecl {
	return &FunctionDecl{name, isShader, retType, params, body, span}
}

// StructField is one named, typed member of a StructDecl.
type StructField struct {
	Name string
	Type BaseType
}

// StructDecl declares an aggregate type available to subsequent code in the
// same compile; structures lower before any function body.
type StructDecl struct {
	Name   string
	Fields []StructField
	span   source.Span
}

// Span implements Node.
func (n *StructDecl) Span() source.Span { return n.span }

// NewStructDecl constructs a struct declaration node.
func NewStructDecl(name string, fields []StructField, span source.Span) *StructDecl {
	return &StructDecl{name, fields, span}
}

// GlobalParamDecl declares a module-level variable visible to every
// function and the shader root within one compile.
type GlobalParamDecl struct {
	Name string
	Type BaseType
	span source.Span
}

// Span implements Node.
func (n *GlobalParamDecl) Span() source.Span { return n.span }

// NewGlobalParamDecl constructs a global-parameter declaration node.
func NewGlobalParamDecl(name string, typ BaseType, span source.Span) *GlobalParamDecl {
	return &GlobalParamDecl{name, typ, span}
}
