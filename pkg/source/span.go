// Package source provides the textual span and error-reporting primitives
// shared by the parser frontend, the code generator and the CLI's
// diagnostic printer.
package source

import "fmt"

// Span identifies a contiguous range of runes within an original source
// string. Start is inclusive, End is exclusive.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span over [start,end).
func NewSpan(start, end int) Span {
	return Span{start, end}
}

// Start returns the inclusive start index of this span.
func (p Span) Start() int {
	return p.start
}

// End returns the exclusive end index of this span.
func (p Span) End() int {
	return p.end
}

// Contains checks whether a given index falls within this span.
func (p Span) Contains(index int) bool {
	return index >= p.start && index < p.end
}

// File wraps a named source string together with its raw runes, so that
// spans can be rendered back into line/column diagnostics.
type File struct {
	name string
	text []rune
}

// NewFile constructs a new named source file from its contents.
func NewFile(name string, contents string) *File {
	return &File{name, []rune(contents)}
}

// Name returns the name under which this file was registered (typically the
// shader unit's template name, not a filesystem path).
func (p *File) Name() string {
	return p.name
}

// Text returns the raw contents of this file.
func (p *File) Text() string {
	return string(p.text)
}

// LineOf returns the 1-indexed line number and the line's own text
// containing the given span's start offset.
func (p *File) LineOf(span Span) (int, string) {
	line := 1
	lineStart := 0
	//
	for i := 0; i < span.start && i < len(p.text); i++ {
		if p.text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	//
	lineEnd := lineStart
	for lineEnd < len(p.text) && p.text[lineEnd] != '\n' {
		lineEnd++
	}
	//
	return line, string(p.text[lineStart:lineEnd])
}

// SyntaxError is a structured error which retains the span into the
// original source where the error arose, along with a human-readable
// message. It is the unit of both parse-time and codegen-time
// diagnostics.
type SyntaxError struct {
	file *File
	span Span
	msg  string
}

// NewSyntaxError constructs a new syntax error relative to a given file,
// with printf-style context.
func NewSyntaxError(file *File, span Span, format string, args ...any) *SyntaxError {
	return &SyntaxError{file, span, fmt.Sprintf(format, args...)}
}

// Span returns the span of the original text this error is reported against.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the underlying human-readable message.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Error implements the error interface, rendering "<file>:<line>: <msg>"
// followed by a second, indented line holding the source line; without a
// file it renders "<start>:<end>: <msg>".
func (p *SyntaxError) Error() string {
	if p.file == nil {
		return fmt.Sprintf("%d:%d: %s", p.span.start, p.span.end, p.msg)
	}
	//
	line, text := p.file.LineOf(p.span)
	//
	return fmt.Sprintf("%s:%d: %s\n  %s", p.file.Name(), line, p.msg, text)
}

// ErrorSink accumulates zero or more syntax errors over the course of one
// compile, so that semantic errors from deep inside codegen recursion
// don't need to be threaded back up as Go errors at every call site; the
// compile collapses them into one failure at the end.
type ErrorSink struct {
	errors []*SyntaxError
}

// Report appends a new error to the sink.
func (p *ErrorSink) Report(file *File, span Span, format string, args ...any) {
	p.errors = append(p.errors, NewSyntaxError(file, span, format, args...))
}

// HasErrors reports whether any error has been accumulated.
func (p *ErrorSink) HasErrors() bool {
	return len(p.errors) > 0
}

// Errors returns the accumulated errors, in report order.
func (p *ErrorSink) Errors() []*SyntaxError {
	return p.errors
}

// Reset clears the sink for reuse across compiles on a pooled driver.
func (p *ErrorSink) Reset() {
	p.errors = nil
}
