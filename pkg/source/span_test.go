package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpanContains(t *testing.T) {
	s := NewSpan(3, 7)
	require.Equal(t, 3, s.Start())
	require.Equal(t, 7, s.End())
	require.False(t, s.Contains(2))
	require.True(t, s.Contains(3))
	require.True(t, s.Contains(6))
	require.False(t, s.Contains(7))
}

func TestFileLineOf(t *testing.T) {
	f := NewFile("unit.tsl", "shader entry(out float o){\n  o = 3.5;\n}\n")

	line, text := f.LineOf(NewSpan(0, 1))
	require.Equal(t, 1, line)
	require.Equal(t, "shader entry(out float o){", text)

	// The "o = 3.5;" statement starts on the second line.
	secondLineStart := len("shader entry(out float o){\n")
	line, text = f.LineOf(NewSpan(secondLineStart, secondLineStart+1))
	require.Equal(t, 2, line)
	require.Equal(t, "  o = 3.5;", text)
}

func TestFileNameAndText(t *testing.T) {
	f := NewFile("foo.tsl", "shader s(){}")
	require.Equal(t, "foo.tsl", f.Name())
	require.Equal(t, "shader s(){}", f.Text())
}

func TestSyntaxErrorRendersFileAndLine(t *testing.T) {
	f := NewFile("unit.tsl", "shader entry(out float o){\n  o = x;\n}\n")
	secondLineStart := len("shader entry(out float o){\n")
	err := NewSyntaxError(f, NewSpan(secondLineStart+2, secondLineStart+3), "unknown symbol %q", "x")

	require.Equal(t, "unknown symbol \"x\"", err.Message())
	require.Contains(t, err.Error(), "unit.tsl:2:")
	require.Contains(t, err.Error(), "unknown symbol \"x\"")
	require.Contains(t, err.Error(), "o = x;")
}

func TestSyntaxErrorWithoutFile(t *testing.T) {
	err := NewSyntaxError(nil, NewSpan(2, 5), "boom")
	require.Equal(t, "2:5: boom", err.Error())
}

func TestErrorSinkAccumulatesInReportOrder(t *testing.T) {
	var sink ErrorSink
	require.False(t, sink.HasErrors())

	f := NewFile("u.tsl", "abc")
	sink.Report(f, NewSpan(0, 1), "first %d", 1)
	sink.Report(f, NewSpan(1, 2), "second")

	require.True(t, sink.HasErrors())
	errs := sink.Errors()
	require.Len(t, errs, 2)
	require.Equal(t, "first 1", errs[0].Message())
	require.Equal(t, "second", errs[1].Message())

	sink.Reset()
	require.False(t, sink.HasErrors())
	require.Empty(t, sink.Errors())
}
