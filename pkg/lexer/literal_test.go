package lexer_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclex/pkg/lexer"
	"github.com/xplshn/gclex/pkg/token"
)

func first(t *testing.T, src string, scratch int) token.Token {
	t.Helper()
	l := lexer.NewLexer([]byte(src), lexer.NewScratch(scratch))
	tok, more := l.Next()
	require.True(t, more, "input %q", src)
	return tok
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `"abc"`, "abc"},
		{"empty", `""`, ""},
		{"simple", `"\\\'\"\t\f\n\r"`, "\\'\"\t\f\n\r"},
		{"passthrough", `"\q\a\?"`, "qa?"},
		{"octal one digit", `"\0"`, "\x00"},
		{"octal three digits", `"\101\60"`, "A0"},
		{"octal stops after three", `"\1012"`, "A2"},
		{"octal masked to a byte", `"\777"`, "\xff"},
		{"hex", `"\x41\X4a"`, "AJ"},
		{"hex unbounded keeps low byte", `"\x12345641"`, "A"},
		{"hex stops at non digit", `"\x41g"`, "Ag"},
		{"unicode two bytes", `"\u00e9"`, "\xc3\xa9"},
		{"unicode one byte", `"\u0041"`, "A"},
		{"unicode three bytes", `"\u20AC"`, "€"},
		{"unicode four bytes", `"\U0001F600"`, "😀"},
		{"unicode max", `"\U0010FFFF"`, "\xf4\x8f\xbf\xbf"},
		{"surrogate encoded as is", `"\uD800"`, "\xed\xa0\x80"},
		{"embedded nul", `"a\0b"`, "a\x00b"},
		{"raw utf8 passes through", `"héllo"`, "héllo"},
		{"other quote is literal", `"it's"`, "it's"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := first(t, tt.in, 64)
			require.Equal(t, token.String, tok.Kind)
			require.Equal(t, token.Span{Start: 0, End: len(tt.in)}, tok.Span)
			text, ok := tok.Text()
			require.True(t, ok)
			require.Equal(t, tt.want, string(text))
			require.Len(t, text, len(tt.want))
		})
	}
}

func TestCharLiteral(t *testing.T) {
	tok := first(t, `'\n'`, 8)
	require.Equal(t, token.CharLit, tok.Kind)
	text, _ := tok.Text()
	require.Equal(t, []byte{'\n'}, text)

	tok = first(t, `'"'`, 8)
	require.Equal(t, token.CharLit, tok.Kind)
	text, _ = tok.Text()
	require.Equal(t, `"`, string(text))

	tok = first(t, `'ab'`, 8)
	require.Equal(t, token.CharLit, tok.Kind)
	text, _ = tok.Text()
	require.Equal(t, "ab", string(text))
}

func TestLiteralErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		scratch int
		span    token.Span
	}{
		{"unterminated string", `"abc`, 64, token.Span{Start: 0, End: 4}},
		{"unterminated char", `'a`, 64, token.Span{Start: 0, End: 2}},
		{"trailing backslash", `"ab\`, 64, token.Span{Start: 0, End: 4}},
		{"hex without digits", `"\xg"`, 64, token.Span{Start: 0, End: 4}},
		{"hex at end of buffer", `"\x`, 64, token.Span{Start: 0, End: 3}},
		{"short unicode", `"\u12g4"`, 64, token.Span{Start: 0, End: 6}},
		{"unicode at end of buffer", `"\u12`, 64, token.Span{Start: 0, End: 5}},
		{"code point too large", `"\U00110000"`, 64, token.Span{Start: 0, End: 11}},
		{"scratch overflow", `"abcdef"`, 4, token.Span{Start: 0, End: 6}},
		{"scratch overflow in utf8", `"ab\u20AC"`, 4, token.Span{Start: 0, End: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := lexer.NewLexer([]byte(tt.in), lexer.NewScratch(tt.scratch))
			tok, more := l.Next()
			require.True(t, more)
			require.Equal(t, token.Error, tok.Kind)
			require.Equal(t, tt.span, tok.Span)
			require.Equal(t, tt.span.End, l.Pos())
		})
	}
}

func TestUnterminatedStringYieldsOneError(t *testing.T) {
	toks := lexer.Tokenize([]byte(`"abc`), lexer.NewScratch(16))
	want := []token.Token{
		{Kind: token.Error, Span: token.Span{Start: 0, End: 4}},
		{Kind: token.EOF, Span: token.Span{Start: 4, End: 4}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegerLiterals(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		suffix string
	}{
		{"10", 10, ""},
		{"0", 0, ""},
		{"0x1A", 26, ""},
		{"0XfF", 255, ""},
		{"0b101", 5, ""},
		{"010", 8, ""},
		{"00", 0, ""},
		{"42u", 42, "u"},
		{"42UL", 42, "UL"},
		{"0x10ull", 16, "ull"},
		{"0777L", 511, "L"},
		{"9223372036854775807", math.MaxInt64, ""},
		{"99999999999999999999", math.MaxInt64, ""},
		{"0xFFFFFFFFFFFFFFFF", math.MaxInt64, ""},
	}
	for _, tt := range tests {
		tok := first(t, tt.in, 16)
		require.Equal(t, token.Int, tok.Kind, "input %q", tt.in)
		v, ok := tok.Int()
		require.True(t, ok)
		require.Equal(t, tt.want, v, "input %q", tt.in)
		suffix, _ := tok.Suffix()
		require.Equal(t, tt.suffix, string(suffix), "input %q", tt.in)
		require.Equal(t, len(tt.in), tok.Span.End)
	}
}

func TestFloatLiterals(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		suffix string
	}{
		{"3.14", 3.14, ""},
		{"3.14f", 3.14, "f"},
		{"1.", 1, ""},
		{"0.5", 0.5, ""},
		{"1.5e3", 1500, ""},
		{"2.5E-2L", 0.025, "L"},
		{"1.e+2", 100, ""},
		{"007.5", 7.5, ""},
	}
	for _, tt := range tests {
		tok := first(t, tt.in, 16)
		require.Equal(t, token.Float, tok.Kind, "input %q", tt.in)
		v, ok := tok.Float()
		require.True(t, ok)
		require.InDelta(t, tt.want, v, 1e-12, "input %q", tt.in)
		suffix, _ := tok.Suffix()
		require.Equal(t, tt.suffix, string(suffix), "input %q", tt.in)
	}
}

func TestNumericErrors(t *testing.T) {
	tests := []struct {
		in   string
		span token.Span
	}{
		{"3.14k", token.Span{Start: 0, End: 5}},
		{"3.14fk", token.Span{Start: 0, End: 6}},
		{"1.5e", token.Span{Start: 0, End: 4}},
		{"12z", token.Span{Start: 0, End: 3}},
		{"10f", token.Span{Start: 0, End: 3}},
		{"0x", token.Span{Start: 0, End: 2}},
		{"0xg", token.Span{Start: 0, End: 2}},
		{"0b", token.Span{Start: 0, End: 2}},
		{"0b102", token.Span{Start: 0, End: 5}},
		{"019", token.Span{Start: 0, End: 3}},
		{"08", token.Span{Start: 0, End: 2}},
	}
	for _, tt := range tests {
		tok := first(t, tt.in, 16)
		require.Equal(t, token.Error, tok.Kind, "input %q", tt.in)
		require.Equal(t, tt.span, tok.Span, "input %q", tt.in)
	}
}

func TestSuffixScratchOverflow(t *testing.T) {
	tok := first(t, "1ull", 2)
	require.Equal(t, token.Error, tok.Kind)
	require.Equal(t, token.Span{Start: 0, End: 4}, tok.Span)
}

func TestNumberFollowedByPunctuation(t *testing.T) {
	toks := lexer.Tokenize([]byte("a[10];"), lexer.NewScratch(8))
	require.Equal(t, []token.Kind{token.Ident, token.Char, token.Int, token.Char, token.Char, token.EOF}, kinds(toks))
	v, _ := toks[2].Int()
	require.Equal(t, int64(10), v)
}

func TestWrongAccessorReportsFalse(t *testing.T) {
	tok := first(t, "12", 8)
	_, ok := tok.Float()
	require.False(t, ok)
	_, ok = tok.Text()
	require.False(t, ok)

	tok = first(t, `"s"`, 8)
	_, ok = tok.Int()
	require.False(t, ok)
	_, ok = tok.Suffix()
	require.False(t, ok)
}
