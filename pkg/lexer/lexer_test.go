package lexer_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclex/pkg/lexer"
	"github.com/xplshn/gclex/pkg/token"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	return lexer.Tokenize([]byte(src), lexer.NewScratch(256))
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func ident(text string, start, end int) token.Token {
	return token.Token{Kind: token.Ident, Span: token.Span{Start: start, End: end}, Value: token.TextValue{Text: []byte(text)}}
}

func TestTriviaOnlyInputsAreEOF(t *testing.T) {
	inputs := []string{
		"",
		"   \t\r\n\f",
		"// just a comment",
		"// one\n// two\r\n",
		"/* block */",
		"/* a */ /* b */\n// c\n  ",
		"/**/",
		"/* multi\nline\n*/",
	}
	for _, in := range inputs {
		l := lexer.NewLexer([]byte(in), lexer.NewScratch(16))
		tok, more := l.Next()
		require.False(t, more, "input %q", in)
		require.Equal(t, token.EOF, tok.Kind, "input %q", in)
		require.Equal(t, len(in), tok.Span.Start, "input %q", in)
	}
}

func TestEOFDoesNotAdvance(t *testing.T) {
	l := lexer.NewLexer([]byte("x"), lexer.NewScratch(16))
	_, more := l.Next()
	require.True(t, more)
	for i := 0; i < 3; i++ {
		tok, more := l.Next()
		require.False(t, more)
		require.Equal(t, token.EOF, tok.Kind)
		require.Equal(t, 1, l.Pos())
	}
}

func TestNulByteEndsStream(t *testing.T) {
	src := []byte("a\x00b")
	l := lexer.NewLexer(src, lexer.NewScratch(16))
	tok, _ := l.Next()
	require.Equal(t, token.Ident, tok.Kind)
	tok, more := l.Next()
	require.False(t, more)
	require.Equal(t, token.EOF, tok.Kind)
	require.Equal(t, token.Span{Start: 1, End: 1}, tok.Span)
}

func TestIdentifiers(t *testing.T) {
	for _, in := range []string{"x", "_", "hello", "snake_case_42", "CamelCase", "_0", "a1b2c3"} {
		toks := tokenize(t, in)
		want := []token.Token{
			ident(in, 0, len(in)),
			{Kind: token.EOF, Span: token.Span{Start: len(in), End: len(in)}},
		}
		if diff := cmp.Diff(want, toks); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestIdentifierDollarAndUTF8(t *testing.T) {
	toks := tokenize(t, "$tmp größe")
	want := []token.Token{
		ident("$tmp", 0, 4),
		ident("größe", 5, 5+len("größe")),
		{Kind: token.EOF, Span: token.Span{Start: 5 + len("größe"), End: 5 + len("größe")}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentifierScratchOverflow(t *testing.T) {
	l := lexer.NewLexer([]byte("hello"), lexer.NewScratch(4))
	tok, more := l.Next()
	require.True(t, more)
	require.Equal(t, token.Error, tok.Kind)
	require.Equal(t, token.Span{Start: 0, End: 5}, tok.Span)
	_, ok := tok.Text()
	require.False(t, ok)

	tok, more = l.Next()
	require.False(t, more)
	require.Equal(t, token.EOF, tok.Kind)
}

func TestIdentifierExactlyFitsScratch(t *testing.T) {
	l := lexer.NewLexer([]byte("abcd"), lexer.NewScratch(4))
	tok, _ := l.Next()
	require.Equal(t, token.Ident, tok.Kind)
	text, ok := tok.Text()
	require.True(t, ok)
	require.Equal(t, "abcd", string(text))
}

func TestOperatorsLongestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want []token.Kind
	}{
		{"<<=", []token.Kind{token.ShlEq, token.EOF}},
		{">>=", []token.Kind{token.ShrEq, token.EOF}},
		{"<<", []token.Kind{token.Shl, token.EOF}},
		{"<=", []token.Kind{token.Lte, token.EOF}},
		{"==", []token.Kind{token.EqEq, token.EOF}},
		{"=>", []token.Kind{token.FatArrow, token.EOF}},
		{"->", []token.Kind{token.Arrow, token.EOF}},
		{"!=", []token.Kind{token.Neq, token.EOF}},
		{"&& || ++ --", []token.Kind{token.AndAnd, token.OrOr, token.Inc, token.Dec, token.EOF}},
		{"+= -= *= /= %= &= |= ^=", []token.Kind{
			token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq,
			token.RemEq, token.AndEq, token.OrEq, token.XorEq, token.EOF,
		}},
		{"<<<=", []token.Kind{token.Shl, token.Lte, token.EOF}},
		{"===", []token.Kind{token.EqEq, token.Char, token.EOF}},
		{"a->b", []token.Kind{token.Ident, token.Arrow, token.Ident, token.EOF}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, kinds(tokenize(t, tt.in))); diff != "" {
			t.Errorf("kinds(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestEveryOperatorSpelling(t *testing.T) {
	for kind, spelling := range token.Spellings {
		toks := tokenize(t, spelling)
		require.Len(t, toks, 2, "spelling %q", spelling)
		require.Equal(t, kind, toks[0].Kind, "spelling %q", spelling)
		require.Equal(t, token.Span{Start: 0, End: len(spelling)}, toks[0].Span)
	}
}

func TestCharacterTokens(t *testing.T) {
	src := "{ } ( ) ; , . : [ ] < > = ! ~ ? # @ + - * / % & | ^"
	var want []byte
	for _, f := range strings.Fields(src) {
		want = append(want, f[0])
	}
	var got []byte
	for _, tok := range tokenize(t, src) {
		if tok.Kind == token.EOF {
			break
		}
		require.Equal(t, token.Char, tok.Kind)
		require.Equal(t, 1, tok.Span.Len())
		got = append(got, tok.Char)
	}
	require.Equal(t, string(want), string(got))
}

func TestCommentsBetweenTokens(t *testing.T) {
	src := "a /* x */ b // y\r\nc/**/d"
	toks := tokenize(t, src)
	want := []token.Token{
		ident("a", 0, 1),
		ident("b", 10, 11),
		ident("c", 18, 19),
		ident("d", 23, 24),
		{Kind: token.EOF, Span: token.Span{Start: 24, End: 24}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSlashEqualsIsNotAComment(t *testing.T) {
	require.Equal(t, []token.Kind{token.Ident, token.SlashEq, token.Int, token.EOF}, kinds(tokenize(t, "x /= 2")))
}

func TestUnterminatedBlockComment(t *testing.T) {
	src := "a /* never closed"
	l := lexer.NewLexer([]byte(src), lexer.NewScratch(16))
	tok, _ := l.Next()
	require.Equal(t, token.Ident, tok.Kind)

	tok, more := l.Next()
	require.True(t, more)
	require.Equal(t, token.Error, tok.Kind)
	require.Equal(t, token.Span{Start: 2, End: len(src)}, tok.Span)

	tok, more = l.Next()
	require.False(t, more)
	require.Equal(t, token.EOF, tok.Kind)
}

func TestCursorFollowsSpanEnd(t *testing.T) {
	src := `int main(void) { x <<= 0x1Fu; s = "a\tbé"; c = 'q'; f = 1.5e3f; bad = 3.14k; return 010 >= 7; } /* open`
	l := lexer.NewLexer([]byte(src), lexer.NewScratch(64))
	prev := 0
	for {
		tok, more := l.Next()
		require.Equal(t, tok.Span.End, l.Pos(), "token %v", tok)
		require.GreaterOrEqual(t, tok.Span.Start, prev)
		require.LessOrEqual(t, tok.Span.End, len(src))
		prev = tok.Span.End
		if !more {
			break
		}
	}
}

func TestAllStopsBeforeEOF(t *testing.T) {
	l := lexer.NewLexer([]byte(`a "unterminated`), lexer.NewScratch(32))
	var got []token.Kind
	for tok := range l.All() {
		got = append(got, tok.Kind)
	}
	require.Equal(t, []token.Kind{token.Ident, token.Error}, got)
}

func TestReset(t *testing.T) {
	l := lexer.NewLexer([]byte("first"), lexer.NewScratch(16))
	tok, _ := l.Next()
	text, _ := tok.Text()
	require.Equal(t, "first", string(text))

	l.Reset([]byte("second"))
	require.Equal(t, 0, l.Pos())
	tok, _ = l.Next()
	text, _ = tok.Text()
	require.Equal(t, "second", string(text))
}

func TestScratchPayloadIsReusedBetweenTokens(t *testing.T) {
	l := lexer.NewLexer([]byte("abc xyz"), lexer.NewScratch(16))
	first, _ := l.Next()
	kept := first.Clone()
	_, _ = l.Next()

	text, _ := first.Text()
	require.Equal(t, "xyz", string(text), "payload aliases scratch")
	text, _ = kept.Text()
	require.Equal(t, "abc", string(text))
}

func TestNilScratchOnlyAllowsPunctuation(t *testing.T) {
	toks := lexer.Tokenize([]byte("x + 1"), nil)
	require.Equal(t, []token.Kind{token.Error, token.Char, token.Int, token.EOF}, kinds(toks))
}
