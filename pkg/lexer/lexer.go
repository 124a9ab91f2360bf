package lexer

import (
	"iter"

	"github.com/xplshn/gclex/pkg/token"
)

const maxOperatorLen = 3

// Lexer scans a byte buffer into tokens. It is not safe for concurrent
// use; tokenize independent buffers with independent lexers.
type Lexer struct {
	source  []byte
	pos     int
	scratch *Scratch
}

// NewLexer returns a lexer over source that decodes identifiers, literal
// payloads and suffixes into scratch. The scratch buffer is owned by the
// lexer until it is discarded.
func NewLexer(source []byte, scratch *Scratch) *Lexer {
	if scratch == nil {
		scratch = NewScratch(0)
	}
	return &Lexer{source: source, scratch: scratch}
}

// Reset rebinds the lexer to a new buffer, keeping its scratch.
func (l *Lexer) Reset(source []byte) {
	l.source, l.pos = source, 0
	l.scratch.Reset()
}

// Pos returns the cursor as a byte offset into the source.
func (l *Lexer) Pos() int { return l.pos }

// Next scans one token. The boolean is false only for EOF; error tokens
// report true so the caller may keep scanning past them.
func (l *Lexer) Next() (token.Token, bool) {
	if tok, failed := l.skipWhitespaceAndComments(); failed {
		return tok, true
	}
	start := l.pos

	if l.isAtEnd() || l.peek() == 0 {
		return token.Token{Kind: token.EOF, Span: token.Span{Start: start, End: start}}, false
	}

	if tok, ok := l.operator(start); ok {
		return tok, true
	}

	ch := l.peek()
	switch {
	case ch == '"' || ch == '\'':
		return l.quoted(start), true
	case isDigit(ch):
		return l.number(start), true
	case isIdentStart(ch):
		return l.identifier(start), true
	}

	l.advance()
	return token.Token{Kind: token.Char, Char: ch, Span: token.Span{Start: start, End: l.pos}}, true
}

// All ranges over the remaining tokens, stopping before EOF. Payloads are
// only valid inside the loop body that receives them.
func (l *Lexer) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for {
			tok, more := l.Next()
			if !more || !yield(tok) {
				return
			}
		}
	}
}

// Tokenize scans all of src and returns detached copies of its tokens,
// ending with the EOF token.
func Tokenize(src []byte, scratch *Scratch) []token.Token {
	l := NewLexer(src, scratch)
	var toks []token.Token
	for {
		tok, more := l.Next()
		toks = append(toks, tok.Clone())
		if !more {
			return toks
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) peek() byte { return l.peekAt(0) }

func (l *Lexer) peekNext() byte { return l.peekAt(1) }

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) makeToken(kind token.Kind, start int, value token.Value) token.Token {
	return token.Token{Kind: kind, Span: token.Span{Start: start, End: l.pos}, Value: value}
}

// fail produces an error token over [start, end) and resumes scanning at end.
func (l *Lexer) fail(start, end int) token.Token {
	if end > len(l.source) {
		end = len(l.source)
	}
	l.pos = end
	return token.Token{Kind: token.Error, Span: token.Span{Start: start, End: end}}
}

func (l *Lexer) skipWhitespaceAndComments() (token.Token, bool) {
	for !l.isAtEnd() {
		switch {
		case isSpace(l.peek()):
			l.pos++
		case l.peek() == '/' && l.peekNext() == '/':
			l.lineComment()
		case l.peek() == '/' && l.peekNext() == '*':
			start := l.pos
			if !l.blockComment() {
				return l.fail(start, len(l.source)), true
			}
		default:
			return token.Token{}, false
		}
	}
	return token.Token{}, false
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' && l.peek() != '\r' {
		l.pos++
	}
}

func (l *Lexer) blockComment() bool {
	l.pos += 2
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.pos += 2
			return true
		}
		l.pos++
	}
	return false
}

// operator matches the longest multi-character operator at the cursor.
func (l *Lexer) operator(start int) (token.Token, bool) {
	for n := maxOperatorLen; n >= 2; n-- {
		if start+n > len(l.source) {
			continue
		}
		if kind, ok := token.Operators[string(l.source[start:start+n])]; ok {
			l.pos = start + n
			return l.makeToken(kind, start, nil), true
		}
	}
	return token.Token{}, false
}

func (l *Lexer) identifier(start int) token.Token {
	l.scratch.Reset()
	for !l.isAtEnd() && isIdentByte(l.peek()) {
		if !l.scratch.AppendByte(l.peek()) {
			return l.fail(start, l.pos+1)
		}
		l.pos++
	}
	return l.makeToken(token.Ident, start, token.TextValue{Text: l.scratch.Bytes()})
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// Bytes with the high bit set are accepted so UTF-8 identifiers pass through unvalidated.
func isIdentStart(c byte) bool { return isLetter(c) || c == '_' || c == '$' || c >= 0x80 }

func isIdentByte(c byte) bool { return isIdentStart(c) || isDigit(c) }
