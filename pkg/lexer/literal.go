package lexer

import (
	"strconv"
	"strings"

	"github.com/xplshn/gclex/pkg/token"
)

const maxCodePoint = 0x10FFFF

var simpleEscapes = map[byte]byte{
	'\\': '\\', '\'': '\'', '"': '"', 't': '\t', 'f': '\f', 'n': '\n', 'r': '\r',
}

// quoted decodes a string or character literal opening at start. The
// decoded bytes land in scratch; the token text aliases them.
func (l *Lexer) quoted(start int) token.Token {
	delim := l.source[start]
	kind := token.String
	if delim == '\'' {
		kind = token.CharLit
	}
	l.pos = start + 1
	l.scratch.Reset()

	for {
		if l.isAtEnd() {
			return l.fail(start, len(l.source))
		}
		c := l.peek()
		if c == delim {
			l.pos++
			return l.makeToken(kind, start, token.TextValue{Text: l.scratch.Bytes()})
		}
		if c != '\\' {
			l.pos++
			if !l.scratch.AppendByte(c) {
				return l.fail(start, l.pos)
			}
			continue
		}

		if l.pos+1 >= len(l.source) {
			return l.fail(start, len(l.source))
		}
		switch e := l.peekNext(); {
		case e == 'x' || e == 'X':
			l.pos += 2
			b, ok := l.hexEscape()
			if !ok {
				return l.fail(start, l.pos+1)
			}
			if !l.scratch.AppendByte(b) {
				return l.fail(start, l.pos)
			}
		case e == 'u' || e == 'U':
			digits := 4
			if e == 'U' {
				digits = 8
			}
			l.pos += 2
			cp, ok := l.hexDigits(digits)
			if !ok {
				return l.fail(start, l.pos+1)
			}
			if !l.appendUTF8(cp) {
				return l.fail(start, l.pos)
			}
		case isOctal(e):
			l.pos++
			if !l.scratch.AppendByte(l.octalEscape()) {
				return l.fail(start, l.pos)
			}
		default:
			l.pos += 2
			if v, ok := simpleEscapes[e]; ok {
				e = v
			}
			if !l.scratch.AppendByte(e) {
				return l.fail(start, l.pos)
			}
		}
	}
}

// octalEscape reads up to three octal digits at the cursor.
func (l *Lexer) octalEscape() byte {
	var v int
	for n := 0; n < 3 && !l.isAtEnd() && isOctal(l.peek()); n++ {
		v = v<<3 | int(l.peek()-'0')
		l.pos++
	}
	return byte(v & 0xFF)
}

// hexEscape reads one or more hex digits with no upper bound. Only the low
// byte of the accumulated value is kept. On failure the cursor is left on
// the offending byte.
func (l *Lexer) hexEscape() (byte, bool) {
	if l.isAtEnd() || hexVal(l.peek()) < 0 {
		return 0, false
	}
	var v byte
	for !l.isAtEnd() {
		h := hexVal(l.peek())
		if h < 0 {
			break
		}
		v = v<<4 | byte(h)
		l.pos++
	}
	return v, true
}

// hexDigits reads exactly n hex digits.
func (l *Lexer) hexDigits(n int) (uint32, bool) {
	var v uint32
	for i := 0; i < n; i++ {
		if l.isAtEnd() {
			return 0, false
		}
		h := hexVal(l.peek())
		if h < 0 {
			return 0, false
		}
		v = v<<4 | uint32(h)
		l.pos++
	}
	return v, true
}

// appendUTF8 writes cp into scratch using the RFC 3629 length classes.
// Surrogate halves are encoded like any other three-byte code point,
// which unicode/utf8 would replace with U+FFFD.
func (l *Lexer) appendUTF8(cp uint32) bool {
	var buf [4]byte
	var n int
	switch {
	case cp <= 0x7F:
		buf[0] = byte(cp)
		n = 1
	case cp <= 0x7FF:
		buf[0] = 0xC0 | byte(cp>>6)
		buf[1] = 0x80 | byte(cp&0x3F)
		n = 2
	case cp <= 0xFFFF:
		buf[0] = 0xE0 | byte(cp>>12)
		buf[1] = 0x80 | byte(cp>>6&0x3F)
		buf[2] = 0x80 | byte(cp&0x3F)
		n = 3
	case cp <= maxCodePoint:
		buf[0] = 0xF0 | byte(cp>>18)
		buf[1] = 0x80 | byte(cp>>12&0x3F)
		buf[2] = 0x80 | byte(cp>>6&0x3F)
		buf[3] = 0x80 | byte(cp&0x3F)
		n = 4
	default:
		return false
	}
	return l.scratch.Append(buf[:n])
}

// number decodes an integer or floating-point literal starting at a
// decimal digit.
func (l *Lexer) number(start int) token.Token {
	if l.peek() == '0' {
		switch l.peekNext() {
		case 'x', 'X':
			return l.radixInteger(start, 16)
		case 'b':
			return l.radixInteger(start, 2)
		}
	}

	for isDigit(l.peek()) {
		l.pos++
	}
	if l.peek() == '.' {
		return l.float(start)
	}

	digits := l.source[start:l.pos]
	if len(digits) > 1 && digits[0] == '0' {
		for i, d := range digits {
			if !isOctal(d) {
				return l.fail(start, start+i+1)
			}
		}
		return l.integer(start, digits[1:], 8)
	}
	return l.integer(start, digits, 10)
}

func (l *Lexer) radixInteger(start, base int) token.Token {
	l.pos = start + 2
	for !l.isAtEnd() {
		h := hexVal(l.peek())
		if h < 0 || h >= base {
			break
		}
		l.pos++
	}
	if base == 2 && isDigit(l.peek()) {
		return l.fail(start, l.pos+1)
	}
	if l.pos == start+2 {
		return l.fail(start, l.pos)
	}
	return l.integer(start, l.source[start+2:l.pos], base)
}

// integer converts digits and then reads the suffix. Values that do not
// fit in int64 saturate at math.MaxInt64, like strtol.
func (l *Lexer) integer(start int, digits []byte, base int) token.Token {
	var v int64
	if len(digits) > 0 {
		v, _ = strconv.ParseInt(string(digits), base, 64)
	}
	suffix, ok := l.numberSuffix("uUlL")
	if !ok {
		return l.fail(start, l.pos)
	}
	return l.makeToken(token.Int, start, token.IntValue{V: v, Suffix: suffix})
}

// float reads "digits '.' digits [exponent]" with the cursor on the dot.
func (l *Lexer) float(start int) token.Token {
	l.pos++
	for isDigit(l.peek()) {
		l.pos++
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		n := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			n++
		}
		if isDigit(l.peekAt(n)) {
			l.pos += n
			for isDigit(l.peek()) {
				l.pos++
			}
		}
	}

	// A range error still yields the saturated value (±Inf), like strtod.
	v, _ := strconv.ParseFloat(string(l.source[start:l.pos]), 64)
	suffix, ok := l.numberSuffix("fFlL")
	if !ok {
		return l.fail(start, l.pos)
	}
	return l.makeToken(token.Float, start, token.FloatValue{V: v, Suffix: suffix})
}

// numberSuffix copies the run of letters after a numeric literal into
// scratch. On a disallowed letter, or when scratch is full, the cursor is
// left just past the offending letter.
func (l *Lexer) numberSuffix(allowed string) ([]byte, bool) {
	l.scratch.Reset()
	for isLetter(l.peek()) {
		c := l.advance()
		if strings.IndexByte(allowed, c) < 0 || !l.scratch.AppendByte(c) {
			return nil, false
		}
	}
	return l.scratch.Bytes(), true
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
