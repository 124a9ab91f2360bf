// Package dump renders token streams for people and for golden files.
package dump

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/gclex/pkg/lexer"
	"github.com/xplshn/gclex/pkg/token"
)

// Record is the serialized form of one token. A payload that is valid
// UTF-8 goes in Text; any other payload goes in Bytes, which encodes as
// base64 in JSON.
type Record struct {
	Kind   string  `json:"kind"`
	Char   string  `json:"char,omitempty"`
	Int    *int64  `json:"int,omitempty"`
	Float  string  `json:"float,omitempty"`
	Text   *string `json:"text,omitempty"`
	Bytes  []byte  `json:"bytes,omitempty"`
	Suffix string  `json:"suffix,omitempty"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Line   int     `json:"line,omitempty"`
	Column int     `json:"column,omitempty"`
}

type Options struct {
	Locations bool
	Spans     bool
}

// NewRecord converts tok. When src is non-nil the record carries the
// line and column of the token start.
func NewRecord(src []byte, tok token.Token) Record {
	rec := Record{Kind: tok.Kind.String(), Start: tok.Span.Start, End: tok.Span.End}
	switch v := tok.Value.(type) {
	case token.IntValue:
		n := v.V
		rec.Int, rec.Suffix = &n, string(v.Suffix)
	case token.FloatValue:
		rec.Float, rec.Suffix = strconv.FormatFloat(v.V, 'g', -1, 64), string(v.Suffix)
	case token.TextValue:
		if utf8.Valid(v.Text) {
			s := string(v.Text)
			rec.Text = &s
		} else {
			rec.Bytes = append([]byte{}, v.Text...)
		}
	}
	if tok.Kind == token.Char {
		rec.Char = string(rune(tok.Char))
	}
	if src != nil {
		loc := lexer.Locate(src, tok.Span.Start)
		rec.Line, rec.Column = loc.Line, loc.Column
	}
	return rec
}

func Records(src []byte, toks []token.Token, opts Options) []Record {
	var locSrc []byte
	if opts.Locations {
		locSrc = src
	}
	recs := make([]Record, 0, len(toks))
	for _, tok := range toks {
		recs = append(recs, NewRecord(locSrc, tok))
	}
	return recs
}

// WriteText prints one token per line.
func WriteText(w io.Writer, src []byte, toks []token.Token, opts Options) error {
	for _, tok := range toks {
		if opts.Locations {
			if _, err := fmt.Fprintf(w, "%-8s ", lexer.Locate(src, tok.Span.Start)); err != nil {
				return err
			}
		}
		if opts.Spans {
			if _, err := fmt.Fprintf(w, "%-10s ", tok.Span); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, tok); err != nil {
			return err
		}
	}
	return nil
}

func WriteJSON(w io.Writer, src []byte, toks []token.Token, opts Options) error {
	data, err := json.MarshalIndent(Records(src, toks, opts), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Fingerprint hashes the kinds and payloads of toks. Spans are left out,
// so reformatting a file without changing its tokens keeps the fingerprint.
func Fingerprint(toks []token.Token) uint64 {
	h := xxhash.New()
	var buf [binary.MaxVarintLen64]byte
	writeUint := func(v uint64) {
		n := binary.PutUvarint(buf[:], v)
		h.Write(buf[:n])
	}
	writeBytes := func(b []byte) {
		writeUint(uint64(len(b)))
		h.Write(b)
	}

	for _, tok := range toks {
		writeUint(uint64(tok.Kind))
		switch v := tok.Value.(type) {
		case token.IntValue:
			writeUint(uint64(v.V))
			writeBytes(v.Suffix)
		case token.FloatValue:
			writeUint(math.Float64bits(v.V))
			writeBytes(v.Suffix)
		case token.TextValue:
			writeBytes(v.Text)
		default:
			if tok.Kind == token.Char {
				writeUint(uint64(tok.Char))
			}
		}
	}
	return h.Sum64()
}

// ContentHash is the xxhash of a source buffer, used to spot duplicate inputs.
func ContentHash(src []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(src))
}
