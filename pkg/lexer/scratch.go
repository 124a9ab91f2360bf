package lexer

// Scratch is a fixed-capacity output buffer for decoded token payloads.
// It never grows; a write that does not fit reports false and leaves the
// buffer unchanged.
type Scratch struct {
	buf []byte
	n   int
}

// NewScratch allocates a scratch buffer holding up to capacity bytes.
func NewScratch(capacity int) *Scratch {
	if capacity < 0 {
		capacity = 0
	}
	return &Scratch{buf: make([]byte, capacity)}
}

// ScratchFrom wraps caller-owned storage. The full length of buf is the capacity.
func ScratchFrom(buf []byte) *Scratch { return &Scratch{buf: buf[:len(buf):len(buf)]} }

func (s *Scratch) Cap() int  { return len(s.buf) }
func (s *Scratch) Len() int  { return s.n }
func (s *Scratch) Reset()    { s.n = 0 }
func (s *Scratch) Free() int { return len(s.buf) - s.n }

func (s *Scratch) AppendByte(b byte) bool {
	if s.n >= len(s.buf) {
		return false
	}
	s.buf[s.n] = b
	s.n++
	return true
}

func (s *Scratch) Append(p []byte) bool {
	if len(p) > s.Free() {
		return false
	}
	s.n += copy(s.buf[s.n:], p)
	return true
}

// Bytes returns the written bytes, or nil when nothing was written. The
// slice aliases the buffer and is overwritten after the next Reset.
func (s *Scratch) Bytes() []byte {
	if s.n == 0 {
		return nil
	}
	return s.buf[:s.n:s.n]
}
