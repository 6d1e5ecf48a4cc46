package magic

import (
	"bytes"
	"io"
)

// Enough for every matcher in github.com/h2non/filetype.
const requiredHeaderBytes int = 262

// A Sniffer passes writes through to an underlying writer, remembering the
// type of the first bytes written.
type Sniffer struct {
	w        io.Writer
	b        *bytes.Buffer
	reqBytes int
	done     bool
	filetype FileType
	mime     string
}

func NewSniffer(w io.Writer) *Sniffer {
	return &Sniffer{
		w:        w,
		b:        new(bytes.Buffer),
		reqBytes: requiredHeaderBytes,
	}
}

func (s *Sniffer) sniff() {
	b := s.b.Bytes()
	if len(b) > s.reqBytes {
		b = b[:s.reqBytes]
	}
	s.filetype = GetHeaderType(b)
	s.mime = Sniff(b)
	s.b.Reset()
	s.done = true
}

func (s *Sniffer) Write(p []byte) (int, error) {
	if s.done {
		return s.w.Write(p)
	}

	s.b.Write(p)
	if s.b.Len() >= s.reqBytes {
		s.sniff()
	}
	return s.w.Write(p)
}

// FileType returns the header type of what has been written so far. No
// further sniffing happens once it has been called.
func (s *Sniffer) FileType() FileType {
	if !s.done {
		s.sniff()
	}
	return s.filetype
}

// MIME returns the sniffed MIME type of what has been written so far.
func (s *Sniffer) MIME() string {
	if !s.done {
		s.sniff()
	}
	return s.mime
}
