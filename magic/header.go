package magic

import (
	"bytes"

	"github.com/h2non/filetype"
)

type headerDef struct {
	header   []byte
	filetype FileType
}

func (hd *headerDef) Match(b []byte) bool {
	return bytes.HasPrefix(b, hd.header)
}

// Table order is the order types are listed to users.
var headerTable = []*headerDef{
	&headerDef{header: []byte("\xFF\xD8\xFF\xE0\x00\x10\x4A\x46\x49\x46\x00\x01"), filetype: JPG},
	&headerDef{header: []byte("\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"), filetype: PNG},
	&headerDef{header: []byte("\x42\x4D"), filetype: BMP},
	&headerDef{header: []byte("\x25\x50\x44\x46\x2D"), filetype: PDF},
	&headerDef{header: []byte("\x47\x49\x46\x38\x39\x61"), filetype: GIF},
}

// Header returns a copy of the magic bytes for the type, or nil for a type
// without a header.
func (m FileType) Header() []byte {
	for _, hd := range headerTable {
		if hd.filetype == m {
			h := make([]byte, len(hd.header))
			copy(h, hd.header)
			return h
		}
	}
	return nil
}

// GetHeaderType returns the type whose header b begins with.
func GetHeaderType(b []byte) FileType {
	for _, hd := range headerTable {
		if hd.Match(b) {
			return hd.filetype
		}
	}
	return Unknown
}

// Sniff returns the MIME type a generic content sniffer infers from b, or an
// empty string when nothing matches.
func Sniff(b []byte) string {
	kind, err := filetype.Match(b)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
