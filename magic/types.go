package magic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
)

// ErrUnsupportedType is returned when a type name is not in the header table.
var ErrUnsupportedType = errors.New("unsupported file type")

type FileType int

const (
	Unknown FileType = iota
	JPG
	PNG
	BMP
	PDF
	GIF
)

var fileTypeName = map[FileType]string{
	Unknown: "unknown",
	JPG:     "jpg",
	PNG:     "png",
	BMP:     "bmp",
	PDF:     "pdf",
	GIF:     "gif",
}

func (m FileType) String() string {
	return fileTypeName[m]
}

// MIME returns the MIME type content sniffers report for files of this type.
func (m FileType) MIME() string {
	if m == Unknown {
		return ""
	}
	return filetype.GetType(m.String()).MIME.Value
}

// SupportedTypes returns every type with a header, in table order.
func SupportedTypes() []FileType {
	t := make([]FileType, len(headerTable))
	for i, hd := range headerTable {
		t[i] = hd.filetype
	}
	return t
}

// SupportedNames returns the names accepted by ParseFileType, in table order.
func SupportedNames() []string {
	n := make([]string, len(headerTable))
	for i, hd := range headerTable {
		n[i] = hd.filetype.String()
	}
	return n
}

type unsupportedTypeError struct{}

func (e *unsupportedTypeError) Error() string {
	return fmt.Sprintf("Unsupported file type. Supported types are: %s", strings.Join(SupportedNames(), ", "))
}

func (e *unsupportedTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// ParseFileType maps a lowercase type name such as "jpg" to its FileType.
// Matching is case sensitive.
func ParseFileType(name string) (FileType, error) {
	for _, hd := range headerTable {
		if hd.filetype.String() == name {
			return hd.filetype, nil
		}
	}
	return Unknown, &unsupportedTypeError{}
}
