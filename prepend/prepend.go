// Package prepend implements writing magic headers to the front of files.
package prepend

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/bytefmt"

	"github.com/negz/imgsh/magic"
)

// ErrUnsupportedType is returned when asked to prepend a header for a type
// imgsh does not know.
var ErrUnsupportedType = magic.ErrUnsupportedType

// ErrFileNotFound is returned when the file to prepend to does not exist.
var ErrFileNotFound = errors.New("file not found")

// errCannotReplace means the file could not be replaced by renaming, but may
// still be rewritten in place.
var errCannotReplace = errors.New("cannot replace file")

// Mode bits carried over when a file is replaced.
const keepMode = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// An UnexpectedError wraps any other failure reading or writing the file.
type UnexpectedError struct {
	Op   string
	Path string
	Err  error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%v %v: %v", e.Op, e.Path, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// Report renders err as the single line imgsh prints for it.
func Report(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "Error: The specified file was not found."
	case errors.Is(err, ErrUnsupportedType):
		return fmt.Sprintf("Error: %v", err)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}

// A Result describes a successful prepend.
type Result struct {
	Path          string
	FileType      magic.FileType
	HeaderBytes   int
	OriginalBytes int
	// MIME is what a generic content sniffer now thinks the file is.
	MIME string
}

func (r *Result) Message() string {
	return fmt.Sprintf("Header for %v prepended successfully.", strings.ToUpper(r.FileType.String()))
}

type Prepender struct {
	inPlace bool
	log     *log.Logger

	openFile func(name string, flag int, perm os.FileMode) (*os.File, error)
	tempFile func(dir, pattern string) (*os.File, error)
	rename   func(oldpath, newpath string) error
}

type Option func(*Prepender)

// InPlace truncates and rewrites the original file rather than writing a
// temporary file and renaming it over the original. A failed write may leave
// the file empty or partially written.
func InPlace() Option {
	return func(p *Prepender) {
		p.inPlace = true
	}
}

// Logger sets where diagnostic messages are written. They are discarded by
// default.
func Logger(l *log.Logger) Option {
	return func(p *Prepender) {
		p.log = l
	}
}

func New(o ...Option) *Prepender {
	p := &Prepender{
		log:      log.New(ioutil.Discard, "", 0),
		openFile: os.OpenFile,
		tempFile: ioutil.TempFile,
		rename:   os.Rename,
	}
	for _, opt := range o {
		opt(p)
	}
	return p
}

// Prepend writes the header for fileType to the front of the file at path
// using a Prepender configured with the supplied options.
func Prepend(path, fileType string, o ...Option) (*Result, error) {
	return New(o...).Prepend(path, fileType)
}

// Prepend writes the header for fileType to the front of the file at path.
// The file is untouched if fileType is unsupported. Prepending twice writes
// the header twice.
//
// Unless InPlace is set the new content is written to a temporary file that
// is renamed over the original. Symlinks and files that cannot be replaced
// that way (hard linked, owned by someone else, or in a directory we cannot
// write to) are rewritten in place instead.
func (p *Prepender) Prepend(path, fileType string) (*Result, error) {
	ft, err := magic.ParseFileType(fileType)
	if err != nil {
		return nil, err
	}

	original, fi, err := p.readFile(path)
	if err != nil {
		return nil, err
	}

	header := ft.Header()
	content := make([]byte, 0, len(header)+len(original))
	content = append(content, header...)
	content = append(content, original...)

	s, err := p.write(path, fi, content)
	if err != nil {
		return nil, err
	}

	if got := s.FileType(); got != ft {
		p.log.Printf("%v starts with a %v header, want %v", path, got, ft)
	}
	if got := s.MIME(); got != ft.MIME() {
		p.log.Printf("%v sniffs as %q, want %q", path, got, ft.MIME())
	}

	return &Result{
		Path:          path,
		FileType:      ft,
		HeaderBytes:   len(header),
		OriginalBytes: len(original),
		MIME:          s.MIME(),
	}, nil
}

func unexpected(op, path string, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("cannot %v %v: %w", op, path, ErrFileNotFound)
	}
	var pe *os.PathError
	var le *os.LinkError
	switch {
	case errors.As(err, &pe):
		err = pe.Err
	case errors.As(err, &le):
		err = le.Err
	}
	return &UnexpectedError{Op: op, Path: path, Err: err}
}

func (p *Prepender) readFile(path string) ([]byte, os.FileInfo, error) {
	f, err := p.openFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, unexpected("open", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, unexpected("stat", path, err)
	}
	if fi.IsDir() {
		return nil, nil, &UnexpectedError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, nil, unexpected("read", path, err)
	}
	return b, fi, nil
}

func (p *Prepender) write(path string, fi os.FileInfo, content []byte) (*magic.Sniffer, error) {
	if p.inPlace {
		return p.writeInPlace(path, content)
	}
	if lfi, err := os.Lstat(path); err == nil && lfi.Mode()&os.ModeSymlink != 0 {
		p.log.Printf("%v is a symlink, rewriting %v in place", path, bytefmt.ByteSize(uint64(len(content))))
		return p.writeInPlace(path, content)
	}
	if !replaceable(fi) {
		p.log.Printf("%v has other links or another owner, rewriting %v in place", path, bytefmt.ByteSize(uint64(len(content))))
		return p.writeInPlace(path, content)
	}

	s, err := p.writeAtomic(path, fi.Mode()&keepMode, content)
	if errors.Is(err, errCannotReplace) {
		p.log.Printf("%v, rewriting %v in place", err, bytefmt.ByteSize(uint64(len(content))))
		return p.writeInPlace(path, content)
	}
	return s, err
}

func writeContent(w io.Writer, content []byte) (*magic.Sniffer, error) {
	s := magic.NewSniffer(w)
	if _, err := s.Write(content); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Prepender) writeInPlace(path string, content []byte) (*magic.Sniffer, error) {
	f, err := p.openFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return nil, unexpected("open", path, err)
	}
	defer f.Close()

	s, err := writeContent(f, content)
	if err != nil {
		return nil, unexpected("write", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, unexpected("close", path, err)
	}
	return s, nil
}

func (p *Prepender) writeAtomic(path string, mode os.FileMode, content []byte) (*magic.Sniffer, error) {
	// Renaming over a read-only file would succeed, so check we could have
	// written it in place.
	f, err := p.openFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, unexpected("open", path, err)
	}
	f.Close()

	tmp, err := p.tempFile(filepath.Dir(path), "."+filepath.Base(path)+".imgsh-*")
	if os.IsPermission(err) {
		return nil, fmt.Errorf("%w %v: cannot create a file in %v", errCannotReplace, path, filepath.Dir(path))
	}
	if err != nil {
		return nil, unexpected("write", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	s, err := writeContent(tmp, content)
	if err != nil {
		return nil, unexpected("write", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return nil, unexpected("chmod", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, unexpected("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, unexpected("close", path, err)
	}
	if err := p.rename(tmp.Name(), path); err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w %v: %v", errCannotReplace, path, errors.Unwrap(err))
		}
		return nil, unexpected("rename", path, err)
	}
	committed = true
	return s, nil
}
