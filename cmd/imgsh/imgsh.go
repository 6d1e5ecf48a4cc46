package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/negz/imgsh/magic"
	"github.com/negz/imgsh/prepend"
)

const version = "1.0"

const help = `Prepend a magic number header to a file, so that tools checking only its
leading bytes believe it is an image or document.

Example:

    imgsh webshell.php jpg
`

// Exit codes. The printed messages are the same regardless.
const (
	exitOK int = iota
	exitUnexpected
	exitUsage
	exitUnsupportedType
	exitFileNotFound
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, prepend.ErrUnsupportedType):
		return exitUnsupportedType
	case errors.Is(err, prepend.ErrFileNotFound):
		return exitFileNotFound
	default:
		return exitUnexpected
	}
}

// run treats any two arguments as a path and a type, even if they look like
// flags. A lone --help or --version is handled by kingpin; anything else
// prints usage.
func run(args []string, stdout, stderr io.Writer) int {
	terminated := -1
	app := kingpin.New("imgsh", help)
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	app.Terminate(func(code int) {
		if terminated < 0 {
			terminated = code
		}
	})
	app.Version(version)
	app.Arg("file_path", "Path to the file you want to prepend the header to.").Required().String()
	app.Arg("file_type", fmt.Sprintf("Type of the file (%v).", strings.Join(magic.SupportedNames(), ", "))).Required().String()

	switch {
	case len(args) == 1 && (args[0] == "--help" || args[0] == "--version"):
		app.Parse(args)
		if terminated >= 0 {
			return terminated
		}
		app.Usage(nil)
		return exitUsage
	case len(args) != 2:
		app.Usage(nil)
		return exitUsage
	}

	path, fileType := args[0], args[1]
	r, err := prepend.Prepend(path, fileType, prepend.Logger(log.New(stderr, "imgsh: ", 0)))
	if err != nil {
		fmt.Fprintln(stdout, prepend.Report(err))
		return exitCode(err)
	}
	fmt.Fprintln(stdout, r.Message())
	return exitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
