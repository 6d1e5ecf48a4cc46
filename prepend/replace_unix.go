//go:build !windows
// +build !windows

package prepend

import (
	"os"
	"syscall"
)

// replaceable reports whether renaming a new file over fi keeps its links and
// ownership.
func replaceable(fi os.FileInfo) bool {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}
	return st.Nlink <= 1 && int(st.Uid) == os.Geteuid() && int(st.Gid) == os.Getegid()
}
