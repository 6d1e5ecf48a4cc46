package prepend

import "os"

func replaceable(fi os.FileInfo) bool {
	return true
}
