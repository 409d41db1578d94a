//go:build windows

package open

import (
	"os"

	winacl "github.com/hectane/go-acl"
)

// file mode given to os.OpenFile is not applied as ACL on windows.
func restrict(path string) error {
	return winacl.Chmod(path, os.FileMode(0600))
}
