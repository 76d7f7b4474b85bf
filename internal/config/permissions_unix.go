//go:build unix

package config

import (
	"fmt"
	"os"
)

// insecurePermissions reports whether path is readable by group or others,
// with the command that fixes it.
func insecurePermissions(path string) (detail, fix string, insecure bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", false
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return fmt.Sprintf("is readable by other users (mode %04o)", mode), "Run: chmod 600 " + path, true
	}
	return "", "", false
}
