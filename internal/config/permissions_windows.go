//go:build windows

package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Principals whose presence in the ACL makes a credentials file shared.
var sharedPrincipals = []string{"everyone", "authenticated users", "builtin\\users", "users"}

// insecurePermissions inspects the icacls listing of path.
func insecurePermissions(path string) (detail, fix string, insecure bool) {
	if _, err := os.Stat(path); err != nil {
		return "", "", false
	}
	output, err := exec.Command("icacls", path).Output()
	if err != nil {
		return "", "", false
	}
	acl := strings.ToLower(string(output))
	for _, principal := range sharedPrincipals {
		if strings.Contains(acl, principal) {
			return "may be readable by other users",
				fmt.Sprintf("Run in PowerShell: icacls \"%s\" /inheritance:r /grant:r \"%%USERNAME%%:F\"", path), true
		}
	}
	return "", "", false
}
