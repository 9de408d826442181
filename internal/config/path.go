// Package config resolves holdscan settings from viper keys, HOLDSCAN_ environment
// variables and their built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a user-supplied location such as a rules file, a dump directory or
// the snapshot database. A leading "~" becomes the home directory and $VAR references are
// substituted. If the home directory is unknown the tilde is left in place.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return ""
	case path == "~" || strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
