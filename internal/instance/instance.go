// Package instance resolves the on-disk layout of a named chatline deployment.
//
// Every instance lives under ~/.chatline/instances/<name> and owns its own
// database, media directory, control socket, lock file and logs.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/matheus3301/chatline/internal/config"
)

const DefaultName = "main"

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName rejects names that are unsafe as a directory component.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid instance name %q: must match ^[a-z0-9_-]{1,64}$", name)
	}
	return nil
}

// Resolve picks the instance name: flag, then config default, then "main".
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultInstance != "" {
		return cfg.DefaultInstance
	}
	return DefaultName
}

// BaseDir returns ~/.chatline, or $CHATLINE_HOME when set.
func BaseDir() string {
	if v := os.Getenv("CHATLINE_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatline")
}

func ConfigPath() string { return filepath.Join(BaseDir(), "config.toml") }

func Dir(name string) string { return filepath.Join(BaseDir(), "instances", name) }

func DBPath(name string) string { return filepath.Join(Dir(name), "chatline.db") }

func MediaDir(name string) string { return filepath.Join(Dir(name), "media") }

func LogDir(name string) string { return filepath.Join(Dir(name), "logs") }

func LogPath(name string) string { return filepath.Join(LogDir(name), "chatlined.log") }

// ControlSocketPath is the unix socket serving the gRPC control plane.
func ControlSocketPath(name string) string { return filepath.Join(Dir(name), "control.sock") }

// EnsureDir creates the instance directory tree.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name), MediaDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
