package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Subdirectory name under each XDG base directory.
	toolName = "cruximg"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Permission mode for staged executables (scripts, native binaries).
	ExecFileMode os.FileMode = 0755
)

// Root of the per-user cache.
//
//	Linux:   $XDG_CACHE_HOME/cruximg
//	macOS:   ~/Library/Caches/cruximg
func Cache() string {
	return filepath.Join(xdg.CacheHome, toolName)
}

// Directory where committed checkpoint images are exported when no output
// directory is given.
//
//	Linux:   $XDG_CACHE_HOME/cruximg/checkpoints/<name>
//	macOS:   ~/Library/Caches/cruximg/checkpoints/<name>
func Checkpoints(name string) string {
	return filepath.Join(Cache(), "checkpoints", name)
}

// Path to the optional user manifest defaults, merged under every manifest.
//
//	Linux:   $XDG_CONFIG_HOME/cruximg/defaults.yaml
//	macOS:   ~/Library/Application Support/cruximg/defaults.yaml
func Defaults() string {
	return filepath.Join(xdg.ConfigHome, toolName, "defaults.yaml")
}
