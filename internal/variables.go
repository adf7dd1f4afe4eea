package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Name of the tool, used as the log group and XDG subdirectory.
	Name = "cruximg"

	// Placeholder for variables that were not injected at link time.
	defaultUndefined = "(undefined)"

	// Version string reported by binaries built outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Branch whose builds omit the stage suffix from the version string.
	mainBranch = "main"
)

var (
	version   = "" // Release version (e.g., "0.4.0")
	stage     = "" // Branch or stage the binary was cut from (e.g., "main")
	gitCommit = "" // Commit hash (e.g., "9f1c2ab")

	rawQuiet   = "false" // Quiet mode default
	rawDebug   = "false" // Debug mode default
	rawVerbose = "false" // Verbose mode default
)

// Returns the release version without a leading "v".
//
// Returns "(undefined)" when the version was not injected.
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return defaultUndefined
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the stage the binary was built from, lowercased.
func Stage() string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return defaultUndefined
	}
	return strings.ToLower(s)
}

// Returns the commit hash the binary was built from.
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns the build architecture.
func Arch() string {
	return runtime.GOARCH
}

// Whether the binary was built without the release linker flags.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(stage) == ""
}

// Returns "<version>[+<stage>] <commit> [<arch>]", or "(local)" for local
// builds. The stage suffix is omitted for the main branch.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	s := Stage()
	if s == mainBranch {
		s = ""
	} else {
		s = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), s, GitCommit(), Arch())
}

// Returns the header line written at the top of generated Dockerfiles.
//
// Only the version participates, never the commit or the architecture, so
// that the same release produces byte-identical files on every host.
func GeneratedBy() string {
	if IsLocal() {
		return fmt.Sprintf("# Generated by %s", Name)
	}
	return fmt.Sprintf("# Generated by %s %s", Name, Version())
}
