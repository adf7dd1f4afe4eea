package image

import (
	"fmt"
	"regexp"
	"strings"
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// Returns the build-context directory name for a resource configuration
// layer: "resource-config-<index>-<sanitized name>".
//
// Sanitizing lowercases the name and collapses runs of characters outside
// [a-z0-9._-] into a single "-". The index makes the result unique per
// layer, so layers sharing a logical name never share a directory. A name
// that is empty after sanitizing fails with [InvalidResourceNameError].
func ResourceConfigName(index int, logical string) (string, error) {
	s := invalidNameChars.ReplaceAllString(strings.ToLower(logical), "-")
	s = strings.Trim(s, "-")
	if s == "" || strings.Trim(s, ".") == "" {
		return "", &InvalidResourceNameError{Name: logical}
	}
	return fmt.Sprintf("resource-config-%d-%s", index, s), nil
}
