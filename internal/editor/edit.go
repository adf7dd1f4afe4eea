package editor

import (
	"fmt"
	"strings"
)

// Kind of transformation an [Edit] performs.
type Op string

const (
	OpInsert       Op = "insert"        // Insert lines at the edge of the range.
	OpReplaceLine  Op = "replace-line"  // Replace every line equal to Target.
	OpReplaceRegex Op = "replace-regex" // Rewrite every line matching Target.
	OpReplaceToken Op = "replace-token" // Substitute the Target token.
)

// One logical edit.
//
// After and Before restrict the edit to the lines strictly between the two
// anchors. Either may be empty, in which case the range extends to the top
// or the bottom of the text.
type Edit struct {
	Op     Op       `yaml:"op" validate:"required,oneof=insert replace-line replace-regex replace-token"`
	Target string   `yaml:"target,omitempty"` // Line, regular expression or token to look for.
	Lines  []string `yaml:"lines,omitempty"`  // Inserted or replacement lines.
	After  string   `yaml:"after,omitempty"`  // Range starts below this line.
	Before string   `yaml:"before,omitempty"` // Range ends above this line.
}

// Returns an edit inserting lines directly below the anchor line.
func InsertAfter(anchor string, lines ...string) Edit {
	return Edit{Op: OpInsert, After: anchor, Lines: lines}
}

// Returns an edit inserting lines directly above the anchor line.
func InsertBefore(anchor string, lines ...string) Edit {
	return Edit{Op: OpInsert, Before: anchor, Lines: lines}
}

// Returns an edit replacing every line equal to line with the given lines.
func ReplaceLine(line string, replacement ...string) Edit {
	return Edit{Op: OpReplaceLine, Target: line, Lines: replacement}
}

// Returns an edit rewriting every line that matches pattern. The replacement
// may reference submatches with $1 style expansions.
func ReplaceRegex(pattern, replacement string) Edit {
	return Edit{Op: OpReplaceRegex, Target: pattern, Lines: []string{replacement}}
}

// Returns an edit substituting every occurrence of token with value.
func ReplaceToken(token, value string) Edit {
	return Edit{Op: OpReplaceToken, Target: token, Lines: []string{value}}
}

// Returns a copy of e restricted to the lines between after and before.
// Empty anchors leave the corresponding side of the range unchanged.
func (e Edit) Within(after, before string) Edit {
	if after != "" {
		e.After = after
	}
	if before != "" {
		e.Before = before
	}
	e.Lines = append([]string(nil), e.Lines...)
	return e
}

// Returns the canonical token sequence describing e.
//
// Two edits with the same tokens perform the same transformation. The
// sequence is what the fingerprinting cache hashes, so its layout must not
// change between releases.
func (e Edit) tokens() []string {
	var t []string
	if e.After != "" {
		t = append(t, "AFTER LINE "+e.After)
	}
	if e.Before != "" {
		t = append(t, "BEFORE LINE "+e.Before)
	}
	t = append(t, "BEGIN", strings.ToUpper(strings.ReplaceAll(string(e.Op), "-", "_")))
	if e.Target != "" {
		t = append(t, e.Target)
	}
	t = append(t, fmt.Sprintf("LINES %d", len(e.Lines)))
	t = append(t, e.Lines...)
	return append(t, "END")
}

// Returns a short description used in log records.
func (e Edit) String() string {
	switch {
	case e.Target != "":
		return fmt.Sprintf("%s %q", e.Op, e.Target)
	case e.After != "":
		return fmt.Sprintf("%s after %q", e.Op, e.After)
	case e.Before != "":
		return fmt.Sprintf("%s before %q", e.Op, e.Before)
	}
	return string(e.Op)
}
