package editor

import (
	"errors"
	"fmt"
)

var (
	ErrEdit        = errors.New("edit failed")
	ErrInvalidEdit = errors.New("invalid edit")
)

// Returned when an anchor, line, token or pattern an edit needs is absent
// from the text. Always fatal: skipping the edit would yield an incomplete
// Dockerfile.
type EditTargetNotFoundError struct {
	Target string // Anchor line, line, token or pattern that was not found.
}

func (e *EditTargetNotFoundError) Error() string {
	return fmt.Sprintf("%s: target %q not found", ErrEdit, e.Target)
}

func (e *EditTargetNotFoundError) Unwrap() error {
	return ErrEdit
}
