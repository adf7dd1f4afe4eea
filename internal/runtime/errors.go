package runtime

import (
	"errors"
	"fmt"
)

var (
	ErrRuntime          = errors.New("runtime error")
	ErrEmptyIndex       = errors.New("empty image index")
	ErrEmptyArchive     = errors.New("archive contains no images")
	ErrMultipleImages   = errors.New("archive contains more than one image")
	ErrCheckpointFailed = errors.New("checkpoint failed")
)

// Returned when the checkpoint command exits with a non-zero status.
type CheckpointFailedError struct {
	ExitCode int
}

func (e *CheckpointFailedError) Error() string {
	return fmt.Sprintf("%s: exit code %d", ErrCheckpointFailed, e.ExitCode)
}

func (e *CheckpointFailedError) Unwrap() error {
	return ErrCheckpointFailed
}
