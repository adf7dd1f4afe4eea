package crac

import (
	"errors"
	"fmt"

	"github.com/cruciblehq/cruximg/internal/image"
)

var (
	ErrPipeline  = errors.New("checkpoint pipeline failed")
	ErrBuild     = errors.New("image build failed")
	ErrNoBuilder = errors.New("checkpoint runner requires an image builder")
)

// Returned when a pipeline phase fails. Phase one failures mean phase two
// never ran.
type PipelineError struct {
	Phase image.CheckpointPhase
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s phase: %v", ErrPipeline, e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() []error {
	return []error{ErrPipeline, e.Err}
}
