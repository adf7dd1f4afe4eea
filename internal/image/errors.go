package image

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrInput             = errors.New("input error")
	ErrInvalidReference  = errors.New("invalid image reference")
	ErrInvalidPlatform   = errors.New("invalid platform")
	ErrMissingMainClass  = errors.New("main class required to derive the launch command")
	ErrMisplacedSnapshot = errors.New("checkpoint-state layers require the checkpoint-restore strategy")
	ErrUnknownKind       = errors.New("unknown kind")
)

// Returned when a runtime kind does not support the selected strategy.
type IncompatibleStrategyError struct {
	Runtime  RuntimeKind
	Strategy StrategyKind
}

func (e *IncompatibleStrategyError) Error() string {
	return fmt.Sprintf("%s: runtime %q does not support strategy %q", ErrConfiguration, e.Runtime, e.Strategy)
}

func (e *IncompatibleStrategyError) Unwrap() error {
	return ErrConfiguration
}

// Returned when a strategy lacks a required configuration field.
type MissingStrategyConfigError struct {
	Strategy StrategyKind
	Field    string
}

func (e *MissingStrategyConfigError) Error() string {
	return fmt.Sprintf("%s: strategy %q requires %s", ErrConfiguration, e.Strategy, e.Field)
}

func (e *MissingStrategyConfigError) Unwrap() error {
	return ErrConfiguration
}

// Returned when two layers target the same destination.
type DuplicateLayerError struct {
	Destination string
}

func (e *DuplicateLayerError) Error() string {
	return fmt.Sprintf("%s: duplicate layer destination %q", ErrInput, e.Destination)
}

func (e *DuplicateLayerError) Unwrap() error {
	return ErrInput
}

// Returned when two layers of the same kind target nested destinations.
// Both would be staged in the same bucket, one inside the other.
type OverlappingLayerError struct {
	Destination string // Destination of the later layer.
	Other       string // Destination it overlaps with.
}

func (e *OverlappingLayerError) Error() string {
	return fmt.Sprintf("%s: layer destination %q overlaps %q", ErrInput, e.Destination, e.Other)
}

func (e *OverlappingLayerError) Unwrap() error {
	return ErrInput
}

// Returned when a layer source does not exist.
type LayerSourceMissingError struct {
	Layer string // Logical name of the layer.
	Path  string // Source path that could not be read.
	Err   error  // Underlying file system error.
}

func (e *LayerSourceMissingError) Error() string {
	return fmt.Sprintf("%s: layer %q: source %q: %v", ErrInput, e.Layer, e.Path, e.Err)
}

func (e *LayerSourceMissingError) Unwrap() []error {
	return []error{ErrInput, e.Err}
}

// Returned when a resource configuration name sanitizes to nothing.
type InvalidResourceNameError struct {
	Name string
}

func (e *InvalidResourceNameError) Error() string {
	return fmt.Sprintf("%s: invalid resource configuration name %q", ErrInput, e.Name)
}

func (e *InvalidResourceNameError) Unwrap() error {
	return ErrInput
}
