package manifest

import "errors"

var (
	ErrManifest = errors.New("invalid manifest")
	ErrRead     = errors.New("cannot read manifest")
)
