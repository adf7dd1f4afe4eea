package stage

import "errors"

var (
	ErrFileSystemOperation = errors.New("file system operation failed")
	ErrArchive             = errors.New("archive failed")
)
