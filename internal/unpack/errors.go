package unpack

import (
	"errors"
	"fmt"
)

// ContainerParseError means the upload itself is unreadable. The user has to
// retry with another file.
type ContainerParseError struct {
	Kind  Kind
	Cause error
}

func (e *ContainerParseError) Error() string {
	return fmt.Sprintf("parse %s file: %v", e.Kind, e.Cause)
}

func (e *ContainerParseError) Unwrap() error { return e.Cause }

func parseError(kind Kind, cause error) error {
	return &ContainerParseError{Kind: kind, Cause: cause}
}

var (
	errEmpty     = errors.New("file is empty")
	errBinary    = errors.New("content is binary, not text")
	errNotUTF8   = errors.New("content is not valid UTF-8")
	errNoMesh    = errors.New("model has no mesh triangles")
	errTruncated = errors.New("stl is truncated")
)
