package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBone     = errors.New("bone not found")
	ErrTransientBone   = errors.New("bone is not animated")
	ErrInvalidMeshData = errors.New("invalid mesh data")
	ErrPassInProgress  = errors.New("combine pass already in progress")
	ErrInvalidRequest  = errors.New("invalid combine request")
	ErrNoVertices      = errors.New("mesh part has no vertices")
	ErrQueueFull       = errors.New("queue is full")
	ErrQueueEmpty      = errors.New("queue is empty")
)

// MissingBoneError reports a bone hash that could not be resolved, not even
// through the root fallback.
type MissingBoneError struct {
	Hash int32
}

func (e *MissingBoneError) Error() string {
	return fmt.Sprintf("bone not found: hash %d", e.Hash)
}

func (e *MissingBoneError) Is(target error) bool {
	return target == ErrMissingBone
}

// InvalidMeshDataError reports a blend shape whose frame count differs
// between parts. Only the named shape is degraded.
type InvalidMeshDataError struct {
	Shape    string
	Part     string
	Expected int
	Got      int
}

func (e *InvalidMeshDataError) Error() string {
	return fmt.Sprintf("blend shape %q on part %q has %d frames, expected %d", e.Shape, e.Part, e.Got, e.Expected)
}

func (e *InvalidMeshDataError) Is(target error) bool {
	return target == ErrInvalidMeshData
}
