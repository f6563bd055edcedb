package atlas

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("unrecognized atlas metadata")
	// ErrEmptyAtlas matches every *EmptyAtlasError.
	ErrEmptyAtlas = errors.New("no frames found in atlas metadata")
)

// FormatError reports metadata text that matches none of the supported dialects,
// or a JSON/XML document of an unknown shape.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFormat) match any FormatError.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// EmptyAtlasError reports a structurally valid document that yields zero frames.
type EmptyAtlasError struct {
	Format Format
}

func (e *EmptyAtlasError) Error() string {
	return fmt.Sprintf("no frames found in %s atlas metadata", e.Format)
}

// Is lets errors.Is(err, ErrEmptyAtlas) match any EmptyAtlasError.
func (e *EmptyAtlasError) Is(target error) bool { return target == ErrEmptyAtlas }
