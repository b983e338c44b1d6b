package detection

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the backend for a detector variant is not present in
	// this build or runtime. Open skips such variants.
	ErrUnavailable = errors.New("detector backend unavailable")

	// ErrModelLoad is matched by every *ModelLoadError.
	ErrModelLoad = errors.New("model load failed")

	// ErrNoDetector is returned by Open when every variant was unavailable.
	ErrNoDetector = errors.New("no detector available")
)

// ModelLoadError reports a model resource that is missing, unreadable,
// structurally invalid or rejected by the backend.
type ModelLoadError struct {
	Method string
	Path   string
	Err    error
}

func (e *ModelLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: failed to load model %s", e.Method, e.Path)
	}
	return fmt.Sprintf("%s: failed to load model %s: %v", e.Method, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrModelLoad) true for any ModelLoadError.
func (e *ModelLoadError) Is(target error) bool { return target == ErrModelLoad }

func modelError(method, path string, err error) error {
	return &ModelLoadError{Method: method, Path: path, Err: err}
}

func unavailable(method, reason string) error {
	return fmt.Errorf("%s: %w: %s", method, ErrUnavailable, reason)
}
