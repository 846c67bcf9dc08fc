package knowledge

import (
	"errors"
	"fmt"
)

// ErrBundleLoad is matched by every bundle load failure.
var ErrBundleLoad = errors.New("knowledge bundle load failed")

// LoadError reports why the bundle at Path could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load knowledge bundle %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBundleLoad) hold for any *LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrBundleLoad }
