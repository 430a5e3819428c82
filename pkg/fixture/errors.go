package fixture

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is wrapped by every Options validation failure.
var ErrInvalidOptions = errors.New("invalid fixture options")

// FileError reports an I/O failure on a single fixture file. It unwraps to
// the underlying *fs.PathError (or write error).
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("fixture %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
