package dummy

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	NetworkFailure = errors.New("Dummy network failure")
	NotFound       = errors.New("Dummy not found")
)

// ExitError stands in for *exec.ExitError
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e ExitError) ExitCode() int {
	return e.Code
}
