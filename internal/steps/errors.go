package steps

import (
	"errors"
	"fmt"
)

// ErrInvalidDisplayState matches every *InvalidDisplayStateError via errors.Is.
var ErrInvalidDisplayState = errors.New("invalid display state")

// InvalidDisplayStateError reports an element whose displayed text could not be
// interpreted as the expected kind of value.
type InvalidDisplayStateError struct {
	Locator  string
	Raw      string
	Expected string
	Err      error
}

func (e *InvalidDisplayStateError) Error() string {
	return fmt.Sprintf("%s displays %q, expected %s", e.Locator, e.Raw, e.Expected)
}

func (e *InvalidDisplayStateError) Is(target error) bool { return target == ErrInvalidDisplayState }
func (e *InvalidDisplayStateError) Unwrap() error        { return e.Err }
