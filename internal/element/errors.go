package element

import (
	"errors"
	"fmt"
)

// ErrCycle is returned when a node would become its own descendant.
var ErrCycle = errors.New("element: cannot append a node beneath itself")

// InvalidTagError reports a tag name outside the allow-list.
type InvalidTagError struct {
	Tag string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("tag name %q is not valid, please specify a valid tag name", e.Tag)
}

// DuplicateIDError reports an id that would be shared by two nodes of the
// same tree.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("id value %q is used by more than one element", e.ID)
}
