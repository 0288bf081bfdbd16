package schema

import (
	"errors"
	"fmt"

	"scarletbooks/pkg/domain"
)

// ErrUnknownKind is returned when a caller supplies a kind outside the
// registered set. Always a client error.
var ErrUnknownKind = errors.New("unknown entity kind")

// UnknownKindError carries the offending kind.
type UnknownKindError struct {
	Kind domain.Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown entity kind %q", string(e.Kind))
}

func (e *UnknownKindError) Is(target error) bool {
	return target == ErrUnknownKind
}
