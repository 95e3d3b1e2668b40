package theme

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedConfig reports a structural or schema violation in a
	// declaration. The wrapped error joins every problem found.
	ErrMalformedConfig = errors.New("malformed config")

	// ErrUnknownToken reports a lookup of a token that is not declared.
	ErrUnknownToken = errors.New("unknown token")

	// ErrModeNotDefined reports a mode the token has no value for.
	ErrModeNotDefined = errors.New("mode not defined")
)

func malformed(errs []error) error {
	return fmt.Errorf("%w: %w", ErrMalformedConfig, errors.Join(errs...))
}
