package domain

import (
	"fmt"
	"regexp"
)

var flowNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateFlowName checks that name can be used as a storage key and file name.
func ValidateFlowName(name string) error {
	if len(name) > 128 || !flowNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFlowName, name)
	}
	return nil
}
