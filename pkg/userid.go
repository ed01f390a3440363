package shared

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxUserIDLength matches the Firebase Auth uid limit.
const MaxUserIDLength = 128

// ErrInvalidUserID is returned for ids that cannot be used as a storage key.
var ErrInvalidUserID = errors.New("invalid user id")

// The id is joined verbatim into realtime database paths, Firestore document
// paths and GCS object names. Separators, dot segments, percent escapes and
// the characters the realtime database forbids in keys are rejected.
const userIDRules = "required,max=128,printascii,excludesall=/.#$[]%"

var userIDValidator = validator.New()

// ValidateUserID checks that id is a single safe path segment.
func ValidateUserID(id string) error {
	if err := userIDValidator.Var(id, userIDRules); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidUserID, id, err)
	}
	return nil
}
