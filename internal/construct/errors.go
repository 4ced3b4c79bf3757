package construct

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTreeFrozen is returned when a construct is added to a tree that has
// already been frozen for synthesis.
var ErrTreeFrozen = errors.New("construct tree is frozen")

// DuplicateIDError reports two siblings registered under the same id.
type DuplicateIDError struct {
	// Scope is the path of the parent construct. Empty for the tree root.
	Scope string
	// ID is the colliding child id.
	ID string
}

func (e *DuplicateIDError) Error() string {
	scope := e.Scope
	if scope == "" {
		scope = "<root>"
	}
	return fmt.Sprintf("duplicate construct id %q in scope %q", e.ID, scope)
}

// NotFoundError reports a required ancestor capability that is absent.
type NotFoundError struct {
	// Path locates the construct the lookup started from.
	Path string
	// Want describes what was being looked for.
	Want string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found for %q", e.Want, e.Path)
}

// AmbiguousSelectionError reports a selection query that matched more
// constructs than its mode permits.
type AmbiguousSelectionError struct {
	Query   string
	Matches []string
}

func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("selection %q is ambiguous: matched %s", e.Query, strings.Join(e.Matches, ", "))
}

// EmptySelectionError reports a selection query that matched nothing when at
// least one match was required.
type EmptySelectionError struct {
	Query string
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("selection %q matched no constructs", e.Query)
}

// IsDuplicateID reports whether err is or wraps a *DuplicateIDError.
func IsDuplicateID(err error) bool {
	var target *DuplicateIDError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
