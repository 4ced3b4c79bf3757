// Package token implements deferred values: placeholders embedded in entity
// properties during model construction and resolved exactly once at
// synthesis time.
//
// A token carries its producer construct, a shape tag, and a resolver. The
// package-level [Resolve] function resolves arbitrary values, recursing
// depth-first through nested lists and maps so leaves resolve before their
// containers. Results are cached per (token, [Context]) pair, which makes
// resolution idempotent even when a document embeds the same token many
// times. A token that directly or transitively depends on itself fails with
// a fatal [*CycleError].
package token

import (
	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/doc"
)

// Shape tags the value form a token resolves to.
type Shape int

const (
	// ShapeString marks tokens resolving to a scalar string expression.
	ShapeString Shape = iota
	// ShapeList marks tokens resolving to a list.
	ShapeList
	// ShapeMap marks tokens resolving to a mapping.
	ShapeMap
)

// Token is a deferred value. Implementations must be comparable (pointer
// types) so results can be cached per token instance.
type Token interface {
	// Producer returns the construct whose eventual output this token
	// stands for, or nil for free-standing computations.
	Producer() construct.Construct

	// Shape returns the token's declared value shape.
	Shape() Shape

	// Resolve computes the token's value. It is called at most once per
	// resolution context; callers go through Context, never call this
	// directly.
	Resolve(rctx *Context) (any, error)
}

// CrossStackResolver rewrites a reference whose producer lives in a
// different stack than the consumer into an import expression, registering
// the matching export on the producer as a side effect.
type CrossStackResolver interface {
	ResolveCrossStack(consumer *construct.Stack, target construct.Construct, attribute string) (doc.ImportValue, error)
}

// IsToken reports whether v is a deferred value.
func IsToken(v any) bool {
	_, ok := v.(Token)
	return ok
}

// isDeferredExpr reports whether a resolved value is still a document-level
// deferred expression rather than a plain literal.
func isDeferredExpr(v any) bool {
	switch v.(type) {
	case doc.Ref, doc.GetAtt, doc.Join, doc.Select, doc.Split, doc.ImportValue:
		return true
	}
	return false
}
