package token

import (
	"fmt"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/doc"
)

// Reference is the standard token for "an attribute of another construct".
// Within the producer's own stack it resolves to a Ref or GetAtt
// expression; when the consumer lives in a different stack it is rewritten
// into an import of the producer's export.
type Reference struct {
	target    construct.Construct
	attribute string
}

// NewReference creates a reference to target. An empty attribute stands for
// the target's primary value (a Ref expression); any other attribute
// resolves to an attribute lookup.
func NewReference(target construct.Construct, attribute string) *Reference {
	return &Reference{target: target, attribute: attribute}
}

// Producer implements Token.
func (r *Reference) Producer() construct.Construct {
	return r.target
}

// Attribute returns the referenced attribute name, empty for the primary
// value.
func (r *Reference) Attribute() string {
	return r.attribute
}

// Shape implements Token.
func (r *Reference) Shape() Shape {
	return ShapeString
}

// Resolve implements Token.
func (r *Reference) Resolve(rctx *Context) (any, error) {
	producerStack, err := construct.StackOf(r.target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", r, err)
	}

	if producerStack == rctx.Stack() {
		id, err := rctx.AllocateID(r.target)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", r, err)
		}
		rctx.recordReference(r.target)
		if r.attribute == "" {
			return doc.Ref{LogicalID: id}, nil
		}
		return doc.GetAtt{LogicalID: id, Attribute: r.attribute}, nil
	}

	if rctx.xres == nil {
		return nil, fmt.Errorf("resolving %s: reference leaves stack %q but no cross-stack resolver is configured",
			r, rctx.Stack().Name())
	}
	return rctx.xres.ResolveCrossStack(rctx.Stack(), r.target, r.attribute)
}

func (r *Reference) String() string {
	if r.attribute == "" {
		return fmt.Sprintf("ref(%s)", r.target.Node().PathString())
	}
	return fmt.Sprintf("ref(%s.%s)", r.target.Node().PathString(), r.attribute)
}
