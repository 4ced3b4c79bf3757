package token

import (
	"fmt"

	"github.com/harwell/strata/internal/construct"
)

// Deferred is a free-form token over a caller-supplied resolver. The engine
// itself uses it sparingly; it exists for embedding applications that need
// computations the built-in tokens do not cover.
type Deferred struct {
	name     string
	producer construct.Construct
	shape    Shape
	fn       func(rctx *Context) (any, error)
}

// NewDeferred creates a token that resolves through fn. The name appears in
// diagnostics such as cycle reports. The producer may be nil.
func NewDeferred(name string, producer construct.Construct, shape Shape, fn func(rctx *Context) (any, error)) *Deferred {
	return &Deferred{name: name, producer: producer, shape: shape, fn: fn}
}

// Producer implements Token.
func (d *Deferred) Producer() construct.Construct {
	return d.producer
}

// Shape implements Token.
func (d *Deferred) Shape() Shape {
	return d.shape
}

// Resolve implements Token.
func (d *Deferred) Resolve(rctx *Context) (any, error) {
	if d.fn == nil {
		return nil, fmt.Errorf("deferred token %q has no resolver", d.name)
	}
	return d.fn(rctx)
}

func (d *Deferred) String() string {
	return fmt.Sprintf("deferred(%s)", d.name)
}
