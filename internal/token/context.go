package token

import (
	"fmt"
	"strings"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/logicalid"
)

// Context carries the state of one stack's resolution pass: the consumer
// stack, its identifier allocator, the cross-stack resolver shared by the
// whole app, the per-token result cache, and the in-flight stack used for
// cycle detection.
//
// A context belongs to a single synthesis goroutine. The caches it owns are
// written only by that goroutine; sharing across stacks happens in the
// cross-stack resolver, which has its own concurrency contract.
type Context struct {
	stack *construct.Stack
	alloc *logicalid.Allocator
	xres  CrossStackResolver

	cache    map[Token]any
	inflight []Token

	refs []construct.Construct
}

// NewContext creates a resolution context for stack. The cross-stack
// resolver may be nil, in which case resolving a reference that leaves the
// stack fails.
func NewContext(stack *construct.Stack, alloc *logicalid.Allocator, xres CrossStackResolver) *Context {
	return &Context{
		stack: stack,
		alloc: alloc,
		xres:  xres,
		cache: make(map[Token]any),
	}
}

// Stack returns the consumer stack this context resolves for.
func (c *Context) Stack() *construct.Stack {
	return c.stack
}

// AllocateID allocates the logical id for a construct relative to the
// consumer stack.
func (c *Context) AllocateID(target construct.Construct) (string, error) {
	rel, err := c.stack.RelativePathOf(target)
	if err != nil {
		return "", err
	}
	return c.alloc.Allocate(rel)
}

// recordReference notes an intra-stack reference target so the caller can
// derive implied dependency edges.
func (c *Context) recordReference(target construct.Construct) {
	c.refs = append(c.refs, target)
}

// TakeReferences returns the reference targets recorded since the last call
// and resets the record. Callers drain it after resolving each entity to
// attribute implied edges to the right consumer.
func (c *Context) TakeReferences() []construct.Construct {
	out := c.refs
	c.refs = nil
	return out
}

// Resolve resolves v recursively: tokens through their resolvers with
// caching and cycle detection, lists and maps element-wise with leaves
// resolved before containers, and all other values returned unchanged.
func Resolve(rctx *Context, v any) (any, error) {
	switch x := v.(type) {
	case Token:
		return rctx.resolveToken(x)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			r, err := Resolve(rctx, elem)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			r, err := Resolve(rctx, elem)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func (c *Context) resolveToken(t Token) (any, error) {
	if v, ok := c.cache[t]; ok {
		return v, nil
	}

	for i, inflight := range c.inflight {
		if inflight == t {
			return nil, newCycleError(append(c.inflight[i:], t))
		}
	}

	c.inflight = append(c.inflight, t)
	v, err := t.Resolve(c)
	if err == nil {
		// The resolver's result may itself contain tokens; resolve them
		// while t is still on the in-flight stack so self-dependence
		// through the result is caught.
		v, err = Resolve(c, v)
	}
	c.inflight = c.inflight[:len(c.inflight)-1]
	if err != nil {
		return nil, err
	}

	c.cache[t] = v
	return v, nil
}

// CycleError reports a token that depends on itself, directly or through
// other tokens. Chain holds a description of each token along the cycle,
// with the entry token repeated at the end.
type CycleError struct {
	Chain []string
}

func newCycleError(tokens []Token) *CycleError {
	chain := make([]string, len(tokens))
	for i, t := range tokens {
		chain[i] = tokenLabel(t)
	}
	return &CycleError{Chain: chain}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic token resolution: %s", strings.Join(e.Chain, " -> "))
}

func tokenLabel(t Token) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", t)
}
