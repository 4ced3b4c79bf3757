package token

import (
	"fmt"
	"strings"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/doc"
)

// Concat concatenates string parts, any of which may be deferred. When
// every part resolves to a known literal the result is a plain string;
// otherwise concatenation is lowered into a deployment-time join expression
// with the parts kept in their original order.
type Concat struct {
	parts []any
}

// NewConcat creates a concatenation over parts in order.
func NewConcat(parts ...any) *Concat {
	return &Concat{parts: parts}
}

// Producer implements Token. A concatenation has no single producer.
func (c *Concat) Producer() construct.Construct {
	return nil
}

// Shape implements Token.
func (c *Concat) Shape() Shape {
	return ShapeString
}

// Resolve implements Token.
func (c *Concat) Resolve(rctx *Context) (any, error) {
	resolved := make([]any, 0, len(c.parts))
	deferred := false
	for i, part := range c.parts {
		r, err := Resolve(rctx, part)
		if err != nil {
			return nil, fmt.Errorf("part %d of %s: %w", i, c, err)
		}
		if isDeferredExpr(r) {
			deferred = true
		} else {
			s, err := stringifyScalar(r)
			if err != nil {
				return nil, fmt.Errorf("part %d of %s: %w", i, c, err)
			}
			r = s
		}
		resolved = append(resolved, r)
	}

	if !deferred {
		var sb strings.Builder
		for _, r := range resolved {
			sb.WriteString(r.(string))
		}
		return sb.String(), nil
	}
	return doc.Join{Delimiter: "", Parts: resolved}, nil
}

func (c *Concat) String() string {
	return fmt.Sprintf("concat(%d parts)", len(c.parts))
}

// SplitSelect picks one piece of a delimiter-separated composite string.
// With a known source the piece is extracted immediately; a deferred source
// lowers into a select-over-split expression evaluated at deployment time.
type SplitSelect struct {
	delimiter string
	index     int
	source    any
}

// NewSplitSelect creates a selection of the index-th piece (zero-based) of
// source split on delimiter.
func NewSplitSelect(delimiter string, index int, source any) *SplitSelect {
	return &SplitSelect{delimiter: delimiter, index: index, source: source}
}

// Producer implements Token.
func (s *SplitSelect) Producer() construct.Construct {
	if t, ok := s.source.(Token); ok {
		return t.Producer()
	}
	return nil
}

// Shape implements Token.
func (s *SplitSelect) Shape() Shape {
	return ShapeString
}

// Resolve implements Token.
func (s *SplitSelect) Resolve(rctx *Context) (any, error) {
	if s.index < 0 {
		return nil, fmt.Errorf("%s: index must not be negative", s)
	}
	src, err := Resolve(rctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("source of %s: %w", s, err)
	}

	if isDeferredExpr(src) {
		return doc.Select{
			Index: s.index,
			List:  doc.Split{Delimiter: s.delimiter, Value: src},
		}, nil
	}

	lit, err := stringifyScalar(src)
	if err != nil {
		return nil, fmt.Errorf("source of %s: %w", s, err)
	}
	pieces := strings.Split(lit, s.delimiter)
	if s.index >= len(pieces) {
		return nil, fmt.Errorf("%s: index out of range, value split into %d pieces", s, len(pieces))
	}
	return pieces[s.index], nil
}

func (s *SplitSelect) String() string {
	return fmt.Sprintf("select(%d, split(%q))", s.index, s.delimiter)
}

// stringifyScalar renders a resolved literal as the string it contributes
// to a composite value.
func stringifyScalar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool, int, int64, float64:
		return fmt.Sprint(x), nil
	default:
		return "", fmt.Errorf("value of type %T cannot join a string composite", v)
	}
}
