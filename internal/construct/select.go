package construct

// SelectMode controls how Select treats the number of matches. The modes
// mirror the two query flavors embedding applications need: strict lookups
// that must resolve to one construct, and filters that may legitimately
// match many or none.
type SelectMode int

const (
	// SelectOne requires exactly one match. Zero matches fail with an
	// *EmptySelectionError, several with an *AmbiguousSelectionError.
	SelectOne SelectMode = iota

	// SelectRequired requires at least one match and returns all of them.
	SelectRequired

	// SelectAllowEmpty returns whatever matched, including nothing.
	SelectAllowEmpty
)

// Select returns the constructs in scope's subtree (scope excluded) matching
// pred, in depth-first declaration order. The query string only labels the
// selection in error messages.
func Select(scope Construct, query string, pred func(Construct) bool, mode SelectMode) ([]Construct, error) {
	var matches []Construct
	_ = Walk(scope, func(c Construct) error {
		if c == scope {
			return nil
		}
		if pred(c) {
			matches = append(matches, c)
		}
		return nil
	})

	switch mode {
	case SelectOne:
		if len(matches) == 0 {
			return nil, &EmptySelectionError{Query: query}
		}
		if len(matches) > 1 {
			paths := make([]string, len(matches))
			for i, m := range matches {
				paths[i] = m.Node().PathString()
			}
			return nil, &AmbiguousSelectionError{Query: query, Matches: paths}
		}
	case SelectRequired:
		if len(matches) == 0 {
			return nil, &EmptySelectionError{Query: query}
		}
	case SelectAllowEmpty:
	}
	return matches, nil
}
