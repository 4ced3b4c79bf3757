package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSelectTree(t *testing.T) (*App, *Stack, *Stack) {
	t.Helper()
	app := NewApp()
	prod, err := NewStack(app, "ProdStack")
	require.NoError(t, err)
	dev, err := NewStack(app, "DevStack")
	require.NoError(t, err)
	return app, prod, dev
}

func isStack(c Construct) bool {
	_, ok := c.(*Stack)
	return ok
}

func TestSelect_Modes(t *testing.T) {
	testCases := []struct {
		name      string
		pred      func(Construct) bool
		mode      SelectMode
		wantPaths []string
		wantErr   string
	}{
		{
			name:      "allow empty with no matches",
			pred:      func(Construct) bool { return false },
			mode:      SelectAllowEmpty,
			wantPaths: nil,
		},
		{
			name:    "required with no matches",
			pred:    func(Construct) bool { return false },
			mode:    SelectRequired,
			wantErr: "matched no constructs",
		},
		{
			name:      "required with several matches",
			pred:      isStack,
			mode:      SelectRequired,
			wantPaths: []string{"ProdStack", "DevStack"},
		},
		{
			name:    "one with several matches",
			pred:    isStack,
			mode:    SelectOne,
			wantErr: "ambiguous",
		},
		{
			name: "one with a single match",
			pred: func(c Construct) bool {
				s, ok := c.(*Stack)
				return ok && s.Name() == "ProdStack"
			},
			mode:      SelectOne,
			wantPaths: []string{"ProdStack"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app, _, _ := buildSelectTree(t)
			got, err := Select(app, "stacks", tc.pred, tc.mode)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)

			var paths []string
			for _, c := range got {
				paths = append(paths, c.Node().PathString())
			}
			assert.Equal(t, tc.wantPaths, paths)
		})
	}
}

func TestSelect_ErrorTypes(t *testing.T) {
	app, _, _ := buildSelectTree(t)

	_, err := Select(app, "nothing", func(Construct) bool { return false }, SelectOne)
	var empty *EmptySelectionError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "nothing", empty.Query)

	_, err = Select(app, "stacks", isStack, SelectOne)
	var amb *AmbiguousSelectionError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"ProdStack", "DevStack"}, amb.Matches)
}

func TestSelect_ExcludesScopeItself(t *testing.T) {
	_, prod, _ := buildSelectTree(t)

	got, err := Select(prod, "everything", func(Construct) bool { return true }, SelectAllowEmpty)
	require.NoError(t, err)
	assert.Empty(t, got)
}
