package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsicEncoding(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "ref",
			in:   Ref{LogicalID: "BucketA1B2C3D4"},
			want: `{"Ref":"BucketA1B2C3D4"}`,
		},
		{
			name: "get att",
			in:   GetAtt{LogicalID: "Bucket1234ABCD", Attribute: "Arn"},
			want: `{"Fn::GetAtt":["Bucket1234ABCD","Arn"]}`,
		},
		{
			name: "join preserves part order",
			in:   Join{Delimiter: "", Parts: []any{"a/", Ref{LogicalID: "X"}, "b"}},
			want: `{"Fn::Join":["",["a/",{"Ref":"X"},"b"]]}`,
		},
		{
			name: "join with no parts",
			in:   Join{Delimiter: ","},
			want: `{"Fn::Join":[",",[]]}`,
		},
		{
			name: "select over split",
			in:   Select{Index: 1, List: Split{Delimiter: ":", Value: GetAtt{LogicalID: "Q", Attribute: "Arn"}}},
			want: `{"Fn::Select":[1,{"Fn::Split":[":",{"Fn::GetAtt":["Q","Arn"]}]}]}`,
		},
		{
			name: "import value",
			in:   ImportValue{Name: "StackA:Bucket:Arn"},
			want: `{"Fn::ImportValue":"StackA:Bucket:Arn"}`,
		},
		{
			name: "html characters survive unescaped",
			in:   Join{Delimiter: "&", Parts: []any{"<a>", ">"}},
			want: `{"Fn::Join":["&",["<a>",">"]]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := encodeNoEscape(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestEncode_EmptyTemplateKeepsResourcesSection(t *testing.T) {
	got, err := EncodeCompact(NewTemplate())
	require.NoError(t, err)
	assert.Equal(t, `{"Resources":{}}`, string(got))
}

func TestEncode_SectionsAndSortedKeys(t *testing.T) {
	tpl := NewTemplate()
	tpl.Resources["Zeta"] = Entity{Type: "Queue"}
	tpl.Resources["Alpha"] = Entity{
		Type:       "Bucket",
		Properties: map[string]any{"Name": "b", "AccessControl": "private"},
		DependsOn:  []string{"Zeta"},
	}
	tpl.Parameters = map[string]Parameter{
		"Stage": {Type: "String", Default: "dev"},
	}
	tpl.Outputs = map[string]Output{
		"BucketArn": {
			Value:  GetAtt{LogicalID: "Alpha", Attribute: "Arn"},
			Export: &Export{Name: "StackA:Alpha:Arn"},
		},
	}

	got, err := EncodeCompact(tpl)
	require.NoError(t, err)
	want := `{"Parameters":{"Stage":{"Type":"String","Default":"dev"}},` +
		`"Resources":{` +
		`"Alpha":{"Type":"Bucket","Properties":{"AccessControl":"private","Name":"b"},"DependsOn":["Zeta"]},` +
		`"Zeta":{"Type":"Queue"}},` +
		`"Outputs":{"BucketArn":{"Value":{"Fn::GetAtt":["Alpha","Arn"]},"Export":{"Name":"StackA:Alpha:Arn"}}}}`
	assert.Equal(t, want, string(got))
}

func TestEncode_Deterministic(t *testing.T) {
	build := func() *Template {
		tpl := NewTemplate()
		tpl.Resources["B"] = Entity{Type: "Queue", Properties: map[string]any{"x": 1, "y": 2}}
		tpl.Resources["A"] = Entity{Type: "Bucket"}
		return tpl
	}

	first, err := Encode(build())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(build())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncodeYAML(t *testing.T) {
	tpl := NewTemplate()
	tpl.Resources["Bucket"] = Entity{
		Type:       "Bucket",
		Properties: map[string]any{"Name": Join{Delimiter: "-", Parts: []any{"pre", Ref{LogicalID: "Stage"}}}},
	}

	got, err := EncodeYAML(tpl)
	require.NoError(t, err)
	assert.Contains(t, string(got), "Fn::Join")
	assert.Contains(t, string(got), "Type: Bucket")
}

func TestDigest_TracksContent(t *testing.T) {
	a := NewTemplate()
	a.Resources["R"] = Entity{Type: "Bucket"}
	b := NewTemplate()
	b.Resources["R"] = Entity{Type: "Bucket"}

	d1, err := Digest(a)
	require.NoError(t, err)
	d2, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)

	b.Resources["R"] = Entity{Type: "Queue"}
	d3, err := Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}
