package doc

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// goldenTemplate mirrors the bucket/policy scenario with fixed logical ids
// so the goldens stay independent of id allocation.
func goldenTemplate() *Template {
	t := NewTemplate()
	t.Parameters = map[string]Parameter{
		"Stage5A2E9B01": {Type: "String", Default: "dev"},
	}
	t.Resources["DataB6F01A23"] = Entity{
		Type: "Bucket",
		Properties: map[string]any{
			"Name": Join{Delimiter: "-", Parts: []any{"data", Ref{LogicalID: "Stage5A2E9B01"}}},
		},
	}
	t.Resources["ReadData99C4D7E2"] = Entity{
		Type: "Policy",
		Properties: map[string]any{
			"Resource": Join{Delimiter: "", Parts: []any{GetAtt{LogicalID: "DataB6F01A23", Attribute: "Arn"}, "/*"}},
		},
		DependsOn: []string{"DataB6F01A23"},
	}
	t.Outputs = map[string]Output{
		"ExportDataB6F01A23Arn": {
			Value:  GetAtt{LogicalID: "DataB6F01A23", Attribute: "Arn"},
			Export: &Export{Name: "StackA:DataB6F01A23:Arn"},
		},
	}
	return t
}

func TestEncode_Golden(t *testing.T) {
	out, err := Encode(goldenTemplate())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "template", out)
}

func TestEncodeYAML_Golden(t *testing.T) {
	tpl := NewTemplate()
	tpl.Description = "Data tier."
	tpl.Resources["DataB6F01A23"] = Entity{
		Type: "Bucket",
		Properties: map[string]any{
			"Name":          "data-store",
			"RetentionDays": int64(30),
			"Versioned":     true,
		},
	}
	tpl.Outputs = map[string]Output{
		"DataName0F3C11AB": {Value: "data-store", Description: "Primary bucket name."},
	}

	out, err := EncodeYAML(tpl)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "template_yaml", out)
}
