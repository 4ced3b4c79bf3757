package assemble

import (
	"fmt"

	"github.com/harwell/strata/internal/doc"
	"github.com/harwell/strata/internal/xref"
)

// BuildTemplate renders a resolved stack into its document, merging in the
// exports other stacks registered against it during phase one.
func BuildTemplate(rs *ResolvedStack, reg *xref.Registry) (*doc.Template, error) {
	tpl := doc.NewTemplate()

	for _, re := range rs.entities {
		if _, exists := tpl.Resources[re.logicalID]; exists {
			return nil, fmt.Errorf("internal: logical id %q emitted twice", re.logicalID)
		}
		tpl.Resources[re.logicalID] = re.entity
	}

	if len(rs.params) > 0 {
		tpl.Parameters = make(map[string]doc.Parameter, len(rs.params))
		for _, rp := range rs.params {
			tpl.Parameters[rp.logicalID] = rp.param
		}
	}

	exports := reg.ExportsOf(rs.Stack)
	if len(rs.outputs) > 0 || len(exports) > 0 {
		tpl.Outputs = make(map[string]doc.Output, len(rs.outputs)+len(exports))
		for _, ro := range rs.outputs {
			tpl.Outputs[ro.logicalID] = ro.output
		}
		for _, exp := range exports {
			if _, exists := tpl.Outputs[exp.OutputKey]; exists {
				return nil, fmt.Errorf("generated export output %q collides with an existing output", exp.OutputKey)
			}
			tpl.Outputs[exp.OutputKey] = doc.Output{
				Value:  exp.Value,
				Export: &doc.Export{Name: exp.Name},
			}
		}
	}

	return tpl, nil
}
