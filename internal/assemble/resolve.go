package assemble

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/ctxlog"
	"github.com/harwell/strata/internal/depgraph"
	"github.com/harwell/strata/internal/doc"
	"github.com/harwell/strata/internal/logicalid"
	"github.com/harwell/strata/internal/token"
	"github.com/harwell/strata/internal/xref"
)

// ResolvedStack is the phase-one product for a single stack: every deferred
// value resolved, logical ids allocated, and the entity graph ordered.
type ResolvedStack struct {
	Stack *construct.Stack

	entities []*resolvedEntity
	params   []resolvedParam
	outputs  []resolvedOutput
}

type resolvedEntity struct {
	key       string
	logicalID string
	entity    doc.Entity
}

type resolvedParam struct {
	logicalID string
	param     doc.Parameter
}

type resolvedOutput struct {
	logicalID string
	output    doc.Output
}

// ResolveStack runs phase one for stack: collects its members (stopping at
// nested stack boundaries), resolves all deferred values, derives implied
// dependency edges from the references seen during resolution, and orders
// the entity graph. Cross-stack references register their exports in reg.
func ResolveStack(ctx context.Context, stack *construct.Stack, reg *xref.Registry) (*ResolvedStack, error) {
	logger := ctxlog.FromContext(ctx).With("stack", stack.Name())
	logger.Debug("Resolving stack.")

	members := collectMembers(stack)
	rctx := token.NewContext(stack, logicalid.NewAllocator(), reg)

	graph := depgraph.New()
	byKey := make(map[string]construct.Emitter, len(members.emitters))
	keys := make(map[construct.Emitter]string, len(members.emitters))
	for _, em := range members.emitters {
		key, err := memberKey(stack, em)
		if err != nil {
			return nil, err
		}
		graph.AddNode(key, em.Node().Seq())
		byKey[key] = em
		keys[em] = key
	}

	if err := addExplicitEdges(stack, members.emitters, keys, graph, reg); err != nil {
		return nil, err
	}

	rs := &ResolvedStack{Stack: stack}

	// Resolution doubles as reference discovery: the references each
	// entity's properties resolve through become its implied edges.
	for _, em := range members.emitters {
		key := keys[em]
		id, err := rctx.AllocateID(em)
		if err != nil {
			return nil, err
		}
		props, err := token.Resolve(rctx, em.Properties())
		if err != nil {
			return nil, fmt.Errorf("resolving properties of %q: %w", em.Node().PathString(), err)
		}
		for _, target := range rctx.TakeReferences() {
			targetKey, err := memberKey(stack, target)
			if err != nil {
				return nil, err
			}
			if !graph.Has(targetKey) {
				// References to parameters and other non-entity members
				// need no ordering edge.
				continue
			}
			if targetKey == key {
				return nil, fmt.Errorf("entity %q references itself", em.Node().PathString())
			}
			if err := graph.AddDependency(key, targetKey); err != nil {
				return nil, err
			}
		}
		rs.entities = append(rs.entities, &resolvedEntity{
			key:       key,
			logicalID: id,
			entity: doc.Entity{
				Type:       em.EntityType(),
				Properties: props.(map[string]any),
			},
		})
	}

	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	if err := rs.applyGraphOrder(order, graph, rctx, byKey); err != nil {
		return nil, err
	}

	if err := rs.resolveParameters(rctx, members.params); err != nil {
		return nil, err
	}
	if err := rs.resolveOutputs(rctx, members.outputs); err != nil {
		return nil, err
	}

	logger.Debug("Stack resolved.", "entities", len(rs.entities), "outputs", len(rs.outputs))
	return rs, nil
}

// stackMembers are the document-contributing constructs of one stack, each
// slice in declaration order.
type stackMembers struct {
	emitters []construct.Emitter
	params   []*construct.Parameter
	outputs  []*construct.Output
}

// collectMembers gathers the stack's own members. Children of nested stacks
// belong to those stacks and are skipped.
func collectMembers(stack *construct.Stack) *stackMembers {
	m := &stackMembers{}
	var walk func(c construct.Construct)
	walk = func(c construct.Construct) {
		for _, child := range c.Node().Children() {
			if _, isStack := child.(*construct.Stack); isStack {
				continue
			}
			switch x := child.(type) {
			case *construct.Parameter:
				m.params = append(m.params, x)
			case *construct.Output:
				m.outputs = append(m.outputs, x)
			default:
				if em, ok := child.(construct.Emitter); ok {
					m.emitters = append(m.emitters, em)
				}
			}
			walk(child)
		}
	}
	walk(stack)
	return m
}

// memberKey is the stack-relative path string used as a graph key.
func memberKey(stack *construct.Stack, c construct.Construct) (string, error) {
	rel, err := stack.RelativePathOf(c)
	if err != nil {
		return "", err
	}
	return strings.Join(rel, construct.PathSeparator), nil
}

// addExplicitEdges translates declared dependencies into graph edges.
// A same-stack target stands for every entity in its subtree; a target in
// another stack becomes a stack-level deployment dependency.
func addExplicitEdges(stack *construct.Stack, emitters []construct.Emitter, keys map[construct.Emitter]string, graph *depgraph.Graph, reg *xref.Registry) error {
	for _, em := range emitters {
		producer, ok := em.(construct.DependencyProducer)
		if !ok {
			continue
		}
		for _, target := range producer.Dependencies() {
			targetStack, err := construct.StackOf(target)
			if err != nil {
				return fmt.Errorf("dependency of %q: %w", em.Node().PathString(), err)
			}
			if targetStack != stack {
				if stack.Node().Root() != target.Node().Root() {
					return &xref.UnresolvableReferenceError{
						Consumer: stack.Node().PathString(),
						Producer: target.Node().PathString(),
					}
				}
				reg.RecordStackDependency(stack, targetStack)
				continue
			}
			for _, targetEm := range emittersUnder(target) {
				targetKey := keys[targetEm]
				if targetKey == "" || targetKey == keys[em] {
					continue
				}
				if err := graph.AddDependency(keys[em], targetKey); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// emittersUnder returns target itself (when it emits) plus every emitter in
// its subtree, stopping at nested stack boundaries.
func emittersUnder(target construct.Construct) []construct.Emitter {
	var out []construct.Emitter
	if em, ok := target.(construct.Emitter); ok {
		out = append(out, em)
	}
	for _, child := range target.Node().Children() {
		if _, isStack := child.(*construct.Stack); isStack {
			continue
		}
		out = append(out, emittersUnder(child)...)
	}
	return out
}

// applyGraphOrder reorders entities into emission order and attaches each
// entity's boundary-local dependency edges as its ordering annotation.
func (rs *ResolvedStack) applyGraphOrder(order []string, graph *depgraph.Graph, rctx *token.Context, byKey map[string]construct.Emitter) error {
	byEntityKey := make(map[string]*resolvedEntity, len(rs.entities))
	for _, re := range rs.entities {
		byEntityKey[re.key] = re
	}

	ordered := make([]*resolvedEntity, 0, len(rs.entities))
	for _, key := range order {
		re := byEntityKey[key]
		if re == nil {
			return fmt.Errorf("internal: ordered key %q has no resolved entity", key)
		}

		depKeys := graph.DependenciesOf(key)
		if len(depKeys) > 0 {
			ids := make([]string, 0, len(depKeys))
			for _, depKey := range depKeys {
				id, err := rctx.AllocateID(byKey[depKey])
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			sort.Strings(ids)
			re.entity.DependsOn = ids
		}
		ordered = append(ordered, re)
	}
	rs.entities = ordered
	return nil
}

func (rs *ResolvedStack) resolveParameters(rctx *token.Context, params []*construct.Parameter) error {
	for _, p := range params {
		id, err := rctx.AllocateID(p)
		if err != nil {
			return err
		}
		def, err := token.Resolve(rctx, p.Default())
		if err != nil {
			return fmt.Errorf("resolving default of parameter %q: %w", p.Node().PathString(), err)
		}
		rctx.TakeReferences()
		if isDeferred(def) {
			return fmt.Errorf("parameter %q: default must be a literal", p.Node().PathString())
		}
		rs.params = append(rs.params, resolvedParam{
			logicalID: id,
			param: doc.Parameter{
				Type:        p.Type(),
				Default:     def,
				Description: p.Description(),
			},
		})
	}
	return nil
}

func (rs *ResolvedStack) resolveOutputs(rctx *token.Context, outputs []*construct.Output) error {
	for _, o := range outputs {
		id, err := rctx.AllocateID(o)
		if err != nil {
			return err
		}
		value, err := token.Resolve(rctx, o.Value())
		if err != nil {
			return fmt.Errorf("resolving output %q: %w", o.Node().PathString(), err)
		}
		rctx.TakeReferences()

		out := doc.Output{Value: value, Description: o.Description()}
		if name := o.ExportName(); name != "" {
			out.Export = &doc.Export{Name: name}
		}
		rs.outputs = append(rs.outputs, resolvedOutput{logicalID: id, output: out})
	}
	return nil
}

// isDeferred reports whether a resolved value still contains a
// deployment-time expression.
func isDeferred(v any) bool {
	switch x := v.(type) {
	case doc.Ref, doc.GetAtt, doc.Join, doc.Select, doc.Split, doc.ImportValue:
		return true
	case []any:
		for _, elem := range x {
			if isDeferred(elem) {
				return true
			}
		}
	case map[string]any:
		for _, elem := range x {
			if isDeferred(elem) {
				return true
			}
		}
	}
	return false
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
