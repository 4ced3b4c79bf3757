// Package assemble drives synthesis: it freezes the construct tree, builds
// each stack's dependency graph from explicit and reference-implied edges,
// resolves every deferred value, and produces one document per stack.
//
// Synthesis runs in two phases. Phase one resolves each stack in isolation,
// registering cross-stack exports in the shared registry as a side effect.
// Phase two renders templates, so every producer sees the exports that
// consumers registered against it regardless of stack order. [Synthesize]
// runs both phases serially, [SynthesizeConcurrent] fans phase one out
// across stacks; both produce identical assemblies because each stack
// resolves against its own context and the registry is write-once.
package assemble

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/ctxlog"
	"github.com/harwell/strata/internal/depgraph"
	"github.com/harwell/strata/internal/doc"
	"github.com/harwell/strata/internal/xref"
)

// StackArtifact is one stack's synthesis output.
type StackArtifact struct {
	// Stack is the source stack.
	Stack *construct.Stack
	// Template is the synthesized document.
	Template *doc.Template
	// DependsOn lists the names of stacks this stack must be deployed
	// after, merged from explicit declarations and resolved references,
	// sorted and deduplicated.
	DependsOn []string
}

// Assembly is the result of synthesizing a whole app.
type Assembly struct {
	// Artifacts holds one entry per stack in declaration order.
	Artifacts []*StackArtifact
}

// Artifact returns the artifact for the named stack.
func (a *Assembly) Artifact(stackName string) (*StackArtifact, bool) {
	for _, art := range a.Artifacts {
		if art.Stack.Name() == stackName {
			return art, true
		}
	}
	return nil, false
}

// Synthesize freezes the tree under app and synthesizes every stack.
// Any engine error aborts the whole run; no partial assembly is returned.
func Synthesize(ctx context.Context, app *construct.App) (*Assembly, error) {
	logger := ctxlog.FromContext(ctx)
	app.Node().Freeze()

	stacks := app.Stacks()
	if err := validateStackNames(stacks); err != nil {
		return nil, err
	}
	logger.Debug("Starting synthesis.", "stacks", len(stacks))

	reg := xref.NewRegistry()

	resolved := make([]*ResolvedStack, len(stacks))
	for i, stack := range stacks {
		rs, err := ResolveStack(ctx, stack, reg)
		if err != nil {
			return nil, fmt.Errorf("stack %q: %w", stack.Name(), err)
		}
		resolved[i] = rs
	}

	return Finalize(ctx, resolved, reg)
}

// SynthesizeConcurrent is [Synthesize] with phase one fanned out across
// stacks. limit caps the number of stacks resolved at once; values below
// one mean no cap. Results are identical to the serial form because each
// stack resolves against its own context and the export registry is
// write-once.
func SynthesizeConcurrent(ctx context.Context, app *construct.App, limit int) (*Assembly, error) {
	logger := ctxlog.FromContext(ctx)
	app.Node().Freeze()

	stacks := app.Stacks()
	if err := validateStackNames(stacks); err != nil {
		return nil, err
	}
	logger.Debug("Starting synthesis.", "stacks", len(stacks), "limit", limit)

	reg := xref.NewRegistry()

	resolved := make([]*ResolvedStack, len(stacks))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, stack := range stacks {
		i, stack := i, stack
		g.Go(func() error {
			rs, err := ResolveStack(gctx, stack, reg)
			if err != nil {
				return fmt.Errorf("stack %q: %w", stack.Name(), err)
			}
			resolved[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Finalize(ctx, resolved, reg)
}

// Finalize runs phase two over already resolved stacks: it validates the
// stack-level dependency graph and renders every template.
func Finalize(ctx context.Context, resolved []*ResolvedStack, reg *xref.Registry) (*Assembly, error) {
	logger := ctxlog.FromContext(ctx)

	asm := &Assembly{Artifacts: make([]*StackArtifact, len(resolved))}
	for i, rs := range resolved {
		tpl, err := BuildTemplate(rs, reg)
		if err != nil {
			return nil, fmt.Errorf("stack %q: %w", rs.Stack.Name(), err)
		}
		asm.Artifacts[i] = &StackArtifact{
			Stack:     rs.Stack,
			Template:  tpl,
			DependsOn: stackDependencyNames(rs.Stack, reg),
		}
	}

	if err := checkStackCycles(asm.Artifacts); err != nil {
		return nil, err
	}
	logger.Debug("Synthesis complete.", "stacks", len(asm.Artifacts))
	return asm, nil
}

// validateStackNames rejects trees where two stacks share a name. Names
// seed export names and output file names, both of which must be unique
// app-wide.
func validateStackNames(stacks []*construct.Stack) error {
	seen := make(map[string]string, len(stacks))
	for _, s := range stacks {
		name := s.Name()
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("stack name %q used by both %q and %q", name, prev, s.Node().PathString())
		}
		seen[name] = s.Node().PathString()
	}
	return nil
}

// stackDependencyNames merges explicitly declared stack dependencies with
// the ones recorded by reference resolution.
func stackDependencyNames(stack *construct.Stack, reg *xref.Registry) []string {
	set := make(map[string]struct{})
	for _, dep := range stack.Dependencies() {
		set[dep.Name()] = struct{}{}
	}
	for _, dep := range reg.StackDependenciesOf(stack) {
		set[dep.Name()] = struct{}{}
	}
	return sortedSet(set)
}

// checkStackCycles rejects dependency cycles between stacks, which would
// make the assembly undeployable in any order.
func checkStackCycles(artifacts []*StackArtifact) error {
	g := depgraph.New()
	for _, art := range artifacts {
		g.AddNode(art.Stack.Name(), art.Stack.Node().Seq())
	}
	for _, art := range artifacts {
		for _, dep := range art.DependsOn {
			if !g.Has(dep) {
				return fmt.Errorf("stack %q depends on unknown stack %q", art.Stack.Name(), dep)
			}
			if err := g.AddDependency(art.Stack.Name(), dep); err != nil {
				return err
			}
		}
	}
	return g.DetectCycle()
}
