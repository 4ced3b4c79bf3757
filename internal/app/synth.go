package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"golang.org/x/sync/errgroup"

	"github.com/harwell/strata/internal/assemble"
	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/ctxlog"
	"github.com/harwell/strata/internal/doc"
	"github.com/harwell/strata/internal/hclfront"
)

// Synth loads the configured sources, synthesizes every stack, and writes
// the selected documents plus the manifest under OutDir.
func (a *App) Synth(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	selected, err := a.synthesize(ctx)
	if err != nil {
		return err
	}
	if err := a.writeArtifacts(ctx, selected); err != nil {
		return err
	}
	a.logger.Info("Synthesis complete.", "stacks", len(selected), "dir", a.config.OutDir)
	return nil
}

// synthesize runs load, build, and both synthesis phases, returning the
// artifacts matching the stack filter in declaration order.
func (a *App) synthesize(ctx context.Context) ([]*assemble.StackArtifact, error) {
	ctx = ctxlog.With(ctx, "grid", a.config.SourcePath)

	loader := hclfront.NewLoader()
	unit, diags := loader.Load(ctx, a.config.SourcePath)
	if diags.HasErrors() {
		return nil, diagnosticsError(loader, diags)
	}

	tree, diags := hclfront.Build(ctx, hclfront.BuildInput{
		Unit:    unit,
		Types:   a.types,
		Context: a.config.Context,
	})
	if diags.HasErrors() {
		return nil, diagnosticsError(loader, diags)
	}

	asm, err := assemble.SynthesizeConcurrent(ctx, tree, a.config.Jobs)
	if err != nil {
		return nil, err
	}
	return selectArtifacts(tree, asm, a.config.Stacks)
}

// writeArtifacts encodes and writes each document concurrently, then the
// manifest. Nothing is written when any stack failed to synthesize.
func (a *App) writeArtifacts(ctx context.Context, artifacts []*assemble.StackArtifact) error {
	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(a.config.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)
	if a.config.Jobs > 0 {
		g.SetLimit(a.config.Jobs)
	}
	for _, art := range artifacts {
		art := art
		g.Go(func() error {
			body, err := a.encodeTemplate(art)
			if err != nil {
				return err
			}
			name := templateFileName(art.Stack.Name(), a.config.Format)
			if err := os.WriteFile(filepath.Join(a.config.OutDir, name), body, 0o644); err != nil {
				return fmt.Errorf("writing document for stack %q: %w", art.Stack.Name(), err)
			}
			logger.Debug("Wrote document.", "stack", art.Stack.Name(), "file", name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	manifest, err := buildManifest(artifacts, a.config.Format)
	if err != nil {
		return err
	}
	body, err := manifest.encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(a.config.OutDir, ManifestName), body, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// encodeTemplate renders one document in the configured format.
func (a *App) encodeTemplate(art *assemble.StackArtifact) ([]byte, error) {
	if a.config.Format == FormatYAML {
		return doc.EncodeYAML(art.Template)
	}
	return doc.Encode(art.Template)
}

// templateFileName is the on-disk name for one stack's document.
func templateFileName(stackName, format string) string {
	return stackName + ".template." + format
}

// selectArtifacts filters the assembly by the configured glob patterns,
// preserving declaration order. A pattern matching no stack is an error so
// typos never silently synthesize nothing.
func selectArtifacts(tree *construct.App, asm *assemble.Assembly, patterns []string) ([]*assemble.StackArtifact, error) {
	if len(patterns) == 0 {
		return asm.Artifacts, nil
	}

	matched := make(map[string]bool)
	for _, pattern := range patterns {
		var matchErr error
		hits, err := construct.Select(tree, pattern, func(c construct.Construct) bool {
			s, ok := c.(*construct.Stack)
			if !ok {
				return false
			}
			match, err := path.Match(pattern, s.Name())
			if err != nil {
				matchErr = err
				return false
			}
			return match
		}, construct.SelectAllowEmpty)
		if err != nil {
			return nil, err
		}
		if matchErr != nil {
			return nil, fmt.Errorf("invalid stack pattern %q: %w", pattern, matchErr)
		}
		if len(hits) == 0 {
			return nil, fmt.Errorf("stack pattern %q matched no stacks (have %s)",
				pattern, strings.Join(stackNames(asm), ", "))
		}
		for _, hit := range hits {
			matched[hit.(*construct.Stack).Name()] = true
		}
	}

	var out []*assemble.StackArtifact
	for _, art := range asm.Artifacts {
		if matched[art.Stack.Name()] {
			out = append(out, art)
		}
	}
	return out, nil
}

func stackNames(asm *assemble.Assembly) []string {
	names := make([]string, len(asm.Artifacts))
	for i, art := range asm.Artifacts {
		names[i] = art.Stack.Name()
	}
	return names
}

// diagnosticsError renders frontend diagnostics with their source context
// into a single error value.
func diagnosticsError(loader *hclfront.Loader, diags hcl.Diagnostics) error {
	var buf bytes.Buffer
	wr := hcl.NewDiagnosticTextWriter(&buf, loader.Files(), 78, false)
	if err := wr.WriteDiagnostics(diags); err != nil {
		return diags
	}
	return fmt.Errorf("configuration is invalid:\n%s", strings.TrimRight(buf.String(), "\n"))
}
