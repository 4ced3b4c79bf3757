package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/harwell/strata/internal/ctxlog"
)

// Diff synthesizes in memory and prints a unified diff of every selected
// stack's document against the copy under againstDir. It reports whether
// any document drifted. A missing previous file counts as drift and diffs
// against empty content.
func (a *App) Diff(ctx context.Context, againstDir string) (bool, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	selected, err := a.synthesize(ctx)
	if err != nil {
		return false, err
	}

	drifted := false
	for _, art := range selected {
		name := art.Stack.Name()
		proposed, err := a.encodeTemplate(art)
		if err != nil {
			return false, err
		}

		file := templateFileName(name, a.config.Format)
		previous, err := os.ReadFile(filepath.Join(againstDir, file))
		if err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("reading previous document for stack %q: %w", name, err)
		}

		text, err := renderDiff(file, string(previous), string(proposed))
		if err != nil {
			return false, fmt.Errorf("diffing stack %q: %w", name, err)
		}
		if text == "" {
			a.logger.Debug("Document unchanged.", "stack", name)
			continue
		}
		drifted = true
		fmt.Fprint(a.outW, colorizeDiff(text))
	}

	if !drifted {
		a.logger.Info("No drift detected.", "stacks", len(selected))
	}
	return drifted, nil
}

// renderDiff returns the unified diff between the two document renderings,
// or "" when they are identical.
func renderDiff(file, previous, proposed string) (string, error) {
	if previous == proposed {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(proposed),
		FromFile: file + " (previous)",
		ToFile:   file + " (proposed)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// colorizeDiff colors added lines green, removed lines red, and hunk or
// file headers cyan. Coloring is a no-op when color is globally disabled.
func colorizeDiff(text string) string {
	var (
		header  = color.New(color.FgCyan, color.Bold)
		added   = color.New(color.FgGreen)
		removed = color.New(color.FgRed)
	)

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			b.WriteString(header.Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(added.Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(removed.Sprint(line))
		default:
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
