package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoStackSource = `
stack "StackA" {
  resource "Bucket" "Data" {
    properties {
      Name = "data"
    }
  }
}

stack "StackB" {
  resource "Policy" "ReadData" {
    properties {
      Resource = "${stack.StackA.Data.Arn}/*"
    }
  }
}
`

func writeSourceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func plainColors(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestSynth_WritesDocumentsAndManifest(t *testing.T) {
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})
	outDir := t.TempDir()

	testApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{SourcePath: srcDir, OutDir: outDir})
	require.NoError(t, testApp.Synth(context.Background()))

	for _, name := range []string{"StackA.template.json", "StackB.template.json", ManifestName} {
		_, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, "expected %s to be written", name)
	}

	consumer, err := os.ReadFile(filepath.Join(outDir, "StackB.template.json"))
	require.NoError(t, err)
	assert.Contains(t, string(consumer), "Fn::ImportValue")

	raw, err := os.ReadFile(filepath.Join(outDir, ManifestName))
	require.NoError(t, err)
	manifest, err := ReadManifest(raw)
	require.NoError(t, err)

	require.Len(t, manifest.Stacks, 2)
	assert.Equal(t, "StackA", manifest.Stacks[0].Name)
	assert.Equal(t, "StackA.template.json", manifest.Stacks[0].File)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, manifest.Stacks[0].Digest)
	assert.Empty(t, manifest.Stacks[0].DependsOn)

	assert.Equal(t, "StackB", manifest.Stacks[1].Name)
	assert.Equal(t, []string{"StackA"}, manifest.Stacks[1].DependsOn)
}

func TestSynth_DigestStableAcrossFormats(t *testing.T) {
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})

	readManifest := func(outDir string) *Manifest {
		raw, err := os.ReadFile(filepath.Join(outDir, ManifestName))
		require.NoError(t, err)
		m, err := ReadManifest(raw)
		require.NoError(t, err)
		return m
	}

	jsonDir := t.TempDir()
	jsonApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{SourcePath: srcDir, OutDir: jsonDir})
	require.NoError(t, jsonApp.Synth(context.Background()))

	yamlDir := t.TempDir()
	yamlApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{SourcePath: srcDir, OutDir: yamlDir, Format: FormatYAML})
	require.NoError(t, yamlApp.Synth(context.Background()))

	jsonManifest := readManifest(jsonDir)
	yamlManifest := readManifest(yamlDir)
	require.Len(t, yamlManifest.Stacks, len(jsonManifest.Stacks))
	for i := range jsonManifest.Stacks {
		assert.Equal(t, jsonManifest.Stacks[i].Digest, yamlManifest.Stacks[i].Digest)
	}

	body, err := os.ReadFile(filepath.Join(yamlDir, "StackA.template.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Resources:")
}

func TestSynth_StackFilter(t *testing.T) {
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})
	outDir := t.TempDir()

	testApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{
		SourcePath: srcDir,
		OutDir:     outDir,
		Stacks:     []string{"StackA"},
	})
	require.NoError(t, testApp.Synth(context.Background()))

	_, err := os.Stat(filepath.Join(outDir, "StackA.template.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "StackB.template.json"))
	assert.True(t, os.IsNotExist(err))

	raw, err := os.ReadFile(filepath.Join(outDir, ManifestName))
	require.NoError(t, err)
	manifest, err := ReadManifest(raw)
	require.NoError(t, err)
	require.Len(t, manifest.Stacks, 1)
	assert.Equal(t, "StackA", manifest.Stacks[0].Name)
}

func TestSynth_PatternMatchingNothingFails(t *testing.T) {
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})

	testApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{
		SourcePath: srcDir,
		OutDir:     t.TempDir(),
		Stacks:     []string{"Prod*"},
	})
	err := testApp.Synth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `matched no stacks`)
	assert.Contains(t, err.Error(), "StackA")
}

func TestSynth_InvalidSourceSurfacesDiagnostics(t *testing.T) {
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": `
stack "App" {
  resource "Spaceship" "Falcon" {
    properties {}
  }
}
`})

	testApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{SourcePath: srcDir, OutDir: t.TempDir()})
	err := testApp.Synth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is invalid")
	assert.Contains(t, err.Error(), "Unknown resource type")
}

func TestDiff_CleanAfterSynth(t *testing.T) {
	plainColors(t)
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})
	outDir := t.TempDir()

	synthApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{SourcePath: srcDir, OutDir: outDir})
	require.NoError(t, synthApp.Synth(context.Background()))

	var out bytes.Buffer
	diffApp, _ := SetupAppTest(t, &out, Config{SourcePath: srcDir, OutDir: outDir})
	drifted, err := diffApp.Diff(context.Background(), outDir)
	require.NoError(t, err)
	assert.False(t, drifted)
	assert.Empty(t, out.String())
}

func TestDiff_ReportsDrift(t *testing.T) {
	plainColors(t)
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})
	outDir := t.TempDir()

	synthApp, _ := SetupAppTest(t, &bytes.Buffer{}, Config{SourcePath: srcDir, OutDir: outDir})
	require.NoError(t, synthApp.Synth(context.Background()))

	changed := writeSourceDir(t, map[string]string{
		"main.hcl": `
stack "StackA" {
  resource "Bucket" "Data" {
    properties {
      Name = "data-v2"
    }
  }
}

stack "StackB" {
  resource "Policy" "ReadData" {
    properties {
      Resource = "${stack.StackA.Data.Arn}/*"
    }
  }
}
`,
	})

	var out bytes.Buffer
	diffApp, _ := SetupAppTest(t, &out, Config{SourcePath: changed, OutDir: outDir})
	drifted, err := diffApp.Diff(context.Background(), outDir)
	require.NoError(t, err)
	assert.True(t, drifted)

	text := out.String()
	assert.Contains(t, text, "StackA.template.json (previous)")
	assert.Contains(t, text, "StackA.template.json (proposed)")
	assert.Contains(t, text, `+        "Name": "data-v2"`)
	assert.Contains(t, text, `-        "Name": "data"`)
	assert.NotContains(t, text, "StackB.template.json")
}

func TestDiff_MissingPreviousCountsAsDrift(t *testing.T) {
	plainColors(t)
	srcDir := writeSourceDir(t, map[string]string{"main.hcl": twoStackSource})

	var out bytes.Buffer
	diffApp, _ := SetupAppTest(t, &out, Config{SourcePath: srcDir, OutDir: t.TempDir()})
	drifted, err := diffApp.Diff(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, drifted)
	assert.Contains(t, out.String(), "(previous)")
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := NewConfig(Config{SourcePath: "grid"})
		require.NoError(t, err)
		assert.Equal(t, "strata.out", cfg.OutDir)
		assert.Equal(t, FormatJSON, cfg.Format)
	})

	t.Run("requires source path", func(t *testing.T) {
		_, err := NewConfig(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SourcePath")
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := NewConfig(Config{SourcePath: "grid", Format: "toml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid format "toml"`)
	})
}

func TestParseContextArgs(t *testing.T) {
	got, err := ParseContextArgs([]string{"region=eu-west-1", "stage=dev"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"region": "eu-west-1", "stage": "dev"}, got)

	_, err = ParseContextArgs([]string{"no-separator"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")

	got, err = ParseContextArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadContextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	require.NoError(t, os.WriteFile(path, []byte("region: eu-west-1\nstage: dev\n"), 0o600))

	got, err := LoadContextFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"region": "eu-west-1", "stage": "dev"}, got)

	_, err = LoadContextFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestMergeContext(t *testing.T) {
	got := MergeContext(
		map[string]string{"region": "us-east-1", "stage": "dev"},
		nil,
		map[string]string{"region": "eu-west-1"},
	)
	assert.Equal(t, map[string]string{"region": "eu-west-1", "stage": "dev"}, got)
}

func TestReadManifest_RejectsUnknownVersion(t *testing.T) {
	_, err := ReadManifest([]byte(`{"version": 99, "stacks": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest version")
}
