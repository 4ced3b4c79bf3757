package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/harwell/strata/internal/assemble"
	"github.com/harwell/strata/internal/doc"
)

// ManifestName is the index file written next to the documents.
const ManifestName = "manifest.json"

const manifestVersion = 1

// Manifest indexes one synthesis run: every written document with its
// content digest and the deploy-order dependencies between stacks.
type Manifest struct {
	Version int             `json:"version"`
	Stacks  []ManifestEntry `json:"stacks"`
}

// ManifestEntry records one stack's document. Digest is computed over the
// compact canonical JSON encoding, so it is stable across the json and
// yaml output formats.
type ManifestEntry struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Digest    string   `json:"digest"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

func buildManifest(artifacts []*assemble.StackArtifact, format string) (*Manifest, error) {
	m := &Manifest{Version: manifestVersion, Stacks: make([]ManifestEntry, 0, len(artifacts))}
	for _, art := range artifacts {
		digest, err := doc.Digest(art.Template)
		if err != nil {
			return nil, fmt.Errorf("digesting document for stack %q: %w", art.Stack.Name(), err)
		}
		m.Stacks = append(m.Stacks, ManifestEntry{
			Name:      art.Stack.Name(),
			File:      templateFileName(art.Stack.Name(), format),
			Digest:    "sha256:" + digest,
			DependsOn: art.DependsOn,
		})
	}
	sort.Slice(m.Stacks, func(i, j int) bool { return m.Stacks[i].Name < m.Stacks[j].Name })
	return m, nil
}

// encode renders the manifest as indented JSON with a trailing newline.
func (m *Manifest) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadManifest loads a manifest written by a previous run.
func ReadManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return &m, nil
}
