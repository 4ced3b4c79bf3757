package doc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// encodeNoEscape marshals v without HTML escaping and without the trailing
// newline json.Encoder appends. Map keys are emitted sorted, which together
// with the escaping rule makes the encoding canonical for a given value.
func encodeNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}

// Encode returns the canonical JSON encoding of the template, indented for
// writing to disk. Identical templates always encode byte-identically.
func Encode(t *Template) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeCompact returns the canonical single-line JSON encoding, used for
// digest computation.
func EncodeCompact(t *Template) ([]byte, error) {
	out, err := encodeNoEscape(t)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}
	return out, nil
}

// EncodeYAML returns the YAML rendering of the template, derived from the
// canonical JSON encoding. Keys are sorted at every level, including the
// top-level sections.
func EncodeYAML(t *Template) ([]byte, error) {
	j, err := EncodeCompact(t)
	if err != nil {
		return nil, err
	}
	y, err := yaml.JSONToYAML(j)
	if err != nil {
		return nil, fmt.Errorf("converting template to yaml: %w", err)
	}
	return y, nil
}

// Digest returns the hex sha256 digest of the template's compact canonical
// encoding. Two templates share a digest exactly when their serialized
// documents are identical.
func Digest(t *Template) (string, error) {
	j, err := EncodeCompact(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(j)
	return hex.EncodeToString(sum[:]), nil
}
