package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document encodings accepted by Config.Format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds everything one invocation needs. The CLI populates it from
// flags, environment variables, and the optional config file; NewConfig
// applies defaults and rejects contradictions.
type Config struct {
	// SourcePath is the .hcl file or directory tree to load.
	SourcePath string
	// OutDir receives the synthesized documents and the manifest.
	OutDir string
	// Format selects the document encoding, FormatJSON or FormatYAML.
	Format string
	// Stacks filters which stacks are written or diffed. Each entry is a
	// glob matched against stack names; empty selects every stack.
	Stacks []string
	// Context carries the externally supplied key/value pairs readable
	// from configuration as context.<key>.
	Context map[string]string
	// Jobs caps how many stacks resolve concurrently. Zero or negative
	// means one goroutine per stack.
	Jobs int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults, returning a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SourcePath == "" {
		return nil, errors.New("SourcePath is a required configuration field and cannot be empty")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "strata.out"
	}
	switch cfg.Format {
	case "":
		cfg.Format = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("invalid format %q: must be %q or %q", cfg.Format, FormatJSON, FormatYAML)
	}
	return &cfg, nil
}

// ParseContextArgs turns repeated "key=value" flag values into a map.
func ParseContextArgs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context value %q: expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

// LoadContextFile reads a YAML (or JSON) file of flat key/value context
// entries.
func LoadContextFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}
	var out map[string]string
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding context file %s: %w", path, err)
	}
	return out, nil
}

// MergeContext overlays each layer onto the ones before it, later layers
// winning. Nil layers are skipped; the result is never nil.
func MergeContext(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
