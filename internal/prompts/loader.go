package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type fileFormat struct {
	Prompts []Template `yaml:"prompts"`
}

// LoadYAML decodes a prompts document. Unknown fields are rejected.
func LoadYAML(r io.Reader) ([]Template, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f fileFormat
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode prompts yaml: %w", err)
	}
	for _, t := range f.Prompts {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Prompts, nil
}

// Defaults returns the built-in templates.
func Defaults() ([]Template, error) {
	return LoadYAML(bytes.NewReader(defaultsYAML))
}

// NewStore builds the process Store from the built-in templates, overlaid by the YAML
// file at overlayPath when one is given.
func NewStore(log *logger.Logger, overlayPath string) (Store, error) {
	ts, err := Defaults()
	if err != nil {
		return nil, fmt.Errorf("built-in prompts: %w", err)
	}
	store, err := NewMemoryStore(ts...)
	if err != nil {
		return nil, err
	}
	if path := strings.TrimSpace(overlayPath); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open prompts file: %w", err)
		}
		defer f.Close()
		overlay, err := LoadYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, t := range overlay {
			if err := store.Put(t); err != nil {
				return nil, err
			}
			if log != nil {
				log.Info("Prompt overridden", "prompt", t.Name, "version", t.Version, "fingerprint", t.Fingerprint())
			}
		}
	}
	if err := RequireAll(store, RequiredNames...); err != nil {
		return nil, err
	}
	return store, nil
}
