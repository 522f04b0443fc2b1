package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"contentforge/internal/logging"
)

// embeddedDefaults contains the built-in template corpus.
//
//go:embed defaults/*.yaml
var embeddedDefaults embed.FS

// LoadDefaultCorpus parses the built-in templates baked into the binary.
func LoadDefaultCorpus() ([]*PromptTemplate, error) {
	timer := logging.StartTimer(logging.CategoryTemplate, "LoadDefaultCorpus")
	defer timer.Stop()

	entries, err := fs.ReadDir(embeddedDefaults, "defaults")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates: %w", err)
	}

	var all []*PromptTemplate
	for _, e := range entries {
		p := path.Join("defaults", e.Name())
		data, err := embeddedDefaults.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded file: %w", err)
		}
		ts, err := ParseYAML(data, p)
		if err != nil {
			return nil, err
		}
		all = append(all, ts...)
	}

	logging.Template("Loaded %d templates from embedded corpus", len(all))
	return all, nil
}

// NewDefaultRegistry returns a registry seeded with the built-in corpus.
func NewDefaultRegistry() (*Registry, error) {
	templates, err := LoadDefaultCorpus()
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	if err := r.RegisterAll(templates); err != nil {
		return nil, err
	}
	return r, nil
}
