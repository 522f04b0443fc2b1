package chain

import (
	"fmt"
	"os"

	"contentforge/internal/logging"

	"gopkg.in/yaml.v3"
)

// LoadChainsFromYAML reads chain definitions from a file holding either a
// list of chains or a single chain.
func LoadChainsFromYAML(path string) ([]*PromptChain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chains file: %w", err)
	}
	return ParseChainsYAML(data, path)
}

// ParseChainsYAML parses chain definitions. Entries without an ID or steps
// are skipped with a warning.
func ParseChainsYAML(data []byte, source string) ([]*PromptChain, error) {
	var raw []*PromptChain
	if err := yaml.Unmarshal(data, &raw); err != nil {
		var single PromptChain
		if err2 := yaml.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("failed to parse chains YAML %s: %w", source, err)
		}
		raw = []*PromptChain{&single}
	}

	chains := make([]*PromptChain, 0, len(raw))
	for i, c := range raw {
		if c == nil || c.ID == "" {
			logging.ChainWarn("Skipping chain %d in %s: missing id", i, source)
			continue
		}
		if len(c.Steps) == 0 {
			logging.ChainWarn("Skipping chain %s in %s: no steps", c.ID, source)
			continue
		}
		if c.Name == "" {
			c.Name = c.ID
		}
		chains = append(chains, c)
	}

	logging.ChainDebug("Loaded %d chains from %s", len(chains), source)
	return chains, nil
}

// Catalog merges built-in blueprints with loaded chains; loaded chains
// replace blueprints with the same ID.
func Catalog(loaded ...*PromptChain) map[string]*PromptChain {
	out := make(map[string]*PromptChain)
	for _, c := range Blueprints() {
		out[c.ID] = c
	}
	for _, c := range loaded {
		if c != nil {
			out[c.ID] = c
		}
	}
	return out
}
