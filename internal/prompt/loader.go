package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"contentforge/internal/logging"
	"contentforge/internal/types"

	"gopkg.in/yaml.v3"
)

// yamlTemplate matches the YAML structure used in defaults/*.yaml and
// user template directories.
type yamlTemplate struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Category      string         `yaml:"category"`
	Description   string         `yaml:"description,omitempty"`
	SystemPrompt  string         `yaml:"system_prompt"`
	UserPrompt    string         `yaml:"user_prompt"`
	Variables     []yamlVariable `yaml:"variables,omitempty"`
	Examples      []Example      `yaml:"examples,omitempty"`
	Chainable     bool           `yaml:"chainable"`
	SuggestedNext []string       `yaml:"suggested_next,omitempty"`
}

type yamlVariable struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty"`
}

// LoadFromYAML parses one YAML file holding a template or a list of templates.
func LoadFromYAML(path string) ([]*PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ParseYAML(data, path)
}

// ParseYAML parses template definitions. source is used in error messages.
// Invalid entries are skipped with an error log; a malformed document fails.
func ParseYAML(data []byte, source string) ([]*PromptTemplate, error) {
	var raws []yamlTemplate
	if err := yaml.Unmarshal(data, &raws); err != nil {
		var single yamlTemplate
		if singleErr := yaml.Unmarshal(data, &single); singleErr != nil {
			return nil, fmt.Errorf("failed to parse YAML %s: %w", source, err)
		}
		raws = []yamlTemplate{single}
	}

	var out []*PromptTemplate
	for _, raw := range raws {
		t, err := convertYAMLTemplate(raw)
		if err != nil {
			logging.Get(logging.CategoryTemplate).Error("Skipping invalid template in %s: %v", source, err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadFromDirectory loads every .yaml/.yml file under dir, sorted by path.
func LoadFromDirectory(dir string) ([]*PromptTemplate, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk template directory: %w", err)
	}
	sort.Strings(paths)

	var all []*PromptTemplate
	for _, p := range paths {
		ts, err := LoadFromYAML(p)
		if err != nil {
			return nil, err
		}
		all = append(all, ts...)
	}
	logging.Template("Loaded %d templates from %s", len(all), dir)
	return all, nil
}

func convertYAMLTemplate(raw yamlTemplate) (*PromptTemplate, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("template missing id")
	}
	if strings.TrimSpace(raw.UserPrompt) == "" {
		return nil, fmt.Errorf("template %s missing user_prompt", raw.ID)
	}

	t := &PromptTemplate{
		ID:                 raw.ID,
		Name:               raw.Name,
		Category:           raw.Category,
		Description:        raw.Description,
		SystemPrompt:       strings.TrimSpace(raw.SystemPrompt),
		UserPromptTemplate: strings.TrimSpace(raw.UserPrompt),
		Examples:           raw.Examples,
		Chainable:          raw.Chainable,
		SuggestedNext:      raw.SuggestedNext,
	}
	if t.Name == "" {
		t.Name = raw.ID
	}

	for _, rv := range raw.Variables {
		if rv.Name == "" {
			return nil, fmt.Errorf("template %s has a variable with no name", raw.ID)
		}
		vt := VariableType(strings.ToLower(rv.Type))
		switch vt {
		case "":
			vt = VarString
		case VarString, VarNumber, VarList, VarMap:
		default:
			return nil, fmt.Errorf("template %s variable %s: unknown type %q", raw.ID, rv.Name, rv.Type)
		}

		v := Variable{Name: rv.Name, Type: vt, Required: rv.Required, Description: rv.Description}
		if rv.Default != nil {
			def, err := types.ValueOf(rv.Default)
			if err != nil {
				return nil, fmt.Errorf("template %s variable %s default: %w", raw.ID, rv.Name, err)
			}
			v.Default = &def
		}
		t.Variables = append(t.Variables, v)
	}
	return t, nil
}
