package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads delivr.yaml from configDir, expands environment references,
// merges it over the built-in defaults, loads every file under
// configDir/release-configs/ as a named ReleaseTemplate, and validates the
// result.
func Load(configDir string) (*Document, error) {
	doc := Defaults()

	rootPath := filepath.Join(configDir, "delivr.yaml")
	raw, err := os.ReadFile(rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(rootPath, ErrConfigNotFound)
		}
		return nil, NewLoadError(rootPath, err)
	}

	var user Document
	if err := yaml.Unmarshal(ExpandEnv(raw), &user); err != nil {
		return nil, NewLoadError(rootPath, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := mergo.Merge(doc, user, mergo.WithOverride); err != nil {
		return nil, NewLoadError(rootPath, err)
	}

	templates, err := loadReleaseTemplates(filepath.Join(configDir, "release-configs"))
	if err != nil {
		return nil, err
	}
	for name, tmpl := range templates {
		doc.ReleaseConfig[name] = tmpl
	}

	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return doc, nil
}

// loadReleaseTemplates parses every *.yaml file in dir as a ReleaseTemplate
// keyed by its file name without extension. A missing directory is not an
// error — templates are optional; releases may carry fully-inline config.
func loadReleaseTemplates(dir string) (map[string]ReleaseTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ReleaseTemplate{}, nil
		}
		return nil, NewLoadError(dir, err)
	}

	templates := make(map[string]ReleaseTemplate, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewLoadError(path, err)
		}
		var tmpl ReleaseTemplate
		if err := yaml.Unmarshal(ExpandEnv(raw), &tmpl); err != nil {
			return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
		}
		name := entry.Name()[:len(entry.Name())-len(".yaml")]
		templates[name] = tmpl
	}
	return templates, nil
}
