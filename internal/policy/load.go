package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region load

// Load reads a policy file. ".json" files are parsed as JSON, everything
// else as YAML.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}

	var p Policy
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
		}
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return p, nil
}

// LoadForQuestion resolves a question ID to "<dir>/<id>.yaml" (or .yml or
// .json, in that order) and loads it.
func LoadForQuestion(dir, questionID string) (Policy, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(dir, questionID+ext)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Policy{}, fmt.Errorf("no policy file for question %q in %s", questionID, dir)
}

// #endregion load
