package calculator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// LoadParameters reads a YAML parameter file. Files without a version are
// versioned by their base name.
func LoadParameters(path string) (*Parameters, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	var p Parameters
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode parameters %s: %w", path, err)
	}
	if p.Version == "" {
		p.Version = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func SaveParameters(path string, p *Parameters) error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}

// Resolve maps a preset name or a YAML path to a parameter set.
func Resolve(nameOrPath string) (*Parameters, error) {
	switch strings.ToLower(nameOrPath) {
	case "", "optimized", VersionOptimized:
		return Optimized(), nil
	case "baseline", VersionBaseline:
		return Baseline(), nil
	}
	return LoadParameters(nameOrPath)
}
