package models

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func init() {
	gob.Register(&DecisionTree{})
	gob.Register(&GradientBoosting{})
	gob.Register(&RandomForest{})
	gob.Register(&LightGBMCLI{})
}

// Saved is the on-disk envelope of a trained model. Features records the
// column order the model was fit on.
type Saved struct {
	Algo     string
	Features []string
	SavedAt  time.Time
	Model    Model
}

func Save(path, algo string, featureNames []string, m Model) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	env := Saved{Algo: algo, Features: featureNames, SavedAt: time.Now().UTC(), Model: m}
	if err := gob.NewEncoder(f).Encode(&env); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return f.Sync()
}

func Load(path string) (*Saved, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var env Saved
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if env.Model == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFitted)
	}
	return &env, nil
}
