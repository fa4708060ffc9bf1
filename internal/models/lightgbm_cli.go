package models

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"reimburse/pkg/utils"
)

// LightGBMCLI trains and predicts by shelling out to the lightgbm binary.
// Only the path of the model text file is kept in memory.
type LightGBMCLI struct {
	ExecPath      string
	NumLeaves     int
	MaxDepth      int
	MinDataInLeaf int
	NumIterations int
	LearningRate  float64
	BaggingFrac   float64
	Device        string
	WorkDir       string
	ModelPath     string
}

func NewLightGBMCLI() *LightGBMCLI {
	return &LightGBMCLI{
		ExecPath:      "lightgbm",
		NumLeaves:     63,
		MaxDepth:      8,
		MinDataInLeaf: 5,
		NumIterations: 500,
		LearningRate:  0.05,
		BaggingFrac:   0.8,
		Device:        "cpu",
		WorkDir:       "data",
		ModelPath:     filepath.Join("models", "lgbm_model.txt"),
	}
}

func (l *LightGBMCLI) Name() string {
	if l.Device == "gpu" {
		return "LightGBM(GPU)"
	}
	return "LightGBM(CPU)"
}

func (l *LightGBMCLI) renderTrainConfig(dataPath string) string {
	device := l.Device
	if device == "" {
		device = "cpu"
	}
	learner := "serial"
	if device == "gpu" {
		learner = "gpu"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "task=train\nboosting=gbdt\nobjective=regression\nmetric=l1\n")
	fmt.Fprintf(&b, "data=%s\nheader=false\nlabel_column=0\n", dataPath)
	fmt.Fprintf(&b, "num_leaves=%d\nmax_depth=%d\nmin_data_in_leaf=%d\n", l.NumLeaves, l.MaxDepth, l.MinDataInLeaf)
	fmt.Fprintf(&b, "num_iterations=%d\nlearning_rate=%g\n", l.NumIterations, l.LearningRate)
	if l.BaggingFrac > 0 && l.BaggingFrac < 1 {
		fmt.Fprintf(&b, "bagging_fraction=%g\nbagging_freq=1\n", l.BaggingFrac)
	}
	fmt.Fprintf(&b, "device=%s\ntree_learner=%s\noutput_model=%s\n", device, learner, l.ModelPath)
	return b.String()
}

func (l *LightGBMCLI) renderPredictConfig(dataPath, outPath string) string {
	return fmt.Sprintf("task=predict\ninput_model=%s\ndata=%s\nheader=false\nlabel_column=0\noutput_result=%s\n",
		l.ModelPath, dataPath, outPath)
}

func (l *LightGBMCLI) Fit(X [][]float64, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	for _, dir := range []string{l.WorkDir, filepath.Dir(l.ModelPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	trainCSV := filepath.Join(l.WorkDir, "lgbm_train.csv")
	if err := writeCSVLabelFirst(trainCSV, X, y); err != nil {
		return err
	}
	conf := filepath.Join(l.WorkDir, "lgbm_train.conf")
	if err := os.WriteFile(conf, []byte(l.renderTrainConfig(trainCSV)), 0o644); err != nil {
		return err
	}
	if err := l.run(conf); err != nil {
		return fmt.Errorf("lightgbm train (is %q installed and on PATH?): %w", l.ExecPath, err)
	}
	if _, err := os.Stat(l.ModelPath); err != nil {
		return fmt.Errorf("lightgbm model missing after training: %w", err)
	}
	return nil
}

// Predict returns nil when the binary or the model file is unavailable.
func (l *LightGBMCLI) Predict(X [][]float64) []float64 {
	if len(X) == 0 {
		return []float64{}
	}
	preds, err := l.predict(X)
	if err != nil {
		utils.Logger().Error("lightgbm predict failed", zap.String("model", l.ModelPath), zap.Error(err))
		return nil
	}
	return preds
}

func (l *LightGBMCLI) predict(X [][]float64) ([]float64, error) {
	if _, err := os.Stat(l.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFitted, err)
	}
	if err := os.MkdirAll(l.WorkDir, 0o755); err != nil {
		return nil, err
	}
	predCSV := filepath.Join(l.WorkDir, "lgbm_pred.csv")
	if err := writeCSVLabelFirst(predCSV, X, make([]float64, len(X))); err != nil {
		return nil, err
	}
	conf := filepath.Join(l.WorkDir, "lgbm_predict.conf")
	outPath := filepath.Join(l.WorkDir, "lgbm_preds.txt")
	if err := os.WriteFile(conf, []byte(l.renderPredictConfig(predCSV, outPath)), 0o644); err != nil {
		return nil, err
	}
	if err := l.run(conf); err != nil {
		return nil, err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	preds, err := readPredictions(f)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(X) {
		return nil, fmt.Errorf("%w: lightgbm returned %d predictions for %d rows", ErrShape, len(preds), len(X))
	}
	return preds, nil
}

func (l *LightGBMCLI) run(conf string) error {
	cmd := exec.Command(l.ExecPath, "config="+conf)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func readPredictions(f *os.File) ([]float64, error) {
	sc := bufio.NewScanner(f)
	var out []float64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.Fields(line)[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse prediction %q: %w", line, err)
		}
		out = append(out, v)
	}
	return out, sc.Err()
}

func writeCSVLabelFirst(path string, X [][]float64, y []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for i := range X {
		w.WriteString(strconv.FormatFloat(y[i], 'g', -1, 64))
		for j := range X[i] {
			w.WriteByte(',')
			w.WriteString(strconv.FormatFloat(X[i][j], 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}
