package report

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"reimburse/internal/evaluate"
)

// PredictionScatter plots predicted against expected amounts with the
// identity line for reference.
func PredictionScatter(path string, rep *evaluate.Report) error {
	if len(rep.Results) == 0 {
		return fmt.Errorf("scatter: no results")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Predicted vs expected (MAE $%.2f, R² %.3f)", rep.MeanError, rep.R2)
	p.X.Label.Text = "Expected reimbursement ($)"
	p.Y.Label.Text = "Predicted reimbursement ($)"

	pts := make(plotter.XYs, len(rep.Results))
	hi := 0.0
	for i, r := range rep.Results {
		pts[i].X = r.Case.Expected
		pts[i].Y = r.Predicted
		hi = max(hi, r.Case.Expected, r.Predicted)
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Color = plotutil.Color(0)

	ideal := plotter.NewFunction(func(x float64) float64 { return x })
	ideal.Color = color.RGBA{R: 200, A: 255}
	ideal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(plotter.NewGrid(), s, ideal)
	p.Legend.Add("cases", s)
	p.Legend.Add("perfect", ideal)
	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Min, p.Y.Min = 0, 0
	p.X.Max, p.Y.Max = hi*1.02, hi*1.02

	return save(p, path, 6*vg.Inch, 6*vg.Inch)
}

// ErrorByDuration draws one box of absolute errors per trip length.
func ErrorByDuration(path string, rep *evaluate.Report) error {
	groups := make(map[int]plotter.Values)
	for _, r := range rep.Results {
		groups[r.Case.Days()] = append(groups[r.Case.Days()], r.Error)
	}
	if len(groups) == 0 {
		return fmt.Errorf("boxplot: no results")
	}
	p := plot.New()
	p.Title.Text = "Absolute error by trip duration"
	p.Y.Label.Text = "Error ($)"
	p.X.Label.Text = "Days"

	var names []string
	for i, d := range rep.ByDuration {
		box, err := plotter.NewBoxPlot(vg.Points(18), float64(i), groups[d.Days])
		if err != nil {
			return err
		}
		p.Add(box)
		names = append(names, strconv.Itoa(d.Days))
	}
	p.NominalX(names...)
	return save(p, path, 8*vg.Inch, 4*vg.Inch)
}

// ErrorHistogram bins the absolute errors.
func ErrorHistogram(path string, rep *evaluate.Report, bins int) error {
	if len(rep.Results) == 0 {
		return fmt.Errorf("histogram: no results")
	}
	if bins <= 0 {
		bins = 50
	}
	vals := make(plotter.Values, len(rep.Results))
	for i, r := range rep.Results {
		vals[i] = r.Error
	}
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(2)

	p := plot.New()
	p.Title.Text = "Error distribution"
	p.X.Label.Text = "Absolute error ($)"
	p.Y.Label.Text = "Cases"
	p.Add(h)
	return save(p, path, 6*vg.Inch, 4*vg.Inch)
}

// CurvePoint is one training-set size on a learning curve.
type CurvePoint struct {
	Size     int
	TrainMAE float64
	TestMAE  float64
}

func LearningCurve(path string, points []CurvePoint) error {
	if len(points) == 0 {
		return fmt.Errorf("learning curve: no points")
	}
	p := plot.New()
	p.Title.Text = "Learning curve"
	p.X.Label.Text = "Training cases"
	p.Y.Label.Text = "MAE ($)"
	p.Y.Min = 0

	train := make(plotter.XYs, len(points))
	test := make(plotter.XYs, len(points))
	for i, pt := range points {
		train[i].X, train[i].Y = float64(pt.Size), pt.TrainMAE
		test[i].X, test[i].Y = float64(pt.Size), pt.TestMAE
	}
	if err := plotutil.AddLinePoints(p, "Train", train, "Holdout", test); err != nil {
		return err
	}
	return save(p, path, 8*vg.Inch, 4*vg.Inch)
}

func WriteCurveCSV(path string, points []CurvePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"size", "train_mae", "test_mae"}); err != nil {
		return err
	}
	for _, pt := range points {
		rec := []string{strconv.Itoa(pt.Size), fmt.Sprintf("%.6f", pt.TrainMAE), fmt.Sprintf("%.6f", pt.TestMAE)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func save(p *plot.Plot, path string, w, h vg.Length) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return p.Save(w, h, path)
}
