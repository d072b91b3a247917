package report

import (
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/p2plend/riskengine/classifier"
	"github.com/p2plend/riskengine/pkg/errors"
)

// ROCPoint is one operating point of the receiver curve.
type ROCPoint struct {
	FPR float64
	TPR float64
}

// ROCPoints computes the receiver operating characteristic of a scored
// labeled set: thresholds sweep the distinct scores from high to low and
// each step emits the cumulative true and false positive rates.
func ROCPoints(yTrue, yScore []float64) ([]ROCPoint, error) {
	if len(yTrue) != len(yScore) {
		return nil, errors.NewDimensionError("report.ROCPoints", len(yTrue), len(yScore), 0)
	}

	var pos, neg float64
	for _, y := range yTrue {
		if y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, errors.NewInsufficientDataError("report.ROCPoints", len(yTrue), 1,
			"both outcomes are required for a receiver curve")
	}

	order := make([]int, len(yScore))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yScore[order[a]] > yScore[order[b]]
	})

	points := []ROCPoint{{FPR: 0, TPR: 0}}
	var tp, fp float64
	for k := 0; k < len(order); {
		// Ties share a threshold and advance together.
		score := yScore[order[k]]
		for k < len(order) && yScore[order[k]] == score {
			if yTrue[order[k]] == 1 {
				tp++
			} else {
				fp++
			}
			k++
		}
		points = append(points, ROCPoint{FPR: fp / neg, TPR: tp / pos})
	}
	return points, nil
}

// SaveROCChart renders the receiver curve with the chance diagonal to a
// PNG at path.
func SaveROCChart(points []ROCPoint, modelName, path string) error {
	p := plot.New()
	p.Title.Text = "ROC Curve"
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	curve := make(plotter.XYs, len(points))
	for i, pt := range points {
		curve[i].X = pt.FPR
		curve[i].Y = pt.TPR
	}
	chance := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}

	if err := plotutil.AddLines(p, modelName, curve, "chance", chance); err != nil {
		return errors.Wrap(err, "report: add roc lines")
	}
	return savePNG(p, path, 6*vg.Inch, 6*vg.Inch)
}

// SaveComparisonChart renders a grouped bar chart of the two models'
// metric bundles so the comparison report can be eyeballed.
func SaveComparisonChart(aName string, aVals []float64, bName string, bVals []float64, labels []string, path string) error {
	if len(aVals) != len(labels) || len(bVals) != len(labels) {
		return errors.NewDimensionError("report.SaveComparisonChart", len(labels), len(aVals), 0)
	}

	p := plot.New()
	p.Title.Text = "Model Comparison"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.NominalX(labels...)

	w := vg.Points(18)
	barsA, err := plotter.NewBarChart(plotter.Values(aVals), w)
	if err != nil {
		return errors.Wrap(err, "report: build bar chart")
	}
	barsA.Offset = -w / 2
	barsA.Color = plotutil.Color(0)

	barsB, err := plotter.NewBarChart(plotter.Values(bVals), w)
	if err != nil {
		return errors.Wrap(err, "report: build bar chart")
	}
	barsB.Offset = w / 2
	barsB.Color = plotutil.Color(1)

	p.Add(barsA, barsB)
	p.Legend.Add(aName, barsA)
	p.Legend.Add(bName, barsB)
	p.Legend.Top = true

	return savePNG(p, path, 8*vg.Inch, 4*vg.Inch)
}

// SaveCoefficientChart renders the model's standardized coefficients as a
// bar chart, ordered by absolute weight.
func SaveCoefficientChart(coefs []classifier.Coefficient, path string) error {
	if len(coefs) == 0 {
		return errors.NewValueError("report.SaveCoefficientChart", "no coefficients to plot")
	}

	p := plot.New()
	p.Title.Text = "Feature Coefficients"
	p.Y.Label.Text = "Weight"

	labels := make([]string, len(coefs))
	vals := make(plotter.Values, len(coefs))
	for i, c := range coefs {
		labels[i] = c.Feature
		vals[i] = c.Coefficient
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -0.9

	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "report: build bar chart")
	}
	bars.Color = plotutil.Color(2)
	p.Add(bars)

	return savePNG(p, path, 10*vg.Inch, 5*vg.Inch)
}

func savePNG(p *plot.Plot, path string, w, h vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "report: create chart directory")
	}
	return errors.Wrap(p.Save(w, h, path), "report: save chart")
}
