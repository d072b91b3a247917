package classifier

import (
	"math"
	"sort"

	"github.com/p2plend/riskengine/pkg/errors"
)

// selectionThreshold is the absolute-coefficient cutoff below which an L1
// coefficient is reported as dropped.
const selectionThreshold = 1e-6

// Coefficient pairs a feature name with its fitted weight.
type Coefficient struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// FeatureImportance returns the fitted coefficients sorted by descending
// absolute value.
func (m *TrainedModel) FeatureImportance() ([]Coefficient, error) {
	if m == nil || !m.Fitted {
		return nil, errors.NewNotTrainedError("LogisticRiskModel", "FeatureImportance")
	}
	out := make([]Coefficient, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		out[i] = Coefficient{Feature: name, Coefficient: m.Weights[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Coefficient) > math.Abs(out[j].Coefficient)
	})
	return out, nil
}

// SelectionReport summarizes which features survived regularization:
// coefficients with |w| above the threshold are selected, the rest were
// driven to zero (meaningful under L1).
type SelectionReport struct {
	SelectedCount    int           `json:"selected_count"`
	DroppedCount     int           `json:"dropped_count"`
	SelectedFeatures []Coefficient `json:"selected_features"`
	DroppedFeatures  []string      `json:"dropped_features"`
	Penalty          string        `json:"penalty"`
}

// FeatureSelection builds the selection report from the fitted weights.
func (m *TrainedModel) FeatureSelection() (SelectionReport, error) {
	if m == nil || !m.Fitted {
		return SelectionReport{}, errors.NewNotTrainedError("LogisticRiskModel", "FeatureSelection")
	}

	report := SelectionReport{Penalty: m.Penalty}
	for i, name := range m.FeatureNames {
		w := m.Weights[i]
		if math.Abs(w) > selectionThreshold {
			report.SelectedFeatures = append(report.SelectedFeatures, Coefficient{Feature: name, Coefficient: w})
		} else {
			report.DroppedFeatures = append(report.DroppedFeatures, name)
		}
	}
	sort.SliceStable(report.SelectedFeatures, func(i, j int) bool {
		return math.Abs(report.SelectedFeatures[i].Coefficient) > math.Abs(report.SelectedFeatures[j].Coefficient)
	})
	report.SelectedCount = len(report.SelectedFeatures)
	report.DroppedCount = len(report.DroppedFeatures)
	return report, nil
}
