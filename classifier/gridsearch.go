package classifier

import (
	"gonum.org/v1/gonum/mat"

	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/metrics"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/pkg/parallel"
)

// GridSearch is the enhanced variant's hyperparameter search: every
// (C, penalty) combination is scored by stratified k-fold cross-validated
// F1 and the best combination refits on the full training set.
type GridSearch struct {
	Cs        []float64
	Penalties []string
	Folds     int
	Seed      uint64

	// MaxCombinations bounds the search; 0 means no bound. Combinations
	// beyond the bound are skipped in declaration order.
	MaxCombinations int

	// Parallel enables concurrent scoring of combinations. Selection is
	// unaffected: results land in a fixed slot per combination and the
	// argmax scans in declaration order.
	Parallel bool
}

// DefaultGridSearch mirrors the tuned search space of the enhanced model.
func DefaultGridSearch() GridSearch {
	return GridSearch{
		Cs:        []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		Penalties: []string{"l1", "l2"},
		Folds:     5,
		Seed:      42,
		Parallel:  true,
	}
}

// Combination is one scored grid point.
type Combination struct {
	C       float64 `json:"C"`
	Penalty string  `json:"penalty"`
	MeanF1  float64 `json:"mean_f1"`
}

// SearchResult reports the winning parameters and every scored point.
type SearchResult struct {
	BestC       float64       `json:"best_C"`
	BestPenalty string        `json:"best_penalty"`
	BestF1      float64       `json:"best_f1"`
	Combos      []Combination `json:"combinations"`
}

// Run scores the grid over the labeled dataset and returns the result.
// The dataset must already carry any engineered columns.
func (g GridSearch) Run(ds *dataset.Dataset, base TrainConfig) (SearchResult, error) {
	if len(g.Cs) == 0 || len(g.Penalties) == 0 {
		return SearchResult{}, errors.NewValueError("GridSearch.Run", "empty parameter grid")
	}

	labeled := ds.Labeled()
	folds, err := labeled.StratifiedFolds(g.Folds, g.Seed)
	if err != nil {
		return SearchResult{}, err
	}

	type comboSpec struct {
		c       float64
		penalty string
	}
	var specs []comboSpec
	for _, c := range g.Cs {
		for _, penalty := range g.Penalties {
			specs = append(specs, comboSpec{c: c, penalty: penalty})
		}
	}
	if g.MaxCombinations > 0 && len(specs) > g.MaxCombinations {
		specs = specs[:g.MaxCombinations]
	}

	results := make([]Combination, len(specs))
	errs := make([]error, len(specs))

	score := func(start, end int) {
		for idx := start; idx < end; idx++ {
			spec := specs[idx]
			cfg := base
			cfg.C = spec.c
			cfg.Penalty = spec.penalty

			var sum float64
			folded := 0
			for _, fold := range folds {
				train := labeled.Subset(fold.TrainIndices)
				test := labeled.Subset(fold.TestIndices)

				m, err := Train(train, cfg)
				if err != nil {
					errs[idx] = err
					return
				}
				_, predLabels, err := m.PredictDataset(test)
				if err != nil {
					errs[idx] = err
					return
				}
				y, err := test.Labels()
				if err != nil {
					errs[idx] = err
					return
				}
				f1, err := metrics.F1(y, mat.NewVecDense(len(predLabels), predLabels))
				if err != nil {
					errs[idx] = err
					return
				}
				sum += f1
				folded++
			}
			results[idx] = Combination{C: spec.c, Penalty: spec.penalty, MeanF1: sum / float64(folded)}
		}
	}

	if g.Parallel {
		parallel.ParallelizeWithThreshold(len(specs), 1, score)
	} else {
		score(0, len(specs))
	}

	for _, err := range errs {
		if err != nil {
			return SearchResult{}, err
		}
	}

	// First best wins: scanning in declaration order keeps selection
	// identical between sequential and parallel runs.
	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].MeanF1 > results[best].MeanF1 {
			best = i
		}
	}

	return SearchResult{
		BestC:       results[best].C,
		BestPenalty: results[best].Penalty,
		BestF1:      results[best].MeanF1,
		Combos:      results,
	}, nil
}
