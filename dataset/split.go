package dataset

import (
	"math/rand/v2"

	"github.com/p2plend/riskengine/pkg/errors"
)

// StratifiedSplit partitions a labeled dataset into train and test subsets,
// keeping the class proportions of the whole set in both. Shuffling is
// driven by a PCG stream seeded from seed, so the split is deterministic.
func (d *Dataset) StratifiedSplit(testFraction float64, seed uint64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.NewValueError("Dataset.StratifiedSplit", "testFraction must be in (0, 1)")
	}
	if d.Len() == 0 {
		return nil, nil, errors.NewInsufficientDataError("Dataset.StratifiedSplit", 0, 0, "empty dataset")
	}

	neg, pos := d.ClassCounts()
	if neg == 0 || pos == 0 {
		classes := 0
		if neg+pos > 0 {
			classes = 1
		}
		return nil, nil, errors.NewInsufficientDataError("Dataset.StratifiedSplit", d.Len(), classes,
			"both classes must be present for a stratified split")
	}

	// Group indices by class, shuffle within each class, then carve the
	// test fraction off every class independently.
	byClass := map[int][]int{}
	for i, s := range d.Samples {
		if !s.Labeled {
			return nil, nil, errors.NewValueError("Dataset.StratifiedSplit", "dataset contains unlabeled samples")
		}
		byClass[s.Label] = append(byClass[s.Label], i)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	var trainIdx, testIdx []int
	for _, label := range []int{0, 1} {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testFraction)
		if nTest == 0 {
			nTest = 1
		}
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}

	return d.Subset(trainIdx), d.Subset(testIdx), nil
}

// StratifiedKFold yields k folds with near-equal class balance, as used by
// the cross-validated hyperparameter search. Deterministic given seed.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedFolds builds k stratified folds over the labeled dataset.
func (d *Dataset) StratifiedFolds(k int, seed uint64) ([]CVFold, error) {
	if k < 2 {
		return nil, errors.NewValueError("Dataset.StratifiedFolds", "k must be at least 2")
	}
	neg, pos := d.ClassCounts()
	if neg == 0 || pos == 0 {
		return nil, errors.NewInsufficientDataError("Dataset.StratifiedFolds", d.Len(), 1,
			"both classes must be present for stratified folds")
	}
	if neg < k || pos < k {
		return nil, errors.NewInsufficientDataError("Dataset.StratifiedFolds", d.Len(), 2,
			"every class needs at least k samples")
	}

	byClass := map[int][]int{}
	for i, s := range d.Samples {
		byClass[s.Label] = append(byClass[s.Label], i)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	testSets := make([][]int, k)
	for _, label := range []int{0, 1} {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		// Round-robin distribution keeps fold sizes within one sample.
		for i, idx := range indices {
			fold := i % k
			testSets[fold] = append(testSets[fold], idx)
		}
	}

	folds := make([]CVFold, k)
	for f := 0; f < k; f++ {
		inTest := make(map[int]bool, len(testSets[f]))
		for _, idx := range testSets[f] {
			inTest[idx] = true
		}
		var trainIdx []int
		for i := range d.Samples {
			if !inTest[i] {
				trainIdx = append(trainIdx, i)
			}
		}
		folds[f] = CVFold{TrainIndices: trainIdx, TestIndices: testSets[f]}
	}
	return folds, nil
}
