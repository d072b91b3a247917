package classifier

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/p2plend/riskengine/features"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/schema"
)

// ServingSchema is the full set of feature names a persisted model may
// legally reference: the canonical base schema plus the engineered
// columns.
func ServingSchema() []string {
	return append(append([]string(nil), schema.BaseFeatures...), features.DerivedNames()...)
}

// Save persists the model as a single gob artifact: weights, the
// standardization transform, the ordered feature list and the recorded
// metrics travel together so they can never drift apart. The write is
// atomic (temp file + rename).
func (m *TrainedModel) Save(path string) error {
	if m == nil || !m.Fitted {
		return errors.NewNotTrainedError("LogisticRiskModel", "Save")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.gob")
	if err != nil {
		return errors.Wrap(err, "classifier: create temp artifact")
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(m); err != nil {
		tmp.Close()
		return errors.Wrap(err, "classifier: encode model")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "classifier: close temp artifact")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "classifier: rename artifact")
}

// Load reads a persisted model and fail-fast validates its stored feature
// list against the serving schema. A reloaded model reproduces the exact
// predictions of the one that was saved.
func Load(path string) (*TrainedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "classifier: open artifact")
	}
	defer f.Close()
	return LoadFrom(f)
}

// LoadFrom reads a model artifact from r.
func LoadFrom(r io.Reader) (*TrainedModel, error) {
	var m TrainedModel
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "classifier: decode model")
	}
	if err := m.ValidateSchema(ServingSchema()); err != nil {
		return nil, err
	}
	return &m, nil
}
