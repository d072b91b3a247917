// Package report renders training run artifacts: the JSON training report
// and the evaluation charts (ROC curve, model comparison, coefficient
// weights).
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/p2plend/riskengine/pipeline"
	"github.com/p2plend/riskengine/pkg/errors"
)

// WriteJSON writes the training report to path as indented JSON. The file
// is written to a temp sibling and renamed so a crash never leaves a
// truncated report behind.
func WriteJSON(r pipeline.TrainingReport, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "report: marshal training report")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "report: create report directory")
	}
	tmp, err := os.CreateTemp(dir, "report-*.json")
	if err != nil {
		return errors.Wrap(err, "report: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "report: write report")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "report: close temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "report: rename report")
}
