package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/schema"
)

// SaveCSV writes the dataset as a row-oriented CSV file: the feature
// columns in order, then "default" and "default_probability". Unlabeled
// rows get an empty label cell so outcomes recorded later round-trip.
func (d *Dataset) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "dataset: create csv")
	}
	defer f.Close()

	if err := d.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV streams the dataset to w in the SaveCSV layout.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(d.FeatureNames)+2)
	header = append(header, d.FeatureNames...)
	header = append(header, schema.Target, schema.GeneratingProbability)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "dataset: write csv header")
	}

	row := make([]string, len(header))
	for _, s := range d.Samples {
		for j, name := range d.FeatureNames {
			row[j] = strconv.FormatFloat(s.Features[name], 'g', -1, 64)
		}
		if s.Labeled {
			row[len(d.FeatureNames)] = strconv.Itoa(s.Label)
		} else {
			row[len(d.FeatureNames)] = ""
		}
		row[len(d.FeatureNames)+1] = strconv.FormatFloat(s.GenProb, 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "dataset: write csv row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "dataset: flush csv")
}

// LoadCSV reads a dataset previously written by SaveCSV. Every column other
// than "default" and "default_probability" is taken as a feature column, in
// file order.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open csv")
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a dataset from r in the SaveCSV layout.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read csv header")
	}

	labelCol, probCol := -1, -1
	var names []string
	colIndex := make([]int, 0, len(header))
	for i, col := range header {
		switch col {
		case schema.Target:
			labelCol = i
		case schema.GeneratingProbability:
			probCol = i
		default:
			names = append(names, col)
			colIndex = append(colIndex, i)
		}
	}

	ds := New(names)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "dataset: read csv row")
		}

		s := Sample{Features: make(schema.FeatureVector, len(names))}
		for j, idx := range colIndex {
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "dataset: parse column %q", names[j])
			}
			s.Features[names[j]] = v
		}
		if labelCol >= 0 && record[labelCol] != "" {
			label, err := strconv.ParseFloat(record[labelCol], 64)
			if err != nil {
				return nil, errors.Wrap(err, "dataset: parse label")
			}
			s.Label = int(label)
			s.Labeled = true
		}
		if probCol >= 0 && record[probCol] != "" {
			if p, err := strconv.ParseFloat(record[probCol], 64); err == nil {
				s.GenProb = p
			}
		}
		ds.Append(s)
	}
	return ds, nil
}
