package data

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

// datasetFile is the on-disk layout:
//
//	type_names: [H, O]
//	frames:
//	  - atom_types: [0, 0, 1]
//	    total_energy: -14.2
//	    forces: [[0.1, 0, 0], [-0.1, 0, 0], [0, 0, 0]]
//
// Scalars become graph fields; sequences with one entry (or one row) per
// atom become node fields.
type datasetFile struct {
	TypeNames []string                 `yaml:"type_names"`
	NumTypes  int                      `yaml:"num_types"`
	Frames    []map[string]interface{} `yaml:"frames"`
}

// Load reads a YAML or JSON dataset file.
func Load(path string) (*InMemoryDataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", path)
	}
	ds, err := Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "loading dataset %s", path)
	}
	return ds, nil
}

// Parse decodes a dataset document.
func Parse(raw []byte) (*InMemoryDataset, error) {
	var file datasetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "parsing dataset")
	}
	numTypes := file.NumTypes
	if numTypes == 0 {
		numTypes = len(file.TypeNames)
	}

	frames := make([]Frame, len(file.Frames))
	for i, m := range file.Frames {
		f, err := decodeFrame(i, m)
		if err != nil {
			return nil, err
		}
		frames[i] = f
	}
	return NewInMemoryDataset(frames, numTypes, file.TypeNames)
}

func decodeFrame(index int, m map[string]interface{}) (Frame, error) {
	f := Frame{Graph: map[string]float64{}, Node: map[string]*mat.Dense{}}

	rawTypes, ok := m[AtomTypeKey].([]interface{})
	if !ok {
		return f, errors.NewValidationError(fmt.Sprintf("frames[%d].%s", index, AtomTypeKey), "missing or not a sequence", m[AtomTypeKey])
	}
	f.AtomTypes = make([]int, len(rawTypes))
	for j, v := range rawTypes {
		t, ok := v.(int)
		if !ok {
			return f, errors.NewValidationError(fmt.Sprintf("frames[%d].%s[%d]", index, AtomTypeKey, j), "expected an integer", v)
		}
		f.AtomTypes[j] = t
	}

	for key, v := range m {
		if key == AtomTypeKey {
			continue
		}
		name := fmt.Sprintf("frames[%d].%s", index, key)
		switch val := v.(type) {
		case int:
			f.Graph[key] = float64(val)
		case float64:
			f.Graph[key] = val
		case []interface{}:
			rows, err := decodeRows(name, val)
			if err != nil {
				return f, err
			}
			f.Node[key] = rows
		default:
			return f, errors.NewValidationError(name, "expected a number or a sequence", v)
		}
	}
	return f, nil
}

// decodeRows turns [1, 2, 3] into a 3x1 matrix and [[1, 2], [3, 4]] into 2x2.
func decodeRows(name string, seq []interface{}) (*mat.Dense, error) {
	if len(seq) == 0 {
		return nil, errors.NewValidationError(name, "empty sequence", seq)
	}
	if _, nested := seq[0].([]interface{}); !nested {
		data := make([]float64, len(seq))
		for i, v := range seq {
			x, err := toFloat(name, v)
			if err != nil {
				return nil, err
			}
			data[i] = x
		}
		return mat.NewDense(len(seq), 1, data), nil
	}

	cols := len(seq[0].([]interface{}))
	if cols == 0 {
		return nil, errors.NewValidationError(name, "empty row", seq[0])
	}
	data := make([]float64, 0, len(seq)*cols)
	for i, r := range seq {
		row, ok := r.([]interface{})
		if !ok || len(row) != cols {
			return nil, errors.NewValidationError(fmt.Sprintf("%s[%d]", name, i), fmt.Sprintf("expected a row of %d numbers", cols), r)
		}
		for _, v := range row {
			x, err := toFloat(name, v)
			if err != nil {
				return nil, err
			}
			data = append(data, x)
		}
	}
	return mat.NewDense(len(seq), cols, data), nil
}

func toFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, errors.NewValidationError(name, "expected a number", v)
	}
}
