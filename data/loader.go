package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/snow-ghost/symreg/core"
)

// Columns selects which CSV header columns feed the dataset. When Features
// is empty every column other than Target and Weight is a feature, in file
// order.
type Columns struct {
	Target   string
	Weight   string
	Features []string
}

// LoadCSVFile reads a headered CSV file into a dataset.
func LoadCSVFile(path string, cols Columns) (*core.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	return LoadCSV(bufio.NewReader(file), cols)
}

// LoadCSV reads headered CSV rows into a dataset. Every selected cell must
// parse as a float.
func LoadCSV(r io.Reader, cols Columns) (*core.Dataset, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		position[name] = i
	}
	target, ok := position[cols.Target]
	if !ok {
		return nil, fmt.Errorf("target column %q not found", cols.Target)
	}
	weight := -1
	if cols.Weight != "" {
		if weight, ok = position[cols.Weight]; !ok {
			return nil, fmt.Errorf("weight column %q not found", cols.Weight)
		}
	}

	var features []int
	if len(cols.Features) == 0 {
		for i := range header {
			if i != target && i != weight {
				features = append(features, i)
			}
		}
	} else {
		for _, name := range cols.Features {
			i, ok := position[name]
			if !ok {
				return nil, fmt.Errorf("feature column %q not found", name)
			}
			features = append(features, i)
		}
	}

	X := make([][]float64, len(features))
	var y, w []float64
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		v, err := parseCell(rec, target, line)
		if err != nil {
			return nil, err
		}
		y = append(y, v)

		if weight >= 0 {
			v, err := parseCell(rec, weight, line)
			if err != nil {
				return nil, err
			}
			w = append(w, v)
		}

		for f, col := range features {
			v, err := parseCell(rec, col, line)
			if err != nil {
				return nil, err
			}
			X[f] = append(X[f], v)
		}
	}

	return core.NewDataset(X, y, w)
}

func parseCell(rec []string, col, line int) (float64, error) {
	v, err := strconv.ParseFloat(rec[col], 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %d: %w", line, col+1, err)
	}
	return v, nil
}
