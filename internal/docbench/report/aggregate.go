package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const notAvailable = "N/A"

type aggregateKey struct {
	operation string
	metric    string
	store     string
}

// Aggregate merges the results.csv files at inputs into one table written to output. Each row is an
// (operation, metric, store) triple and each input gets a column named after its run directory. Values an
// input does not have are written as N/A.
func Aggregate(output string, inputs []string) (err error) {
	if len(inputs) == 0 {
		return errors.New("no input files to aggregate")
	}
	var keys []aggregateKey
	seen := map[aggregateKey]bool{}
	columns := make([]map[aggregateKey]string, len(inputs))
	for i, input := range inputs {
		values, order, err := readResultsCSV(input)
		if err != nil {
			return err
		}
		columns[i] = values
		for _, key := range order {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = multierror.Append(err, errors.WithStack(closeErr)).ErrorOrNil()
		}
	}()
	return writeAggregate(f, inputs, keys, columns)
}

func writeAggregate(w io.Writer, inputs []string, keys []aggregateKey, columns []map[aggregateKey]string) error {
	writer := csv.NewWriter(w)
	header := []string{"operation", "metric", "store"}
	for _, input := range inputs {
		header = append(header, columnName(input))
	}
	if err := writer.Write(header); err != nil {
		return errors.WithStack(err)
	}
	for _, key := range keys {
		row := []string{key.operation, key.metric, key.store}
		for _, values := range columns {
			value, ok := values[key]
			if !ok {
				value = notAvailable
			}
			row = append(row, value)
		}
		if err := writer.Write(row); err != nil {
			return errors.WithStack(err)
		}
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}

// readResultsCSV reads a file written by WriteCSV. The store columns are taken from its header.
func readResultsCSV(path string) (map[aggregateKey]string, []aggregateKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "reading %s", path)
	}
	if len(records) == 0 || len(records[0]) < 3 || records[0][0] != "operation" || records[0][1] != "metric" {
		return nil, nil, errors.Errorf("%s is not a results file: unexpected header", path)
	}
	stores := records[0][2:]
	values := map[aggregateKey]string{}
	var order []aggregateKey
	for _, record := range records[1:] {
		for i, storeName := range stores {
			key := aggregateKey{operation: record[0], metric: record[1], store: storeName}
			if _, ok := values[key]; !ok {
				order = append(order, key)
			}
			values[key] = record[2+i]
		}
	}
	return values, order, nil
}

// columnName labels an input by its run directory, or by the file name when it has none.
func columnName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return filepath.Base(path)
	}
	return dir
}
