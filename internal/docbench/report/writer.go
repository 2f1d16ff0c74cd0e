package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	CSVFile       = "results.csv"
	MarkdownFile  = "results.md"
	timestampForm = "20060102-150405"
)

// Dir returns the output directory of one run: <resultsDir>/<scenario>-<scale>-c<concurrency>-<yyyyMMdd-HHmmss>.
func Dir(resultsDir string, results *BenchmarkResults, startedAt time.Time) string {
	name := fmt.Sprintf("%s-%s-c%d-%s", results.Scenario, results.Scale, results.Concurrency, startedAt.Format(timestampForm))
	return filepath.Join(resultsDir, name)
}

// Write creates dir and writes results.csv and results.md into it.
func Write(dir string, results *BenchmarkResults) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithMessagef(err, "creating results directory %s", dir)
	}
	if err := writeFile(filepath.Join(dir, CSVFile), func(f *os.File) error { return WriteCSV(f, results) }); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, MarkdownFile), func(f *os.File) error { return WriteMarkdown(f, results) })
}

func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = multierror.Append(err, errors.WithStack(closeErr)).ErrorOrNil()
		}
	}()
	return errors.WithMessagef(write(f), "writing %s", path)
}
