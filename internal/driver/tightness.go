package driver

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/bigint"
	"github.com/acoac-verify/acoac-checker/internal/boundcalc"
	"github.com/acoac-verify/acoac-checker/internal/slicer"
)

// tightnessPrecision is the k in spec.md §4.6's tightness ratio
// floor(tight * 10^k / loose); chosen to give a stable six-digit
// decimal tightness reading.
const tightnessPrecision = 6

// TightnessRow is one instance file's computed bound tightness, for
// both the printed summary and the optional CSV output (--output/-o).
type TightnessRow struct {
	File    string
	Loose   bigint.Int
	Tight   bigint.Int
	Digits  string // floor(Tight * 10^k / Loose) in decimal, not zero-padded
}

// ComputeTightness implements --compute_tightness/-c: it skips
// verification entirely and computes bound tightness for a single
// instance file, or for every recognized instance file in a
// directory, averaging the ratios the way
// original_source/src/coachecker.c's computeBoundTightnessForFile
// averages across a directory (spec.md §4.6).
func (d *Driver) ComputeTightness(inputPath, outputCSV string, level boundcalc.TightLevel) (TightnessRow, []TightnessRow, error) {
	paths, err := tightnessInputFiles(inputPath)
	if err != nil {
		return TightnessRow{}, nil, err
	}

	var rows []TightnessRow
	var ratios []bigint.Int
	for _, p := range paths {
		in, err := load(p)
		if err != nil {
			d.logger.Warn("skipping unreadable instance", "file", p, "error", err)
			continue
		}
		loose := boundcalc.Compute(in, boundcalc.Loose, nil)
		reach := slicer.ForwardClosure(in, nil)
		byAttr := slicer.ReachableValuesByAttr(in, reach)
		tight := boundcalc.Compute(in, level, byAttr)
		digits := boundcalc.Tightness(tight, loose, tightnessPrecision)

		row := TightnessRow{File: p, Loose: loose, Tight: tight, Digits: digits}
		rows = append(rows, row)

		ratio, perr := bigint.FromDecimalString(digits)
		if perr == nil {
			ratios = append(ratios, ratio)
		}
	}

	avgDigits := boundcalc.AverageTightness(ratios).Decimal()
	summary := TightnessRow{File: inputPath, Digits: avgDigits}

	if outputCSV != "" {
		if err := writeTightnessCSV(outputCSV, rows, summary); err != nil {
			return summary, rows, err
		}
	}

	d.logger.Info("tightness computed", "stage", "tightness", "files", len(rows), "average", avgDigits)
	return summary, rows, nil
}

func tightnessInputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".aabac", ".arbac", ".mohawk":
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func writeTightnessCSV(path string, rows []TightnessRow, summary TightnessRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"file", "loose", "tight", "tightness"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.File, r.Loose.Decimal(), r.Tight.Decimal(), r.Digits}); err != nil {
			return err
		}
	}
	return w.Write([]string{"average", "", "", summary.Digits})
}
