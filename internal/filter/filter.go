// Package filter re-filters flagged master files by minimum award amount
// and a narrower keyword set, producing the final sorted outputs the
// downstream analyzer consumes.
package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spendwatch/internal/keyword"
	"spendwatch/internal/logger"
	"spendwatch/internal/table"
)

// Amount column candidates, tried in order.
var amountColumns = []string{
	"current_total_value_of_award",
	"total_dollars_obligated",
	"total_obligated_amount",
}

// Description column candidates, tried in order.
var descColumns = []string{
	"prime_award_base_transaction_description",
	"description",
	"award_description",
	"prime_award_project_description",
}

// Award identifier candidates, tried in order.
var idColumns = []string{"award_id_piid", "award_id_fain"}

// Filter applies the amount and refined-keyword pass.
type Filter struct {
	pattern *keyword.Pattern
	logger  *logger.Logger
}

// New creates a Filter using the refined keyword pattern.
func New(pattern *keyword.Pattern, log *logger.Logger) *Filter {
	return &Filter{pattern: pattern, logger: log}
}

// Result describes one FilterFile outcome.
type Result struct {
	OutputPath   string
	Rows         int
	UnparsedRows int
}

// FilterFile filters one master CSV by minimum amount and keywords,
// dedupes by award id keeping the highest-value record, and writes the
// rows sorted descending by amount. Returns a zero OutputPath when no
// rows survive; no empty files are written. Rows whose amount cannot be
// coerced to a number never pass the minimum-amount comparison; they are
// counted in Result.UnparsedRows for the run summary.
func (f *Filter) FilterFile(path string, minAmount float64, outDir string) (Result, error) {
	filename := filepath.Base(path)
	f.logger.Info("processing file", "file", filename)

	tbl, err := table.ReadCSV(path)
	if err != nil {
		return Result{}, err
	}

	if len(tbl.Rows) == 0 {
		f.logger.Warn("empty file", "file", filename)
		return Result{}, nil
	}

	_, amountIdx, ok := tbl.FirstColumn(amountColumns...)
	if !ok {
		f.logger.Warn("no amount column found", "file", filename)
		return Result{}, nil
	}

	unparsed := 0
	amountFiltered := tbl.Filter(func(row []string) bool {
		v, ok := table.ParseAmount(row[amountIdx])
		if !ok {
			unparsed++
			return false
		}

		return v >= minAmount
	})

	if len(amountFiltered.Rows) == 0 {
		f.logger.Info("no awards above threshold", "file", filename, "min_amount", minAmount)
		return Result{UnparsedRows: unparsed}, nil
	}

	f.logger.Info("filtered by amount",
		"file", filename, "before", len(tbl.Rows), "after", len(amountFiltered.Rows))

	_, descIdx, ok := amountFiltered.FirstColumn(descColumns...)
	if !ok {
		f.logger.Warn("no description column found", "file", filename)
		return Result{UnparsedRows: unparsed}, nil
	}

	keywordFiltered := amountFiltered.Filter(func(row []string) bool {
		return f.pattern.Match(row[descIdx])
	})

	if len(keywordFiltered.Rows) == 0 {
		f.logger.Info("no matching keywords after amount filtering", "file", filename)
		return Result{UnparsedRows: unparsed}, nil
	}

	f.logger.Info("filtered by keywords",
		"file", filename, "before", len(amountFiltered.Rows), "after", len(keywordFiltered.Rows))

	final := dedupeAndSort(keywordFiltered, amountIdx, f.logger)

	outputPath := filepath.Join(outDir, "filtered_"+filename)
	if err := final.WriteCSV(outputPath); err != nil {
		return Result{}, err
	}

	f.logger.Info("saved filtered rows", "rows", len(final.Rows), "path", outputPath)

	return Result{OutputPath: outputPath, Rows: len(final.Rows), UnparsedRows: unparsed}, nil
}

// dedupeAndSort sorts rows descending by amount (stable, so equal
// amounts keep their original relative order) and keeps the first row
// per award id: the max-amount record wins, ties broken by first seen.
// Tables with no recognizable id column are sorted but not deduplicated.
func dedupeAndSort(t *table.Table, amountIdx int, log *logger.Logger) *table.Table {
	sorted := table.New(t.Columns)
	sorted.Rows = make([][]string, len(t.Rows))
	copy(sorted.Rows, t.Rows)

	sort.SliceStable(sorted.Rows, func(i, j int) bool {
		a, aok := table.ParseAmount(sorted.Rows[i][amountIdx])
		b, bok := table.ParseAmount(sorted.Rows[j][amountIdx])

		if aok != bok {
			return aok
		}

		return a > b
	})

	_, idIdx, ok := sorted.FirstColumn(idColumns...)
	if !ok {
		log.Warn("no id column found, unable to check for duplicates")
		return sorted
	}

	seen := make(map[string]bool, len(sorted.Rows))
	out := table.New(sorted.Columns)

	for _, row := range sorted.Rows {
		id := row[idIdx]
		if seen[id] {
			continue
		}

		seen[id] = true

		out.Rows = append(out.Rows, row)
	}

	if removed := len(sorted.Rows) - len(out.Rows); removed > 0 {
		log.Info("removed duplicate ids, keeping highest value awards", "removed", removed)
	}

	return out
}

// CombineFiltered concatenates filtered files into one timestamped
// cross-department master, applying the same dedup and sort policy at
// the combined level. Inputs must share a schema; a mismatch fails the
// combine call (logged by the caller, never fatal to the run).
func (f *Filter) CombineFiltered(paths []string, outDir, timestamp string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}

	tables := make([]*table.Table, 0, len(paths))

	for _, path := range paths {
		tbl, err := table.ReadCSV(path)
		if err != nil {
			f.logger.Error("error reading filtered file", "path", path, "error", err)
			continue
		}

		tables = append(tables, tbl)
	}

	if len(tables) == 0 {
		return "", nil
	}

	combined, err := table.Concat(tables)
	if err != nil {
		return "", err
	}

	_, amountIdx, ok := combined.FirstColumn(amountColumns...)
	if !ok {
		f.logger.Warn("no amount column found in combined data")
		return "", nil
	}

	final := dedupeAndSort(combined, amountIdx, f.logger)

	outputPath := filepath.Join(outDir, fmt.Sprintf("all_filtered_contracts_%s.csv", timestamp))
	if err := final.WriteCSV(outputPath); err != nil {
		return "", err
	}

	f.logger.Info("combined filtered files",
		"rows", len(final.Rows), "files", len(tables), "path", outputPath)

	return outputPath, nil
}

// FindMasterFiles discovers flagged master CSVs under inputDir,
// optionally narrowed to one award type by filename substring.
func FindMasterFiles(inputDir, awardType string) ([]string, error) {
	var out []string

	err := filepath.WalkDir(inputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if filepath.Ext(name) != ".csv" || !strings.Contains(name, "flagged_master") {
			return nil
		}

		if awardType != "" && !strings.Contains(name, awardType) {
			return nil
		}

		out = append(out, path)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
