// Package transform turns raw award archives into flagged, deduplicated
// department master files.
package transform

import (
	"fmt"
	"path/filepath"
	"time"

	"spendwatch/internal/keyword"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/internal/table"
)

// Date column candidates, tried in order.
var dateColumns = []string{
	"period_of_performance_current_end_date",
	"period_of_performance_end_date",
}

// Description column candidates, tried in order.
var descColumns = []string{
	"prime_award_base_transaction_description",
	"description",
	"award_description",
	"prime_award_project_description",
}

// Processor runs the flagging and combining stages for one keyword set.
type Processor struct {
	pattern *keyword.Pattern
	logger  *logger.Logger
}

// NewProcessor creates a Processor using the given keyword pattern.
func NewProcessor(pattern *keyword.Pattern, log *logger.Logger) *Processor {
	return &Processor{pattern: pattern, logger: log}
}

// ProcessCSV loads one tabular file, keeps the currently-active rows
// (performance end date strictly after cutoff), subsets to the
// award-type columns that are present, and writes the keyword-matched
// rows to a flagged file. Returns the output path, or "" when nothing
// matched; an empty result is not an error and produces no file.
func (p *Processor) ProcessCSV(path string, cutoff time.Time, awardType models.AwardType, acronym, outDir string) (string, error) {
	csvFile := filepath.Base(path)
	p.logger.Info("processing file", "file", csvFile)

	tbl, err := table.ReadCSV(path)
	if err != nil {
		return "", err
	}

	_, dateIdx, ok := tbl.FirstColumn(dateColumns...)
	if !ok {
		p.logger.Warn("no performance end date column found", "file", csvFile)
		return "", nil
	}

	// Rows with unparseable or missing dates are treated as not
	// currently live, not as errors.
	active := tbl.Filter(func(row []string) bool {
		end, ok := table.ParseDate(row[dateIdx])
		return ok && end.After(cutoff)
	})

	if len(active.Rows) == 0 {
		p.logger.Info("no active rows found", "file", csvFile)
		return "", nil
	}

	normalizeDates(active, dateIdx)

	// Resolve the description column before subsetting so a fallback
	// name survives into the retained column set.
	descCol, _, ok := active.FirstColumn(descColumns...)
	if !ok {
		p.logger.Warn("no description column found", "file", csvFile)
		return "", nil
	}

	columns := awardType.ColumnsToKeep()
	if !contains(columns, descCol) {
		columns = append(columns, descCol)
	}

	subset, missing, err := active.Select(columns)
	if err != nil {
		p.logger.Warn("no expected columns present", "file", csvFile, "missing", missing)
		return "", nil
	}

	if len(missing) > 0 {
		p.logger.Warn("missing columns in CSV", "file", csvFile, "missing", missing)
	}

	p.logger.Info("active rows selected",
		"file", csvFile, "total_rows", len(tbl.Rows), "active_rows", len(subset.Rows))

	descIdx := subset.ColumnIndex(descCol)

	flagged := subset.Filter(func(row []string) bool {
		return p.pattern.Match(row[descIdx])
	})

	if len(flagged.Rows) == 0 {
		p.logger.Info("no flagged rows found", "file", csvFile)
		return "", nil
	}

	flaggedPath := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s_flagged.csv", acronym, awardType, csvFile))
	if err := flagged.WriteCSV(flaggedPath); err != nil {
		return "", err
	}

	p.logger.Info("saved flagged rows", "rows", len(flagged.Rows), "path", flaggedPath)

	return flaggedPath, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

// normalizeDates rewrites parseable end-date cells as YYYY-MM-DD so that
// downstream chronological comparisons work on the stored strings.
func normalizeDates(t *table.Table, dateIdx int) {
	for _, row := range t.Rows {
		if d, ok := table.ParseDate(row[dateIdx]); ok {
			row[dateIdx] = d.Format("2006-01-02")
		}
	}
}
