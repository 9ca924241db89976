package transform

import (
	"errors"
	"fmt"
	"sort"

	"spendwatch/internal/models"
	"spendwatch/internal/table"
)

// Combine-time errors.
var (
	ErrNoInputFiles     = errors.New("no input files to combine")
	ErrMissingAggColumn = errors.New("aggregation column missing from combined table")
)

// aggKind is how one output column is collapsed within an award-id group.
type aggKind int

const (
	aggFirst aggKind = iota // first non-empty value, input order
	aggLast                 // last non-empty value
	aggMaxAmount            // numeric maximum; unparseable cells ignored
	aggMaxDate              // chronological maximum; unparseable ignored
)

// aggRule binds an output column to its collapse rule. The rules are a
// fixed table per award type, mirroring how award records are amended
// over time: a later snapshot carries a larger value column, so max wins
// on amounts and end dates regardless of row order.
type aggRule struct {
	column string
	kind   aggKind
}

func aggRules(awardType models.AwardType) []aggRule {
	if awardType == models.AwardTypeGrant {
		return []aggRule{
			{"total_obligated_amount", aggMaxAmount},
			{"prime_award_base_transaction_description", aggFirst},
			{"recipient_name", aggFirst},
			{"awarding_agency_name", aggFirst},
			{"period_of_performance_current_end_date", aggMaxDate},
		}
	}

	return []aggRule{
		{"current_total_value_of_award", aggMaxAmount},
		{"prime_award_base_transaction_description", aggFirst},
		{"action_type_code", aggLast},
		{"recipient_name", aggFirst},
		{"awarding_agency_name", aggFirst},
		{"period_of_performance_current_end_date", aggMaxDate},
	}
}

// Combine concatenates flagged per-file tables, groups rows by the award
// identifier and collapses each group to a single row. Exactly one output
// row exists per unique award id. A schema mismatch between inputs fails
// the whole combine call.
func (p *Processor) Combine(paths []string, outputPath string, awardType models.AwardType) error {
	if len(paths) == 0 {
		return ErrNoInputFiles
	}

	tables := make([]*table.Table, 0, len(paths))

	for _, path := range paths {
		tbl, err := table.ReadCSV(path)
		if err != nil {
			return err
		}

		tables = append(tables, tbl)
	}

	p.logger.Info("joining flagged files", "count", len(tables))

	combined, err := table.Concat(tables)
	if err != nil {
		return err
	}

	master, err := dedupeByID(combined, awardType)
	if err != nil {
		return err
	}

	p.logger.Info("deduped rows", "rows", len(master.Rows))

	if err := master.WriteCSV(outputPath); err != nil {
		return err
	}

	p.logger.Info("master file saved", "path", outputPath)

	return nil
}

func dedupeByID(t *table.Table, awardType models.AwardType) (*table.Table, error) {
	_, idIdx, ok := t.FirstColumn(awardType.IDColumn(), "prime_award_fain")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAggColumn, awardType.IDColumn())
	}

	rules := aggRules(awardType)
	ruleIdx := make([]int, len(rules))

	for i, rule := range rules {
		idx := t.ColumnIndex(rule.column)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingAggColumn, rule.column)
		}

		ruleIdx[i] = idx
	}

	groups := make(map[string][][]string)

	var ids []string

	for _, row := range t.Rows {
		id := row[idIdx]
		if _, seen := groups[id]; !seen {
			ids = append(ids, id)
		}

		groups[id] = append(groups[id], row)
	}

	// Output sorted by award id, matching the grouped-aggregation order
	// downstream consumers already expect.
	sort.Strings(ids)

	outColumns := make([]string, 0, len(rules)+1)
	outColumns = append(outColumns, t.Columns[idIdx])

	for _, rule := range rules {
		outColumns = append(outColumns, rule.column)
	}

	out := table.New(outColumns)

	for _, id := range ids {
		row := make([]string, 0, len(outColumns))
		row = append(row, id)

		for i, rule := range rules {
			row = append(row, collapse(groups[id], ruleIdx[i], rule.kind))
		}

		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

func collapse(rows [][]string, col int, kind aggKind) string {
	switch kind {
	case aggFirst:
		for _, row := range rows {
			if row[col] != "" {
				return row[col]
			}
		}

		return ""
	case aggLast:
		for i := len(rows) - 1; i >= 0; i-- {
			if rows[i][col] != "" {
				return rows[i][col]
			}
		}

		return ""
	case aggMaxAmount:
		best := ""
		bestVal := 0.0
		found := false

		for _, row := range rows {
			if v, ok := table.ParseAmount(row[col]); ok && (!found || v > bestVal) {
				best = row[col]
				bestVal = v
				found = true
			}
		}

		return best
	case aggMaxDate:
		best := ""

		var bestTime int64

		found := false

		for _, row := range rows {
			if d, ok := table.ParseDate(row[col]); ok && (!found || d.Unix() > bestTime) {
				best = row[col]
				bestTime = d.Unix()
				found = true
			}
		}

		return best
	}

	return ""
}
