package analyzer

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"spendwatch/internal/logger"
	"spendwatch/internal/table"
)

// Analyzer runs one analysis kind against award CSVs through a Provider.
type Analyzer struct {
	provider Provider
	logger   *logger.Logger
}

// New creates an Analyzer.
func New(provider Provider, log *logger.Logger) *Analyzer {
	return &Analyzer{provider: provider, logger: log}
}

// AnalyzeCSV loads a filtered award CSV, truncates it to maxRows
// (0 means all rows), embeds it in the prompt for the given kind and
// returns the parsed target list.
func (a *Analyzer) AnalyzeCSV(ctx context.Context, path string, kind Kind, maxRows int) (*TargetList, error) {
	prompt, err := PromptFor(kind)
	if err != nil {
		return nil, err
	}

	tbl, err := table.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	a.logger.Info("loaded csv for analysis",
		"path", path, "rows", len(tbl.Rows), "columns", len(tbl.Columns))

	if maxRows > 0 && maxRows < len(tbl.Rows) {
		tbl.Rows = tbl.Rows[:maxRows]
		a.logger.Info("limited rows for prompt", "max_rows", maxRows)
	}

	data, err := renderCSV(tbl)
	if err != nil {
		return nil, fmt.Errorf("rendering csv data: %w", err)
	}

	full := fmt.Sprintf("%s\n\nHere is the CSV data:\n\n%s", prompt, data)

	a.logger.Info("sending analysis request", "kind", string(kind))

	response, err := a.provider.Send(ctx, SystemMessage, full)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	list := ParseTargets(response)
	if list.Raw != "" {
		a.logger.Warn("response was not valid JSON, keeping raw text")
	} else {
		a.logger.Info("parsed analysis targets", "count", len(list.Targets))
	}

	return list, nil
}

func renderCSV(t *table.Table) (string, error) {
	var sb strings.Builder

	w := csv.NewWriter(&sb)
	if err := w.Write(t.Columns); err != nil {
		return "", err
	}

	if err := w.WriteAll(t.Rows); err != nil {
		return "", err
	}

	w.Flush()

	return sb.String(), w.Error()
}
