package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"spendwatch/internal/models"
)

// RunResult collects the outputs of one filtering run.
type RunResult struct {
	FilteredFiles []string
	CombinedFile  string
	SummaryPath   string
}

// ProcessAll filters every flagged master file under inputDir, writes a
// run summary JSON next to the outputs, and optionally combines the
// filtered files into one cross-department master. awardType narrows
// discovery to one award type; empty means both. Per-file failures are
// logged and skipped, never fatal to the run.
func (f *Filter) ProcessAll(inputDir, outDir string, minAmount float64, awardType string, combine bool) (RunResult, error) {
	masters, err := FindMasterFiles(inputDir, awardType)
	if err != nil {
		return RunResult{}, fmt.Errorf("discovering master files: %w", err)
	}

	if len(masters) == 0 {
		f.logger.Warn("no flagged master files found", "dir", inputDir, "award_type", awardType)
		return RunResult{}, nil
	}

	f.logger.Info("found master files to filter", "count", len(masters))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("creating output dir: %w", err)
	}

	var (
		result   RunResult
		unparsed int
	)

	for _, path := range masters {
		res, err := f.FilterFile(path, minAmount, outDir)
		if err != nil {
			f.logger.Error("error filtering file", "path", path, "error", err)
			continue
		}

		unparsed += res.UnparsedRows

		if res.OutputPath != "" {
			result.FilteredFiles = append(result.FilteredFiles, res.OutputPath)
		}
	}

	timestamp := time.Now().Format("20060102_150405")

	if combine && len(result.FilteredFiles) > 1 {
		combined, err := f.CombineFiltered(result.FilteredFiles, outDir, timestamp)
		if err != nil {
			f.logger.Error("error combining filtered files", "error", err)
		} else {
			result.CombinedFile = combined
		}
	}

	// No summary for an empty run: the manifest documents produced
	// files, and zero matches produce none.
	if len(result.FilteredFiles) == 0 {
		f.logger.Warn("no files passed filtering, skipping summary",
			"files_processed", len(masters))
		return result, nil
	}

	summary := models.FilterSummary{
		RunID:              uuid.NewString(),
		Timestamp:          timestamp,
		MinimumAmount:      minAmount,
		AwardType:          awardType,
		FilesProcessed:     len(masters),
		FilesWithMatches:   len(result.FilteredFiles),
		UnparsedAmountRows: unparsed,
	}

	if summary.AwardType == "" {
		summary.AwardType = "all"
	}

	for _, path := range result.FilteredFiles {
		summary.FilteredFiles = append(summary.FilteredFiles, filepath.Base(path))
	}

	summaryPath := filepath.Join(outDir, fmt.Sprintf("filtering_summary_%s.json", timestamp))
	if err := writeSummary(summaryPath, summary); err != nil {
		return result, fmt.Errorf("writing summary: %w", err)
	}

	result.SummaryPath = summaryPath

	f.logger.Info("filtering complete",
		"run_id", summary.RunID,
		"files_processed", summary.FilesProcessed,
		"files_with_matches", summary.FilesWithMatches,
		"summary", summaryPath)

	return result, nil
}

func writeSummary(path string, summary models.FilterSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
