// Package orchestrator sequences the download and transform stages over
// every requested department and award type and records the run outcome.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendwatch/internal/config"
	"spendwatch/internal/datespan"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/internal/transform"
	"spendwatch/internal/usaspending"
)

const rangeMonths = 3

var ErrConflictingModes = errors.New("skip-download and process-existing are mutually exclusive")

// Options selects what a run covers. Empty Departments or AwardTypes
// mean all of them.
type Options struct {
	Departments     []string
	AwardTypes      []models.AwardType
	Start           time.Time
	End             time.Time
	OutputDir       string
	SkipDownload    bool
	ProcessExisting bool
}

// Outcome is what a run produced.
type Outcome struct {
	Results     map[string]map[string]string
	Archives    []models.ArchiveRecord
	SummaryPath string
}

// Produced reports whether anything useful came out of the run.
func (o Outcome) Produced() bool {
	for _, byType := range o.Results {
		if len(byType) > 0 {
			return true
		}
	}

	return len(o.Archives) > 0
}

// Orchestrator drives full processing runs.
type Orchestrator struct {
	cfg        *config.Config
	downloader *usaspending.Downloader
	processor  *transform.Processor
	logger     *logger.Logger
	sleep      func(time.Duration)
}

// New wires an Orchestrator. downloader may be nil when every run will
// use SkipDownload or ProcessExisting.
func New(cfg *config.Config, downloader *usaspending.Downloader, processor *transform.Processor, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		downloader: downloader,
		processor:  processor,
		logger:     log,
		sleep:      time.Sleep,
	}
}

// Run executes one full pass and writes the processing summary JSON to
// the output directory. Per-combination failures are logged and skipped;
// the run only errors on invalid options or an unwritable summary.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Outcome, error) {
	if opts.SkipDownload && opts.ProcessExisting {
		return Outcome{}, ErrConflictingModes
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = o.cfg.Dirs.Processed
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("creating output dir: %w", err)
	}

	outcome := Outcome{Results: make(map[string]map[string]string)}

	var err error
	if opts.ProcessExisting {
		err = o.processExisting(ctx, outDir, &outcome)
	} else {
		err = o.processSelected(ctx, opts, outDir, &outcome)
	}

	if err != nil {
		return Outcome{}, err
	}

	summary := models.RunSummary{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().Format("20060102_150405"),
		Results:   outcome.Results,
		Archives:  outcome.Archives,
	}

	summaryPath := filepath.Join(outDir, fmt.Sprintf("processing_summary_%s.json", summary.Timestamp))

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Outcome{}, fmt.Errorf("encoding summary: %w", err)
	}

	if err := os.WriteFile(summaryPath, data, 0o644); err != nil {
		return Outcome{}, fmt.Errorf("writing summary: %w", err)
	}

	outcome.SummaryPath = summaryPath

	o.logger.Info("processing complete", "run_id", summary.RunID, "summary", summaryPath)

	return outcome, nil
}

func (o *Orchestrator) processSelected(ctx context.Context, opts Options, outDir string, outcome *Outcome) error {
	departments, err := o.resolveDepartments(opts.Departments)
	if err != nil {
		return err
	}

	awardTypes := opts.AwardTypes
	if len(awardTypes) == 0 {
		awardTypes = models.AllAwardTypes
	}

	for _, dept := range departments {
		o.logger.Info("processing department", "department", dept.Name, "acronym", dept.Acronym)

		for _, awardType := range awardTypes {
			if err := ctx.Err(); err != nil {
				return err
			}

			zips := o.collectArchives(ctx, opts, dept, awardType, outcome)
			if len(zips) == 0 {
				o.logger.Warn("no zip files for combination",
					"department", dept.Name, "award_type", string(awardType))
				continue
			}

			o.transformCombo(dept, awardType, zips, outDir, outcome)

			o.sleep(o.cfg.API.RequestDelay())
		}
	}

	return nil
}

func (o *Orchestrator) collectArchives(ctx context.Context, opts Options, dept models.Department, awardType models.AwardType, outcome *Outcome) []string {
	if opts.SkipDownload {
		zips, err := usaspending.FindExistingArchives(o.cfg.Dirs.RawData, dept, awardType)
		if err != nil {
			o.logger.Error("error scanning raw data dir", "error", err)
			return nil
		}

		o.logger.Info("found existing zip files",
			"department", dept.Name, "award_type", string(awardType), "count", len(zips))

		return zips
	}

	ranges := datespan.Ranges(opts.Start, opts.End, rangeMonths)

	result := o.downloader.DownloadAll(ctx, dept, awardType, ranges)
	outcome.Archives = append(outcome.Archives, result.Archives...)

	return result.Paths()
}

func (o *Orchestrator) transformCombo(dept models.Department, awardType models.AwardType, zips []string, outDir string, outcome *Outcome) {
	deptDir := filepath.Join(outDir, dept.Acronym)
	if err := os.MkdirAll(deptDir, 0o755); err != nil {
		o.logger.Error("error creating department dir", "dir", deptDir, "error", err)
		return
	}

	master, err := o.processor.ProcessZips(zips, dept, awardType, deptDir)
	if err != nil {
		o.logger.Error("error transforming data",
			"department", dept.Name, "award_type", string(awardType), "error", err)
		return
	}

	if master == "" {
		return
	}

	if outcome.Results[dept.Acronym] == nil {
		outcome.Results[dept.Acronym] = make(map[string]string)
	}

	outcome.Results[dept.Acronym][string(awardType)] = master
}

func (o *Orchestrator) resolveDepartments(names []string) ([]models.Department, error) {
	if len(names) == 0 {
		return o.cfg.Departments, nil
	}

	out := make([]models.Department, 0, len(names))

	for _, name := range names {
		dept, err := o.cfg.FindDepartment(name)
		if err != nil {
			return nil, err
		}

		out = append(out, dept)
	}

	return out, nil
}

// combo identifies one department and award type pair found in the raw
// data directory.
type combo struct {
	dept      models.Department
	awardType models.AwardType
}

func (o *Orchestrator) processExisting(ctx context.Context, outDir string, outcome *Outcome) error {
	entries, err := os.ReadDir(o.cfg.Dirs.RawData)
	if err != nil {
		return fmt.Errorf("reading raw data dir: %w", err)
	}

	seen := make(map[combo]bool)

	var combos []combo

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}

		c, ok := o.parseArchiveName(entry.Name())
		if !ok {
			o.logger.Warn("could not parse archive filename", "file", entry.Name())
			continue
		}

		if !seen[c] {
			seen[c] = true

			combos = append(combos, c)
		}
	}

	if len(combos) == 0 {
		o.logger.Warn("no existing zip files found", "dir", o.cfg.Dirs.RawData)
		return nil
	}

	sort.Slice(combos, func(i, j int) bool {
		if combos[i].dept.Acronym != combos[j].dept.Acronym {
			return combos[i].dept.Acronym < combos[j].dept.Acronym
		}

		return combos[i].awardType < combos[j].awardType
	})

	o.logger.Info("processing existing data", "combinations", len(combos))

	for _, c := range combos {
		if err := ctx.Err(); err != nil {
			return err
		}

		zips, err := usaspending.FindExistingArchives(o.cfg.Dirs.RawData, c.dept, c.awardType)
		if err != nil {
			o.logger.Error("error scanning raw data dir", "error", err)
			continue
		}

		o.transformCombo(c.dept, c.awardType, zips, outDir, outcome)

		o.sleep(o.cfg.API.RequestDelay())
	}

	return nil
}

// parseArchiveName recovers the department and award type from a
// filename like department_of_agriculture_grant_2024-01-01_to_2024-03-31.zip.
func (o *Orchestrator) parseArchiveName(filename string) (combo, bool) {
	parts := strings.Split(strings.TrimSuffix(filename, filepath.Ext(filename)), "_")

	for i, part := range parts {
		awardType, err := models.ParseAwardType(part)
		if err != nil {
			continue
		}

		deptName := strings.Join(parts[:i], " ")

		for _, dept := range o.cfg.Departments {
			if strings.EqualFold(dept.Name, deptName) {
				return combo{dept: dept, awardType: awardType}, true
			}
		}

		return combo{}, false
	}

	return combo{}, false
}
