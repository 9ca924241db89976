package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spendwatch/internal/archive"
	"spendwatch/internal/models"
)

// ProcessZips runs the full flagging stage for one department and award
// type: extract each archive into a transient directory, flag every CSV
// inside it, then combine the flagged subsets into the deduplicated
// department master file. Per-archive and per-file failures are logged
// and skipped; the stage only reports failure when no master file could
// be produced at all. Returns the master path, or "" when nothing was
// flagged.
func (p *Processor) ProcessZips(zips []string, dept models.Department, awardType models.AwardType, outDir string) (string, error) {
	tempDir := filepath.Join(outDir, "temp_extract")
	if err := archive.Reset(tempDir); err != nil {
		return "", err
	}
	defer os.RemoveAll(tempDir)

	// Day-granular cutoff: an award is live only when its end date is
	// strictly after today.
	now := time.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var flaggedFiles []string

	for _, zipPath := range zips {
		if _, err := os.Stat(zipPath); err != nil {
			p.logger.Warn("zip file not found", "path", zipPath)
			continue
		}

		p.logger.Info("extracting archive", "path", zipPath)

		if err := archive.Extract(zipPath, tempDir); err != nil {
			p.logger.Error("error extracting archive", "path", zipPath, "error", err)
			continue
		}

		csvFiles, err := archive.FindCSVFiles(tempDir)
		if err != nil {
			p.logger.Error("error scanning extraction directory", "error", err)
			continue
		}

		if len(csvFiles) == 0 {
			p.logger.Warn("no CSV files found in archive", "path", zipPath)
			continue
		}

		p.logger.Info("found CSV files", "count", len(csvFiles), "archive", zipPath)

		for _, csvPath := range csvFiles {
			flaggedPath, err := p.ProcessCSV(csvPath, cutoff, awardType, dept.Acronym, outDir)
			if err != nil {
				p.logger.Error("error processing file", "file", filepath.Base(csvPath), "error", err)
				continue
			}

			if flaggedPath != "" {
				flaggedFiles = append(flaggedFiles, flaggedPath)
			}
		}

		// Extraction dirs are transient working storage; wipe between
		// archives to bound disk usage.
		if err := archive.Reset(tempDir); err != nil {
			return "", err
		}
	}

	if len(flaggedFiles) == 0 {
		p.logger.Info("no flagged files found",
			"department", dept.Name, "award_type", string(awardType))
		return "", nil
	}

	masterFile := filepath.Join(outDir, fmt.Sprintf("%s_%s_flagged_master.csv", dept.Acronym, awardType))

	if err := p.Combine(flaggedFiles, masterFile, awardType); err != nil {
		p.logger.Error("error combining flagged files", "error", err)
		return "", err
	}

	// The master file supersedes the per-file intermediates.
	p.logger.Info("cleaning up temporary flagged files...")

	for _, f := range flaggedFiles {
		if err := os.Remove(f); err != nil {
			p.logger.Warn("failed to remove intermediate file", "path", f, "error", err)
		}
	}

	return masterFile, nil
}
