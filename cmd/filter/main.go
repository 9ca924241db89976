// Package main provides the filter command that re-filters flagged
// master files by minimum amount and the refined keyword set.
package main

import (
	"flag"
	"fmt"
	"os"

	"spendwatch/internal/config"
	"spendwatch/internal/filter"
	"spendwatch/internal/keyword"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
)

func main() {
	inputDir := flag.String("input-dir", "", "Directory holding flagged master files (default: config processed dir)")
	outputDir := flag.String("output-dir", "", "Directory for filtered output (default: config filtered dir)")
	minAmount := flag.Float64("min-amount", 0, "Minimum award amount (default: config value)")
	awardType := flag.String("award-type", "", "Limit to one award type: procurement or grant (default: both)")
	noCombine := flag.Bool("no-combine", false, "Skip combining filtered files into one master")
	configFile := flag.String("config", "", "Path to YAML configuration file")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	if *awardType != "" {
		if _, err := models.ParseAwardType(*awardType); err != nil {
			log.Error("invalid award type", "award_type", *awardType)
			os.Exit(1)
		}
	}

	inDir := *inputDir
	if inDir == "" {
		inDir = cfg.Dirs.Processed
	}

	outDir := *outputDir
	if outDir == "" {
		outDir = cfg.Dirs.Filtered
	}

	min := *minAmount
	if min <= 0 {
		min = cfg.Filter.MinAmount
	}

	pattern, err := keyword.Compile(cfg.Keywords.Refine)
	if err != nil {
		log.Error("invalid keyword configuration", "error", err)
		os.Exit(1)
	}

	f := filter.New(pattern, log)

	result, err := f.ProcessAll(inDir, outDir, min, *awardType, !*noCombine)
	if err != nil {
		log.Error("filtering failed", "error", err)
		os.Exit(1)
	}

	if len(result.FilteredFiles) == 0 {
		log.Error("no filtered files produced", "input_dir", inDir)
		os.Exit(1)
	}

	log.Info("filtering complete",
		"filtered_files", len(result.FilteredFiles), "summary", result.SummaryPath)
}
