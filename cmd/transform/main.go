// Package main provides the transform command that extracts downloaded
// archives and produces flagged master files.
package main

import (
	"flag"
	"fmt"
	"os"

	"spendwatch/internal/config"
	"spendwatch/internal/keyword"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/internal/transform"
	"spendwatch/internal/usaspending"
)

func main() {
	deptName := flag.String("dept-name", "", "Department name (resolved from config when omitted)")
	deptAcronym := flag.String("dept-acronym", "", "Department acronym (required)")
	subAwardType := flag.String("sub-award-type", "procurement", "Award type: procurement or grant")
	zipDir := flag.String("zip-dir", "", "Directory holding downloaded archives (default: config raw data dir)")
	outputDir := flag.String("output-dir", "", "Directory for flagged output (default: config processed dir)")
	configFile := flag.String("config", "", "Path to YAML configuration file")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	if *deptAcronym == "" {
		log.Error("please provide a department acronym with -dept-acronym")
		flag.PrintDefaults()
		os.Exit(1)
	}

	dept, err := cfg.FindDepartment(*deptAcronym)
	if err != nil {
		// Unknown acronym is allowed when a full name is supplied.
		if *deptName == "" {
			log.Error("unknown department acronym and no -dept-name given", "acronym", *deptAcronym)
			os.Exit(1)
		}

		dept = models.Department{Name: *deptName, Acronym: *deptAcronym}
	}

	awardType, err := models.ParseAwardType(*subAwardType)
	if err != nil {
		log.Error("invalid award type", "award_type", *subAwardType)
		os.Exit(1)
	}

	rawDir := *zipDir
	if rawDir == "" {
		rawDir = cfg.Dirs.RawData
	}

	outDir := *outputDir
	if outDir == "" {
		outDir = cfg.Dirs.Processed
	}

	zips, err := usaspending.FindExistingArchives(rawDir, dept, awardType)
	if err != nil {
		log.Error("error scanning zip dir", "dir", rawDir, "error", err)
		os.Exit(1)
	}

	if len(zips) == 0 {
		log.Error("no zip files found", "dir", rawDir,
			"department", dept.Name, "award_type", string(awardType))
		os.Exit(1)
	}

	pattern, err := keyword.Compile(cfg.Keywords.Main)
	if err != nil {
		log.Error("invalid keyword configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Error("error creating output dir", "dir", outDir, "error", err)
		os.Exit(1)
	}

	processor := transform.NewProcessor(pattern, log)

	master, err := processor.ProcessZips(zips, dept, awardType, outDir)
	if err != nil {
		log.Error("transform failed", "error", err)
		os.Exit(1)
	}

	if master == "" {
		log.Error("no flagged rows produced")
		os.Exit(1)
	}

	log.Info("transform complete", "master", master)
}
