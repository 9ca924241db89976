// Package main provides the download command that fetches bulk award
// archives from the USAspending API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"spendwatch/internal/config"
	"spendwatch/internal/datespan"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/internal/usaspending"
)

func main() {
	department := flag.String("department", "", "Department name or acronym (required)")
	subAwardType := flag.String("sub-award-type", "", "Award type: procurement or grant (default: both)")
	startDate := flag.String("start-date", "2024-01-01", "Start date (YYYY-MM-DD)")
	endDate := flag.String("end-date", time.Now().UTC().Format(datespan.Layout), "End date (YYYY-MM-DD)")
	configFile := flag.String("config", "", "Path to YAML configuration file")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	if *department == "" {
		log.Error("please provide a department with -department")
		flag.PrintDefaults()
		os.Exit(1)
	}

	dept, err := cfg.FindDepartment(*department)
	if err != nil {
		log.Error("unknown department", "department", *department)
		os.Exit(1)
	}

	awardTypes, err := resolveAwardTypes(*subAwardType)
	if err != nil {
		log.Error("invalid award type", "award_type", *subAwardType)
		os.Exit(1)
	}

	start, err := time.Parse(datespan.Layout, *startDate)
	if err != nil {
		log.Error("invalid start date", "start_date", *startDate)
		os.Exit(1)
	}

	end, err := time.Parse(datespan.Layout, *endDate)
	if err != nil {
		log.Error("invalid end date", "end_date", *endDate)
		os.Exit(1)
	}

	log.Info("starting download",
		"department", dept.Name, "start", *startDate, "end", *endDate)

	client := usaspending.NewClient(cfg, log)
	downloader := usaspending.NewDownloader(client, cfg.API.RequestDelay())
	ranges := datespan.Ranges(start, end, 3)

	ctx := context.Background()
	fetched := 0

	for _, awardType := range awardTypes {
		result := downloader.DownloadAll(ctx, dept, awardType, ranges)
		fetched += len(result.Archives)

		if len(result.Missing) > 0 {
			log.Warn("some ranges could not be downloaded",
				"award_type", string(awardType), "missing", len(result.Missing))
		}
	}

	if fetched == 0 {
		log.Error("no archives downloaded")
		os.Exit(1)
	}

	log.Info("download complete", "archives", fetched)
}

func resolveAwardTypes(s string) ([]models.AwardType, error) {
	if strings.TrimSpace(s) == "" {
		return models.AllAwardTypes, nil
	}

	awardType, err := models.ParseAwardType(s)
	if err != nil {
		return nil, err
	}

	return []models.AwardType{awardType}, nil
}
