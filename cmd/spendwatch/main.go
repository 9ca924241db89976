// Package main provides the unified command that runs the download and
// transform stages across departments and award types.
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
	"spendwatch/internal/keyword"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/internal/orchestrator"
	"spendwatch/internal/transform"
	"spendwatch/internal/usaspending"
)

func main() {
	departments := flag.String("departments", "", "Comma-separated department names or acronyms (default: all)")
	awardTypes := flag.String("award-types", "", "Comma-separated award types (default: procurement,grant)")
	startDate := flag.String("start-date", "2024-01-01", "Start date (YYYY-MM-DD)")
	endDate := flag.String("end-date", time.Now().UTC().Format(datespan.Layout), "End date (YYYY-MM-DD)")
	outputDir := flag.String("output-dir", "", "Directory for processed output (default: config processed dir)")
	skipDownload := flag.Bool("skip-download", false, "Use existing archives instead of downloading")
	processExisting := flag.Bool("process-existing", false, "Process every archive already in the raw data dir")
	configFile := flag.String("config", "", "Path to YAML configuration file")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	if *skipDownload && *processExisting {
		log.Error("cannot use both -skip-download and -process-existing")
		os.Exit(1)
	}

	opts := orchestrator.Options{
		Departments:     splitList(*departments),
		OutputDir:       *outputDir,
		SkipDownload:    *skipDownload,
		ProcessExisting: *processExisting,
	}

	for _, s := range splitList(*awardTypes) {
		awardType, err := models.ParseAwardType(s)
		if err != nil {
			log.Error("invalid award type", "award_type", s)
			os.Exit(1)
		}

		opts.AwardTypes = append(opts.AwardTypes, awardType)
	}

	opts.Start, err = time.Parse(datespan.Layout, *startDate)
	if err != nil {
		log.Error("invalid start date", "start_date", *startDate)
		os.Exit(1)
	}

	opts.End, err = time.Parse(datespan.Layout, *endDate)
	if err != nil {
		log.Error("invalid end date", "end_date", *endDate)
		os.Exit(1)
	}

	pattern, err := keyword.Compile(cfg.Keywords.Main)
	if err != nil {
		log.Error("invalid keyword configuration", "error", err)
		os.Exit(1)
	}

	log.Info("🚀 starting processing run",
		"start", *startDate, "end", *endDate,
		"skip_download", *skipDownload, "process_existing", *processExisting)

	client := usaspending.NewClient(cfg, log)
	downloader := usaspending.NewDownloader(client, cfg.API.RequestDelay())
	processor := transform.NewProcessor(pattern, log)

	o := orchestrator.New(cfg, downloader, processor, log)

	outcome, err := o.Run(context.Background(), opts)
	if err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}

	if !outcome.Produced() {
		log.Error("nothing produced", "summary", outcome.SummaryPath)
		os.Exit(1)
	}

	log.Info("✅ run complete", "summary", outcome.SummaryPath)
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
