// Package main provides the analyze command that sends a filtered award
// CSV to an LLM provider and prints the flagged targets.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"spendwatch/internal/analyzer"
	"spendwatch/internal/config"
	"spendwatch/internal/logger"
	"spendwatch/internal/report"
)

func main() {
	file := flag.String("file", "", "Filtered CSV file to analyze (required)")
	provider := flag.String("provider", "xai", "LLM provider: openai, anthropic or xai")
	model := flag.String("model", "", "Model name (default: provider default)")
	analysisKind := flag.String("analysis-kind", "waste", "Analysis kind: dei, waste or ngo_fraud")
	maxRows := flag.Int("max-rows", 0, "Maximum CSV rows to include in the prompt (0 = all)")

	flag.Parse()

	log := logger.New("info")

	if *file == "" {
		log.Error("please provide a CSV file with -file")
		flag.PrintDefaults()
		os.Exit(1)
	}

	config.LoadEnv()

	apiKey, err := config.ProviderAPIKey(*provider)
	if err != nil {
		log.Error("missing provider credential", "provider", *provider, "error", err)
		os.Exit(1)
	}

	llm, err := analyzer.NewProvider(analyzer.Options{
		Name:   *provider,
		Model:  *model,
		APIKey: apiKey,
	})
	if err != nil {
		log.Error("could not create provider", "error", err)
		os.Exit(1)
	}

	a := analyzer.New(llm, log)

	list, err := a.AnalyzeCSV(context.Background(), *file, analyzer.Kind(*analysisKind), *maxRows)
	if err != nil {
		log.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if list.Raw != "" {
		fmt.Println(list.Raw)
		return
	}

	out, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		log.Error("could not encode targets", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(out))

	if table := report.FormatTargets(list.Targets, 0); table != "" {
		fmt.Println()
		fmt.Println(table)
	}
}
