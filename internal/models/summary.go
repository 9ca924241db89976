package models

// FilterSummary is the JSON manifest written once per filtering run.
// Write-once; never mutated after creation.
type FilterSummary struct {
	RunID              string   `json:"run_id"`
	Timestamp          string   `json:"timestamp"`
	MinimumAmount      float64  `json:"minimum_amount"`
	AwardType          string   `json:"award_type"`
	FilesProcessed     int      `json:"files_processed"`
	FilesWithMatches   int      `json:"files_with_matches"`
	UnparsedAmountRows int      `json:"unparsed_amount_rows"`
	FilteredFiles      []string `json:"filtered_files"`
}

// RunSummary is the JSON manifest written by the orchestrator at the end
// of a full processing run.
type RunSummary struct {
	RunID     string                       `json:"run_id"`
	Timestamp string                       `json:"timestamp"`
	Results   map[string]map[string]string `json:"results"`
	Archives  []ArchiveRecord              `json:"archives,omitempty"`
}
