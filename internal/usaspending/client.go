// Package usaspending is the client for the USAspending bulk-download
// API: it requests deferred file generation, polls readiness, and streams
// finished archives to local storage.
package usaspending

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendwatch/internal/config"
	"spendwatch/internal/datespan"
	"spendwatch/internal/logger"
	"spendwatch/internal/models"
	"spendwatch/pkg/checksum"
)

// Client errors. Per-job failures are logged and reported through empty
// return values so a batch keeps going; these sentinels surface in logs.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNeverReady           = errors.New("file never became ready for download")
)

// Client talks to the bulk-download API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	poll       config.PollConfig
	rawDir     string
	logger     *logger.Logger

	// sleep is swappable so tests do not wait out real poll intervals.
	sleep func(time.Duration)

	// create is swappable so tests can fail the final flush.
	create func(path string) (io.WriteCloser, error)
}

// NewClient creates a bulk-download client from configuration.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.API.Timeout()},
		endpoint:   cfg.API.Endpoint,
		poll:       cfg.Poll,
		rawDir:     cfg.Dirs.RawData,
		logger:     log,
		sleep:      time.Sleep,
		create:     func(path string) (io.WriteCloser, error) { return os.Create(path) },
	}
}

// downloadRequest is the filter payload for one bulk-export request.
type downloadRequest struct {
	Filters    downloadFilters `json:"filters"`
	Columns    []string        `json:"columns"`
	FileFormat string          `json:"file_format"`
}

type downloadFilters struct {
	PrimeAwardTypes []string      `json:"prime_award_types"`
	DateType        string        `json:"date_type"`
	DateRange       dateRange     `json:"date_range"`
	DefCodes        []string      `json:"def_codes"`
	Agencies        []agencyScope `json:"agencies"`
}

type dateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type agencyScope struct {
	Type string `json:"type"`
	Tier string `json:"tier"`
	Name string `json:"name"`
}

// downloadResponse is the subset of the API response the pipeline uses.
type downloadResponse struct {
	FileURL   string `json:"file_url"`
	FileName  string `json:"file_name"`
	StatusURL string `json:"status_url"`
}

// RequestDownload submits one bulk-export request for a department, award
// type class and date range. The remote system schedules asynchronous
// file generation; the returned URL is polled later. Any transport or
// HTTP error is logged and reported as an empty URL; the job is simply
// skipped downstream, never fatal to the batch.
func (c *Client) RequestDownload(ctx context.Context, r datespan.Range, dept models.Department, awardType models.AwardType) string {
	payload := downloadRequest{
		Filters: downloadFilters{
			PrimeAwardTypes: awardType.PrimeAwardCodes(),
			DateType:        "action_date",
			DateRange:       dateRange{StartDate: r.StartString(), EndDate: r.EndString()},
			DefCodes:        []string{},
			Agencies: []agencyScope{
				{Type: "awarding", Tier: "toptier", Name: dept.Name},
			},
		},
		Columns:    []string{},
		FileFormat: "csv",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal download request", "error", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to build download request", "error", err)
		return ""
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("error requesting download", "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("error requesting download",
			"error", fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode))
		return ""
	}

	var data downloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Error("failed to decode download response", "error", err)
		return ""
	}

	c.logger.Info("download requested",
		"department", dept.Name,
		"start", r.StartString(),
		"end", r.EndString(),
		"award_type", string(awardType),
		"status_url", data.StatusURL,
		"file_url", data.FileURL,
		"file_name", data.FileName)

	return data.FileURL
}

// CheckFileStatus reports whether the generated file is ready: a HEAD
// request answering 200.
func (c *Client) CheckFileStatus(ctx context.Context, fileURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fileURL, http.NoBody)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ExpectedFilename is the deterministic archive name for a job. Reruns
// with the same identifying fields resolve to the same file, which is
// what makes fetches idempotent.
func ExpectedFilename(dept models.Department, r datespan.Range, awardType models.AwardType) string {
	deptName := strings.ToLower(strings.ReplaceAll(dept.Name, " ", "_"))

	return fmt.Sprintf("%s_%s_%s_to_%s.zip", deptName, awardType, r.StartString(), r.EndString())
}

// FetchDownload polls the file URL until the archive is ready, then
// streams it to the raw-data directory. Returns the local path, or the
// empty string when the job failed (timeout or transport error, both
// logged). If the deterministic target file already exists the download
// is skipped entirely, with no network call.
func (c *Client) FetchDownload(ctx context.Context, fileURL string, dept models.Department, r datespan.Range, awardType models.AwardType) string {
	filename := ExpectedFilename(dept, r, awardType)

	if err := os.MkdirAll(c.rawDir, 0o755); err != nil {
		c.logger.Error("failed to create raw data directory", "error", err)
		return ""
	}

	filePath := filepath.Join(c.rawDir, filename)
	if _, err := os.Stat(filePath); err == nil {
		c.logger.Info("file already exists, skipping download", "file", filename)
		return filePath
	}

	if !c.waitUntilReady(ctx, fileURL) {
		c.logger.Error("file never became ready for download", "file", filename)
		return ""
	}

	if err := c.streamToFile(ctx, fileURL, filePath); err != nil {
		c.logger.Error("error downloading file", "file", filename, "error", err)
		return ""
	}

	if digest, err := checksum.File(filePath); err == nil {
		c.logger.Info("download complete", "file", filename, "xxhash64", digest)
	} else {
		c.logger.Info("download complete", "file", filename)
	}

	return filePath
}

// waitUntilReady is the bounded poll loop: a readiness check every poll
// interval, for at most MaxAttempts attempts.
func (c *Client) waitUntilReady(ctx context.Context, fileURL string) bool {
	for attempt := 1; attempt <= c.poll.MaxAttempts; attempt++ {
		if c.CheckFileStatus(ctx, fileURL) {
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		c.logger.Info("file not ready yet, waiting...",
			"attempt", attempt, "max_attempts", c.poll.MaxAttempts)
		c.sleep(c.poll.Interval())
	}

	return false
}

// streamToFile downloads the body in chunks. A mid-stream failure removes
// the partial file so no corrupt archive is left behind.
func (c *Client) streamToFile(ctx context.Context, fileURL, filePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	f, err := c.create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}

	buf := make([]byte, c.poll.ChunkSizeBytes)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		f.Close()
		os.Remove(filePath)

		return fmt.Errorf("download interrupted: %w", err)
	}

	// A failed close can mean unflushed data; a leftover file here would
	// pass the exists-check on the next run and never be re-fetched.
	if err := f.Close(); err != nil {
		os.Remove(filePath)

		return fmt.Errorf("failed to finalize %s: %w", filePath, err)
	}

	return nil
}
