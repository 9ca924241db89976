package usaspending

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendwatch/internal/datespan"
	"spendwatch/internal/models"
	"spendwatch/pkg/checksum"
)

// DownloadResult is the outcome of a full download batch for one
// department and award type.
type DownloadResult struct {
	Archives []models.ArchiveRecord
	Missing  []string
}

// Paths lists the local paths of all fetched archives.
func (r DownloadResult) Paths() []string {
	out := make([]string, 0, len(r.Archives))
	for _, a := range r.Archives {
		out = append(out, a.Path)
	}

	return out
}

// Downloader runs the request, fetch and recover sequence over a set of
// date ranges, sequentially. Requests are all fired up front (with a
// courtesy delay between them); fetches then happen in request order.
type Downloader struct {
	client       *Client
	requestDelay time.Duration
}

// NewDownloader wires a Downloader around a Client.
func NewDownloader(client *Client, requestDelay time.Duration) *Downloader {
	return &Downloader{client: client, requestDelay: requestDelay}
}

// DownloadAll partitions nothing itself: callers hand it the ranges from
// datespan. It fires every bulk-export request, fetches each generated
// file, then makes one recovery pass over jobs whose archive is still
// missing. Jobs whose initial request failed have no URL and are terminal.
func (d *Downloader) DownloadAll(ctx context.Context, dept models.Department, awardType models.AwardType, ranges []datespan.Range) DownloadResult {
	jobs := make([]*models.DownloadJob, 0, len(ranges))

	d.client.logger.Info("initiating all download requests...",
		"department", dept.Name, "award_type", string(awardType), "ranges", len(ranges))

	for _, r := range ranges {
		job := &models.DownloadJob{
			Department: dept,
			AwardType:  awardType,
			Start:      r.Start,
			End:        r.End,
		}
		job.FileURL = d.client.RequestDownload(ctx, r, dept, awardType)
		jobs = append(jobs, job)

		if d.requestDelay > 0 {
			d.client.sleep(d.requestDelay)
		}
	}

	d.client.logger.Info("fetching generated files...")

	for _, job := range jobs {
		r := datespan.Range{Start: job.Start, End: job.End}
		if job.FileURL == "" {
			d.client.logger.Warn("no file_url from initial request",
				"department", dept.Name, "start", r.StartString(), "end", r.EndString())
			continue
		}

		job.LocalPath = d.client.FetchDownload(ctx, job.FileURL, dept, r, awardType)
	}

	missing := d.RecoverMissing(ctx, jobs)

	return DownloadResult{
		Archives: archiveRecords(jobs),
		Missing:  missing,
	}
}

// RecoverMissing retries the fetch once for every job whose expected
// archive is absent but whose request did produce a URL. Jobs with no URL
// are reported missing without a retry.
func (d *Downloader) RecoverMissing(ctx context.Context, jobs []*models.DownloadJob) []string {
	var missing []string

	for _, job := range jobs {
		r := datespan.Range{Start: job.Start, End: job.End}
		expected := ExpectedFilename(job.Department, r, job.AwardType)

		if job.LocalPath != "" {
			continue
		}

		if job.FileURL == "" {
			missing = append(missing, expected)
			continue
		}

		d.client.logger.Info("attempting to recover missing download", "file", expected)

		job.LocalPath = d.client.FetchDownload(ctx, job.FileURL, job.Department, r, job.AwardType)
		if job.LocalPath == "" {
			missing = append(missing, expected)
		}
	}

	return missing
}

// FindExistingArchives locates previously downloaded archives for a
// department and award type, for runs that skip the download stage.
func FindExistingArchives(rawDir string, dept models.Department, awardType models.AwardType) ([]string, error) {
	deptName := strings.ToLower(strings.ReplaceAll(dept.Name, " ", "_"))
	prefix := fmt.Sprintf("%s_%s_", deptName, awardType)

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, err
	}

	var out []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		if strings.HasPrefix(name, prefix) && filepath.Ext(name) == ".zip" {
			out = append(out, filepath.Join(rawDir, name))
		}
	}

	return out, nil
}

func archiveRecords(jobs []*models.DownloadJob) []models.ArchiveRecord {
	var out []models.ArchiveRecord

	for _, job := range jobs {
		if job.LocalPath == "" {
			continue
		}

		rec := models.ArchiveRecord{Path: job.LocalPath}
		if info, err := os.Stat(job.LocalPath); err == nil {
			rec.SizeBytes = info.Size()
		}

		if digest, err := checksum.File(job.LocalPath); err == nil {
			rec.Digest = digest
		}

		out = append(out, rec)
	}

	return out
}
