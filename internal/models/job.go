package models

import "time"

// DownloadJob is one (department, award type, date range) unit of work.
// The requester fills FileURL; the fetcher fills LocalPath. A job with an
// empty FileURL is terminal: the remote request failed and there is
// nothing to poll.
type DownloadJob struct {
	Department Department
	AwardType  AwardType
	Start      time.Time
	End        time.Time
	FileURL    string
	LocalPath  string
}

// ArchiveRecord describes one fetched archive in the run manifest.
type ArchiveRecord struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Digest    string `json:"xxhash64"`
}
