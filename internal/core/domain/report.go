package domain

import "time"

// FileError records a single file's failure during an ingest run.
// Per-file errors are recovered automatically: the file is skipped
// and the run continues.
type FileError struct {
	// SourceID is the file's stable identity.
	SourceID string `json:"source_id"`

	// Path is the absolute file path.
	Path string `json:"path"`

	// Err is the error message.
	Err string `json:"error"`
}

// IngestReport summarises one ingest run. It always lists every
// error encountered, even when the run succeeds for most files.
type IngestReport struct {
	// Root is the source root that was scanned.
	Root string `json:"root"`

	// New counts sources seen for the first time.
	New int `json:"new"`

	// Changed counts sources whose checksum differed from the manifest.
	Changed int `json:"changed"`

	// Skipped counts unchanged sources.
	Skipped int `json:"skipped"`

	// Removed counts sources present in the manifest but missing from
	// the scan; their chunks were garbage-collected.
	Removed int `json:"removed"`

	// ChunksWritten is the total number of chunks upserted.
	ChunksWritten int `json:"chunks_written"`

	// Errors lists every per-file failure.
	Errors []FileError `json:"errors,omitempty"`

	// Aborted is true when a provider outage ended the run early.
	// Progress written before the failure is preserved.
	Aborted bool `json:"aborted,omitempty"`

	// StartedAt and Duration describe the run itself.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Errored returns the number of files that failed.
func (r *IngestReport) Errored() int {
	return len(r.Errors)
}
