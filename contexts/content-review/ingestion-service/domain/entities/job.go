package entities

import (
	"strings"
	"time"
)

type MediaKind string

const (
	MediaKindVideo      MediaKind = "video"
	MediaKindPhoto      MediaKind = "photo"
	MediaKindRawFootage MediaKind = "raw_footage"
)

// Transcoded reports whether the kind goes through ffmpeg before upload.
// Photos and raw footage are stored as delivered.
func (k MediaKind) Transcoded() bool {
	return k == MediaKindVideo
}

// StagedFile is one file waiting on local disk for processing. MediaID is
// set on resubmission so the pipeline overwrites the existing media row
// instead of creating a new one.
type StagedFile struct {
	Kind      MediaKind
	LocalPath string
	MediaID   string
}

// IngestionJob is one queued upload batch. The whole batch belongs to a
// single submission; files fail or succeed independently.
type IngestionJob struct {
	JobID        string
	SubmissionID string
	CallerID     string
	Caption      string
	RawFileLink  string
	Files        []StagedFile
	EnqueuedAt   time.Time
}

func (j IngestionJob) ValidateEnqueue() bool {
	if strings.TrimSpace(j.JobID) == "" || strings.TrimSpace(j.SubmissionID) == "" {
		return false
	}
	for _, file := range j.Files {
		if strings.TrimSpace(file.LocalPath) == "" || file.Kind == "" {
			return false
		}
	}
	return true
}

// FileResult captures the per-file outcome; a failed file carries the
// error text for the caller notification.
type FileResult struct {
	LocalPath string
	MediaID   string
	URL       string
	Failed    bool
	Error     string
}

// TranscodeOutput describes the artifact a transcoder produced.
type TranscodeOutput struct {
	Path            string
	DurationSeconds float64
	Width           int
	Height          int
}
