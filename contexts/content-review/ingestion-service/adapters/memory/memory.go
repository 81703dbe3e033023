package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"atelier/contexts/content-review/ingestion-service/domain/entities"
	domainerrors "atelier/contexts/content-review/ingestion-service/domain/errors"
)

// Transcoder is the in-memory stand-in for ffmpeg: it passes the input
// path through untouched and reports one halfway progress tick. Paths
// listed in FailPaths fail deterministically.
type Transcoder struct {
	mu        sync.Mutex
	FailPaths map[string]bool
	calls     []string
}

func (t *Transcoder) Transcode(
	_ context.Context,
	inputPath string,
	onProgress func(fraction float64),
) (entities.TranscodeOutput, error) {
	t.mu.Lock()
	t.calls = append(t.calls, inputPath)
	failed := t.FailPaths[inputPath]
	t.mu.Unlock()

	if failed {
		return entities.TranscodeOutput{}, domainerrors.ErrTranscodeFailed
	}
	if onProgress != nil {
		onProgress(0.5)
	}
	return entities.TranscodeOutput{Path: inputPath, DurationSeconds: 30}, nil
}

func (t *Transcoder) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// BlobStore keeps uploaded keys in a map and returns mem:// URLs.
type BlobStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string]string)}
}

func (b *BlobStore) Upload(_ context.Context, localPath string, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = localPath
	return "mem://media/" + key, nil
}

func (b *BlobStore) Objects() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := make(map[string]string, len(b.objects))
	for key, value := range b.objects {
		copied[key] = value
	}
	return copied
}

type NoticeRecord struct {
	UserID       string
	Type         string
	SubmissionID string
	Body         string
}

type ProgressRecord struct {
	UserID       string
	SubmissionID string
	Fraction     float64
}

// ProgressRecorder collects progress updates and notifications for
// assertions.
type ProgressRecorder struct {
	mu       sync.Mutex
	progress []ProgressRecord
	notices  []NoticeRecord
}

func (p *ProgressRecorder) Progress(_ context.Context, userID string, submissionID string, fraction float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, ProgressRecord{UserID: userID, SubmissionID: submissionID, Fraction: fraction})
	return nil
}

func (p *ProgressRecorder) Notify(_ context.Context, userID string, notificationType string, submissionID string, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, NoticeRecord{
		UserID:       userID,
		Type:         notificationType,
		SubmissionID: submissionID,
		Body:         body,
	})
	return nil
}

func (p *ProgressRecorder) ProgressUpdates() []ProgressRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProgressRecord(nil), p.progress...)
}

func (p *ProgressRecorder) Notices() []NoticeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]NoticeRecord(nil), p.notices...)
}

// Clock and IDGen give tests deterministic time and ids.
type Clock struct{}

func (Clock) Now() time.Time { return time.Now().UTC() }

type IDGen struct {
	mu   sync.Mutex
	next int
}

func (g *IDGen) NewID(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("ingest-%d", g.next), nil
}
