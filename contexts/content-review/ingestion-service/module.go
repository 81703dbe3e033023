package ingestionservice

import (
	"log/slog"

	reviewbridge "atelier/contexts/content-review/ingestion-service/adapters/review"
	"atelier/contexts/content-review/ingestion-service/application/workers"
	"atelier/contexts/content-review/ingestion-service/ports"
	reviewports "atelier/contexts/content-review/review-service/ports"
)

type Module struct {
	Consumer workers.IngestConsumer
	// Enqueuer satisfies the review-service upload port.
	Enqueuer reviewports.IngestionEnqueuer
}

type Dependencies struct {
	Queue      ports.JobQueue
	Transcoder ports.Transcoder
	Blobs      ports.BlobStore
	Review     ports.ReviewGateway
	Progress   ports.ProgressSink
	StagingDir string
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Consumer: workers.IngestConsumer{
			Queue:      deps.Queue,
			Transcoder: deps.Transcoder,
			Blobs:      deps.Blobs,
			Review:     deps.Review,
			Progress:   deps.Progress,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
			Logger:     deps.Logger,
		},
		Enqueuer: reviewbridge.Enqueuer{
			Queue:      deps.Queue,
			StagingDir: deps.StagingDir,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
		},
	}
}
