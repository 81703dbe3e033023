// Package bootstrap is the composition root. Construction and wiring live
// here so module code stays framework-agnostic.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ingestionservice "atelier/contexts/content-review/ingestion-service"
	ingestbridge "atelier/contexts/content-review/ingestion-service/adapters/review"
	ingeststorage "atelier/contexts/content-review/ingestion-service/adapters/storage"
	ingesttranscode "atelier/contexts/content-review/ingestion-service/adapters/transcode"
	reviewservice "atelier/contexts/content-review/review-service"
	postgresadapter "atelier/contexts/content-review/review-service/adapters/postgres"
	"atelier/internal/platform/config"
	"atelier/internal/platform/db"
	"atelier/internal/platform/httpserver"
	"atelier/internal/platform/messaging"
	"atelier/internal/platform/queue"
	"atelier/internal/platform/realtime"
)

type APIApp struct {
	server        *httpserver.Server
	postgres      *db.Postgres
	jobQueue      *queue.JobQueue
	ingestion     ingestionservice.Module
	ingestWorkers int
	logger        *slog.Logger
}

type WorkerApp struct {
	postgres         *db.Postgres
	review           reviewservice.Module
	escalatorEnabled bool
	intakeEnabled    bool
	relayEnabled     bool
	pollInterval     time.Duration
	logger           *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	directory := postgresadapter.NewDirectory(pg.DB, logger)
	hub := realtime.NewHub(logger)
	jobQueue := queue.NewJobQueue(cfg.QueueSize, logger)

	enqueuer := ingestbridge.Enqueuer{
		Queue:      jobQueue,
		StagingDir: cfg.StagingDir,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
	}

	review := reviewservice.NewModule(reviewservice.Dependencies{
		Submissions:  repo,
		Media:        repo,
		Feedback:     repo,
		SubDeps:      repo,
		Policies:     directory,
		Outbox:       repo,
		OutboxRepo:   repo,
		Dedup:        repo,
		Publisher:    kafka,
		Subscriber:   kafka,
		Notifier:     hub,
		Reviewers:    directory,
		Clients:      directory,
		Ingestion:    enqueuer,
		Clock:        postgresadapter.SystemClock{},
		IDGen:        postgresadapter.UUIDGenerator{},
		EscalatorOff: !cfg.EnableDueDateEscalator,
		Logger:       logger,
	})

	blobs, err := ingeststorage.NewS3Store(context.Background(), ingeststorage.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}

	ingestion := ingestionservice.NewModule(ingestionservice.Dependencies{
		Queue: jobQueue,
		Transcoder: ingesttranscode.FFmpeg{
			FFmpegPath:  cfg.FFmpegPath,
			FFprobePath: cfg.FFprobePath,
		},
		Blobs: blobs,
		Review: ingestbridge.Bridge{
			Submissions: repo,
			Media:       repo,
			Reviewers:   directory,
			Reconciler:  review.Reconcile,
			Clock:       postgresadapter.SystemClock{},
			IDGen:       postgresadapter.UUIDGenerator{},
		},
		Progress:   realtime.IngestSink{Hub: hub},
		StagingDir: cfg.StagingDir,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
		Logger:     logger,
	})

	server := httpserver.New(review, hub, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:        server,
		postgres:      pg,
		jobQueue:      jobQueue,
		ingestion:     ingestion,
		ingestWorkers: cfg.IngestWorkers,
		logger:        logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	directory := postgresadapter.NewDirectory(pg.DB, logger)
	hub := realtime.NewHub(logger)

	// The worker never serves uploads; its enqueuer feeds a queue nothing
	// drains, only there to satisfy wiring.
	enqueuer := ingestbridge.Enqueuer{
		Queue:      queue.NewJobQueue(1, logger),
		StagingDir: cfg.StagingDir,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
	}

	review := reviewservice.NewModule(reviewservice.Dependencies{
		Submissions:  repo,
		Media:        repo,
		Feedback:     repo,
		SubDeps:      repo,
		Policies:     directory,
		Outbox:       repo,
		OutboxRepo:   repo,
		Dedup:        repo,
		Publisher:    kafka,
		Subscriber:   kafka,
		Notifier:     hub,
		Reviewers:    directory,
		Clients:      directory,
		Ingestion:    enqueuer,
		Clock:        postgresadapter.SystemClock{},
		IDGen:        postgresadapter.UUIDGenerator{},
		EscalatorOff: !cfg.EnableDueDateEscalator,
		Logger:       logger,
	})

	return &WorkerApp{
		postgres:         pg,
		review:           review,
		escalatorEnabled: cfg.EnableDueDateEscalator,
		intakeEnabled:    cfg.EnableCreatorAcceptedIntake,
		relayEnabled:     cfg.EnableOutboxRelay,
		pollInterval:     2 * time.Second,
		logger:           logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	for i := 0; i < a.ingestWorkers; i++ {
		go func() {
			if err := a.ingestion.Consumer.Run(ctx); err != nil {
				a.logger.Error("ingest worker stopped",
					"event", "bootstrap_ingest_worker_stopped",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"ingest_workers", a.ingestWorkers,
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.jobQueue != nil {
		a.jobQueue.Close()
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.intakeEnabled {
		if err := w.review.AcceptedConsumer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.escalatorEnabled {
			if err := w.review.DueDateEscalator.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.relayEnabled {
			if err := w.review.OutboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
