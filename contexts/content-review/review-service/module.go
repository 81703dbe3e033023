package reviewservice

import (
	"log/slog"

	httpadapter "atelier/contexts/content-review/review-service/adapters/http"
	"atelier/contexts/content-review/review-service/adapters/memory"
	"atelier/contexts/content-review/review-service/application/commands"
	"atelier/contexts/content-review/review-service/application/queries"
	"atelier/contexts/content-review/review-service/application/workers"
	"atelier/contexts/content-review/review-service/domain/entities"
	"atelier/contexts/content-review/review-service/ports"
)

type Module struct {
	Handler          httpadapter.Handler
	Reconcile        commands.ReconcileUseCase
	CreatePlan       commands.CreateSubmissionPlanUseCase
	OutboxRelay      workers.OutboxRelay
	DueDateEscalator workers.DueDateEscalator
	AcceptedConsumer workers.CreatorAcceptedConsumer
	Store            *memory.Store
}

type Dependencies struct {
	Submissions  ports.SubmissionRepository
	Media        ports.MediaRepository
	Feedback     ports.FeedbackRepository
	SubDeps      ports.DependencyRepository
	Policies     ports.PolicyProvider
	Outbox       ports.OutboxWriter
	OutboxRepo   ports.OutboxRepository
	Dedup        ports.EventDedupStore
	Publisher    ports.EventPublisher
	Subscriber   ports.EventSubscriber
	Notifier     ports.Notifier
	Reviewers    ports.ReviewerDirectory
	Clients      commands.ClientAuthorizer
	Ingestion    ports.IngestionEnqueuer
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	EscalatorOff bool
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	reconcile := commands.ReconcileUseCase{
		Submissions:  deps.Submissions,
		Media:        deps.Media,
		Dependencies: deps.SubDeps,
		Policies:     deps.Policies,
		Outbox:       deps.Outbox,
		Notifier:     deps.Notifier,
		Reviewers:    deps.Reviewers,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	createPlan := commands.CreateSubmissionPlanUseCase{
		Submissions:  deps.Submissions,
		Dependencies: deps.SubDeps,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	uploadContent := commands.UploadContentUseCase{
		Submissions:  deps.Submissions,
		Media:        deps.Media,
		Policies:     deps.Policies,
		Dependencies: deps.SubDeps,
		Ingestion:    deps.Ingestion,
		Logger:       deps.Logger,
	}
	reviewerDecide := commands.ReviewerDecideUseCase{
		Submissions: deps.Submissions,
		Media:       deps.Media,
		Feedback:    deps.Feedback,
		Policies:    deps.Policies,
		Outbox:      deps.Outbox,
		Notifier:    deps.Notifier,
		Reconcile:   reconcile,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	clientDecide := commands.ClientDecideUseCase{
		Submissions: deps.Submissions,
		Media:       deps.Media,
		Feedback:    deps.Feedback,
		Authorizer:  deps.Clients,
		Reconcile:   reconcile,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	forwardFeedback := commands.ForwardFeedbackUseCase{
		Submissions: deps.Submissions,
		Media:       deps.Media,
		Feedback:    deps.Feedback,
		Reconcile:   reconcile,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	editFeedback := commands.EditFeedbackUseCase{
		Feedback: deps.Feedback,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	withdraw := commands.WithdrawUseCase{
		Submissions:  deps.Submissions,
		Media:        deps.Media,
		Feedback:     deps.Feedback,
		Dependencies: deps.SubDeps,
		Outbox:       deps.Outbox,
		Notifier:     deps.Notifier,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Submissions: deps.Submissions,
		Media:       deps.Media,
		Feedback:    deps.Feedback,
		Policies:    deps.Policies,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreatePlan:      createPlan,
			UploadContent:   uploadContent,
			ReviewerDecide:  reviewerDecide,
			ClientDecide:    clientDecide,
			ForwardFeedback: forwardFeedback,
			EditFeedback:    editFeedback,
			Withdraw:        withdraw,
			Reconcile:       reconcile,
			Queries:         queryUseCase,
			Logger:          deps.Logger,
		},
		Reconcile:  reconcile,
		CreatePlan: createPlan,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		DueDateEscalator: workers.DueDateEscalator{
			Submissions: deps.Submissions,
			Outbox:      deps.Outbox,
			Notifier:    deps.Notifier,
			Dedup:       deps.Dedup,
			Clock:       deps.Clock,
			IDGen:       deps.IDGen,
			Disabled:    deps.EscalatorOff,
			Logger:      deps.Logger,
		},
		AcceptedConsumer: workers.CreatorAcceptedConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			CreatePlan: createPlan,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store. The
// caller still supplies ingestion and messaging, which cross module
// boundaries.
func NewInMemoryModule(
	seed []entities.Submission,
	ingestion ports.IngestionEnqueuer,
	publisher ports.EventPublisher,
	subscriber ports.EventSubscriber,
	notifier ports.Notifier,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Submissions: store,
		Media:       store,
		Feedback:    store,
		SubDeps:     store,
		Policies:    store,
		Outbox:      store,
		OutboxRepo:  store,
		Dedup:       store,
		Publisher:   publisher,
		Subscriber:  subscriber,
		Notifier:    notifier,
		Reviewers:   store,
		Clients:     store,
		Ingestion:   ingestion,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
