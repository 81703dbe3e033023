package commands

import (
	"context"
	"log/slog"
	"strings"

	application "atelier/contexts/content-review/review-service/application"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"
)

type EditFeedbackCommand struct {
	FeedbackID string
	AuthorID   string
	Body       string
}

// EditFeedbackUseCase is the one sanctioned mutation of a feedback row: the
// author fixing a typo. Status, visibility, and references never change
// here, and no reconcile runs.
type EditFeedbackUseCase struct {
	Feedback ports.FeedbackRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc EditFeedbackUseCase) Execute(ctx context.Context, cmd EditFeedbackCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.Body) == "" {
		return domainerrors.ErrInvalidInput
	}

	feedback, err := uc.Feedback.GetFeedback(ctx, strings.TrimSpace(cmd.FeedbackID))
	if err != nil {
		return err
	}
	if feedback.AuthorID != strings.TrimSpace(cmd.AuthorID) {
		return domainerrors.ErrFeedbackNotEditable
	}

	now := uc.Clock.Now().UTC()
	feedback.Body = strings.TrimSpace(cmd.Body)
	feedback.EditedAt = &now
	if err := uc.Feedback.UpdateFeedback(ctx, feedback); err != nil {
		return err
	}

	logger.Info("feedback body edited",
		"event", "feedback_edited",
		"module", "content-review/review-service",
		"layer", "application",
		"feedback_id", feedback.FeedbackID,
	)
	return nil
}
