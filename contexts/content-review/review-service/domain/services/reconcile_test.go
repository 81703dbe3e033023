package services

import (
	"testing"

	"atelier/contexts/content-review/review-service/domain/entities"
)

func snapshot(status entities.SubmissionStatus, policy entities.ReviewPolicy, items ...entities.MediaItem) ReviewSnapshot {
	return ReviewSnapshot{
		Submission: entities.Submission{
			SubmissionID: "sub-1",
			CampaignID:   "camp-1",
			CreatorID:    "creator-1",
			Kind:         entities.SubmissionKindFirstDraft,
			Status:       status,
		},
		Policy: policy,
		Items:  items,
	}
}

func item(kind entities.MediaKind, status entities.MediaItemStatus) entities.MediaItem {
	return entities.MediaItem{MediaID: "m-" + string(kind) + "-" + string(status), Kind: kind, Status: status}
}

func externalPolicy() entities.ReviewPolicy {
	return entities.ReviewPolicy{CampaignID: "camp-1", Origin: entities.OriginExternal}
}

func TestRecomputeTerminalStatusesAreAbsorbing(t *testing.T) {
	for _, status := range []entities.SubmissionStatus{
		entities.SubmissionStatusCompleted,
		entities.SubmissionStatusPosted,
		entities.SubmissionStatusWithdrawn,
		entities.SubmissionStatusRejected,
	} {
		outcome := Recompute(snapshot(status, externalPolicy(),
			item(entities.MediaKindVideo, entities.MediaStatusRevisionRequested),
		))
		if outcome.Changed {
			t.Fatalf("terminal status %s must not change, got %s", status, outcome.Status)
		}
	}
}

func TestRecomputeUploadGateHoldsUntilEveryRequiredKind(t *testing.T) {
	policy := externalPolicy()
	policy.RequirePhoto = true

	// Video only, photo still missing: first upload moves not_started to
	// in_progress and nothing further.
	outcome := Recompute(snapshot(entities.SubmissionStatusNotStarted, policy,
		item(entities.MediaKindVideo, entities.MediaStatusPending),
	))
	if !outcome.Changed || outcome.Status != entities.SubmissionStatusInProgress {
		t.Fatalf("expected in_progress behind the upload gate, got %+v", outcome)
	}

	outcome = Recompute(snapshot(entities.SubmissionStatusInProgress, policy,
		item(entities.MediaKindVideo, entities.MediaStatusPending),
	))
	if outcome.Changed {
		t.Fatalf("missing required kind must not enter review, got %+v", outcome)
	}

	// Both kinds present: the submission enters review.
	outcome = Recompute(snapshot(entities.SubmissionStatusInProgress, policy,
		item(entities.MediaKindVideo, entities.MediaStatusPending),
		item(entities.MediaKindPhoto, entities.MediaStatusPending),
	))
	if outcome.Status != entities.SubmissionStatusPendingReview || !outcome.Changed {
		t.Fatalf("expected pending_review once every kind uploaded, got %+v", outcome)
	}
}

func TestRecomputeChangesRequiredWaitsForFullTriage(t *testing.T) {
	// One item flagged for revision but a sibling still pending: the creator
	// must not receive a partial change list.
	outcome := Recompute(snapshot(entities.SubmissionStatusPendingReview, externalPolicy(),
		item(entities.MediaKindVideo, entities.MediaStatusRevisionRequested),
		item(entities.MediaKindVideo, entities.MediaStatusPending),
	))
	if outcome.Changed {
		t.Fatalf("partial triage must hold status, got %+v", outcome)
	}

	outcome = Recompute(snapshot(entities.SubmissionStatusPendingReview, externalPolicy(),
		item(entities.MediaKindVideo, entities.MediaStatusRevisionRequested),
		item(entities.MediaKindVideo, entities.MediaStatusSentToClient),
	))
	if outcome.Status != entities.SubmissionStatusChangesRequired || !outcome.Changed {
		t.Fatalf("expected changes_required after full triage, got %+v", outcome)
	}
}

func TestRecomputeResubmissionReentersReview(t *testing.T) {
	// The creator replaced the flagged row; it sits pending again and the
	// review loop starts over.
	revised := item(entities.MediaKindVideo, entities.MediaStatusPending)
	revised.RevisionCount = 1
	outcome := Recompute(snapshot(entities.SubmissionStatusChangesRequired, externalPolicy(), revised))
	if outcome.Status != entities.SubmissionStatusPendingReview || !outcome.Changed {
		t.Fatalf("expected pending_review after resubmission, got %+v", outcome)
	}

	// Same path for internal-origin campaigns.
	internal := entities.ReviewPolicy{CampaignID: "camp-1", Origin: entities.OriginInternal}
	outcome = Recompute(snapshot(entities.SubmissionStatusChangesRequired, internal, revised))
	if outcome.Status != entities.SubmissionStatusPendingReview || !outcome.Changed {
		t.Fatalf("expected pending_review for internal resubmission, got %+v", outcome)
	}

	// A still-flagged sibling keeps the change list open.
	outcome = Recompute(snapshot(entities.SubmissionStatusChangesRequired, externalPolicy(),
		revised,
		item(entities.MediaKindVideo, entities.MediaStatusRevisionRequested),
	))
	if outcome.Changed {
		t.Fatalf("partial resubmission must hold changes_required, got %+v", outcome)
	}
}

func TestRecomputeClientFeedbackWaitsForClientVerdicts(t *testing.T) {
	// The client flagged one item but has not decided the other yet.
	outcome := Recompute(snapshot(entities.SubmissionStatusSentToClient, externalPolicy(),
		item(entities.MediaKindVideo, entities.MediaStatusClientFeedback),
		item(entities.MediaKindVideo, entities.MediaStatusSentToClient),
	))
	if outcome.Changed {
		t.Fatalf("pending client verdicts must hold status, got %+v", outcome)
	}

	outcome = Recompute(snapshot(entities.SubmissionStatusSentToClient, externalPolicy(),
		item(entities.MediaKindVideo, entities.MediaStatusClientFeedback),
		item(entities.MediaKindVideo, entities.MediaStatusApproved),
	))
	if outcome.Status != entities.SubmissionStatusClientFeedback || !outcome.Changed {
		t.Fatalf("expected client_feedback once the client settled everything, got %+v", outcome)
	}
}

func TestRecomputeSentToClientRequiresEveryKindFullySent(t *testing.T) {
	policy := externalPolicy()
	policy.RequireRawFootage = true

	outcome := Recompute(snapshot(entities.SubmissionStatusPendingReview, policy,
		item(entities.MediaKindVideo, entities.MediaStatusSentToClient),
		item(entities.MediaKindRawFootage, entities.MediaStatusPending),
	))
	if outcome.Changed {
		t.Fatalf("partially reviewed batch must not go to client, got %+v", outcome)
	}

	outcome = Recompute(snapshot(entities.SubmissionStatusPendingReview, policy,
		item(entities.MediaKindVideo, entities.MediaStatusSentToClient),
		item(entities.MediaKindRawFootage, entities.MediaStatusSentToClient),
	))
	if outcome.Status != entities.SubmissionStatusSentToClient || !outcome.Changed {
		t.Fatalf("expected sent_to_client, got %+v", outcome)
	}
}

func TestRecomputeClientApprovedActivatesNext(t *testing.T) {
	revised := item(entities.MediaKindVideo, entities.MediaStatusApproved)
	revised.RevisionCount = 1

	outcome := Recompute(snapshot(entities.SubmissionStatusSentToClient, externalPolicy(), revised))
	if outcome.Status != entities.SubmissionStatusClientApproved || !outcome.Changed {
		t.Fatalf("expected client_approved, got %+v", outcome)
	}
	if !outcome.ActivateNext {
		t.Fatalf("full approval must activate the dependent submission")
	}
	if !outcome.NeededRevision {
		t.Fatalf("revised item must mark the submission as having needed revision")
	}
}

func TestRecomputeApprovalRegressionFallsBack(t *testing.T) {
	// A resubmission after client approval reopens the loop.
	outcome := Recompute(snapshot(entities.SubmissionStatusClientApproved, externalPolicy(),
		item(entities.MediaKindVideo, entities.MediaStatusApproved),
		item(entities.MediaKindVideo, entities.MediaStatusPending),
	))
	if outcome.Status != entities.SubmissionStatusSentToClient || !outcome.Changed {
		t.Fatalf("expected regression to sent_to_client, got %+v", outcome)
	}
}

func TestRecomputeInternalOriginSkipsClientHop(t *testing.T) {
	policy := entities.ReviewPolicy{CampaignID: "camp-1", Origin: entities.OriginInternal}

	outcome := Recompute(snapshot(entities.SubmissionStatusPendingReview, policy,
		item(entities.MediaKindVideo, entities.MediaStatusApproved),
	))
	if outcome.Status != entities.SubmissionStatusApproved || !outcome.Changed {
		t.Fatalf("internal campaign should finish at approved, got %+v", outcome)
	}
	if !outcome.ActivateNext {
		t.Fatalf("internal approval must activate the dependent submission")
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	snapshots := []ReviewSnapshot{
		snapshot(entities.SubmissionStatusPendingReview, externalPolicy(),
			item(entities.MediaKindVideo, entities.MediaStatusRevisionRequested),
			item(entities.MediaKindVideo, entities.MediaStatusApproved),
		),
		snapshot(entities.SubmissionStatusSentToClient, externalPolicy(),
			item(entities.MediaKindVideo, entities.MediaStatusApproved),
		),
		snapshot(entities.SubmissionStatusInProgress, externalPolicy(),
			item(entities.MediaKindVideo, entities.MediaStatusPending),
		),
	}
	for i, snap := range snapshots {
		first := Recompute(snap)
		snap.Submission.Status = first.Status
		second := Recompute(snap)
		if second.Changed {
			t.Fatalf("case %d: second pass changed %s to %s", i, first.Status, second.Status)
		}
	}
}

func TestDisplayStatusProjections(t *testing.T) {
	cases := []struct {
		stored entities.SubmissionStatus
		role   ViewerRole
		origin entities.CampaignOrigin
		want   string
	}{
		{entities.SubmissionStatusPendingReview, RoleCreator, entities.OriginExternal, "in_review"},
		{entities.SubmissionStatusSentToClient, RoleCreator, entities.OriginExternal, "in_review"},
		{entities.SubmissionStatusClientApproved, RoleCreator, entities.OriginExternal, "approved"},
		{entities.SubmissionStatusPendingReview, RoleClient, entities.OriginExternal, "awaiting_content"},
		{entities.SubmissionStatusSentToClient, RoleClient, entities.OriginExternal, "awaiting_your_review"},
		{entities.SubmissionStatusClientFeedback, RoleClient, entities.OriginExternal, "feedback_sent"},
		{entities.SubmissionStatusSentToClient, RoleReviewer, entities.OriginInternal, "approved_internal"},
		{entities.SubmissionStatusChangesRequired, RoleReviewer, entities.OriginExternal, string(entities.SubmissionStatusChangesRequired)},
	}
	for _, c := range cases {
		got := DisplayStatus(c.stored, c.role, c.origin)
		if got != c.want {
			t.Fatalf("DisplayStatus(%s, %s, %s) = %s, want %s", c.stored, c.role, c.origin, got, c.want)
		}
	}
}
