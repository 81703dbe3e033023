package services

import (
	"atelier/contexts/content-review/review-service/domain/entities"
)

// ReviewSnapshot is everything Recompute needs: the submission row and the
// media items in scope for it. For draft-like kinds the caller aggregates
// items across every sibling submission of the same creator and campaign,
// because one logical draft may be split over many rows.
type ReviewSnapshot struct {
	Submission entities.Submission
	Policy     entities.ReviewPolicy
	Items      []entities.MediaItem
}

// Outcome is the decision Recompute reaches for one snapshot. ActivateNext
// asks the apply step to move the next dependent submission out of
// not_started; NeededRevision selects final_draft over posting when choosing
// which dependent to wake.
type Outcome struct {
	Status         entities.SubmissionStatus
	Changed        bool
	ActivateNext   bool
	NeededRevision bool
}

type kindTally struct {
	uploaded          int
	approved          int
	sentToClient      int
	revisionRequested int
	clientFeedback    int
	pending           int
}

// Recompute derives the submission status from its media items. It is a pure
// function of the snapshot: calling it twice, or on a stale ordering of
// mutations, converges to the same status. Rules are evaluated in priority
// order and the first match wins; reordering them breaks correctness.
func Recompute(snap ReviewSnapshot) Outcome {
	current := snap.Submission.Status
	unchanged := Outcome{Status: current}

	// Absorbing states and pre-upload states are never reconciled away.
	if current.Terminal() {
		return unchanged
	}

	tallies := make(map[entities.MediaKind]*kindTally)
	anyRevisionRequested := false
	anyClientFeedback := false
	anyFlagged := false
	anyPending := false
	everRevised := false
	totalUploaded := 0

	for _, item := range snap.Items {
		t := tallies[item.Kind]
		if t == nil {
			t = &kindTally{}
			tallies[item.Kind] = t
		}
		totalUploaded++
		t.uploaded++
		switch item.Status {
		case entities.MediaStatusApproved:
			t.approved++
		case entities.MediaStatusSentToClient:
			t.sentToClient++
		case entities.MediaStatusRevisionRequested:
			t.revisionRequested++
			anyRevisionRequested = true
		case entities.MediaStatusClientFeedback:
			t.clientFeedback++
			anyClientFeedback = true
		case entities.MediaStatusPending:
			t.pending++
			anyPending = true
		}
		if item.Status.Flagged() {
			anyFlagged = true
		}
		if item.RevisionCount > 0 {
			everRevised = true
		}
	}

	required := snap.Policy.RequiredKinds()

	// Upload gate: a submission only enters review once every required kind
	// has at least one item. Until then the coarse status tracks whether any
	// upload landed at all.
	if !everyKindUploaded(tallies, required) {
		if totalUploaded > 0 && current == entities.SubmissionStatusNotStarted {
			return Outcome{Status: entities.SubmissionStatusInProgress, Changed: true}
		}
		return unchanged
	}
	if current == entities.SubmissionStatusNotStarted || current == entities.SubmissionStatusInProgress {
		return Outcome{Status: entities.SubmissionStatusPendingReview, Changed: true}
	}

	// Rule 1: hard revision pending and every uploaded item triaged by the
	// reviewer. The creator gets the full change list at once, never a
	// partially reviewed batch.
	if anyRevisionRequested && allItemsTriaged(snap.Items) {
		return changedTo(current, entities.SubmissionStatusChangesRequired)
	}

	// Rule 2: client flagged items and the client has rendered a verdict on
	// everything it was sent. A partially reviewed client batch leaves the
	// status untouched so a mixed state is not revealed prematurely.
	if anyClientFeedback && allItemsClientSettled(snap.Items) {
		return changedTo(current, entities.SubmissionStatusClientFeedback)
	}

	// Resubmission: every flagged row was replaced and sits pending again,
	// so the review loop starts over. This must precede the origin split;
	// internal campaigns resubmit through the same path.
	if current == entities.SubmissionStatusChangesRequired && !anyFlagged && anyPending {
		return Outcome{Status: entities.SubmissionStatusPendingReview, Changed: true}
	}

	// Internal-origin campaigns have no client hop: reviewer approval is
	// terminal for each item, so full approval replaces rules 3 through 5.
	if snap.Policy.Origin == entities.OriginInternal {
		if reviewable(current) && everyKindFullyApproved(tallies, required) && !anyFlagged {
			return Outcome{
				Status:         entities.SubmissionStatusApproved,
				Changed:        true,
				ActivateNext:   true,
				NeededRevision: everRevised,
			}
		}
		if current == entities.SubmissionStatusApproved &&
			(!everyKindFullyApproved(tallies, required) || anyFlagged) {
			return Outcome{Status: entities.SubmissionStatusPendingReview, Changed: true}
		}
		return unchanged
	}

	// Rule 3: every required kind fully forwarded by the reviewer, nothing
	// flagged: the package goes to the client.
	if reviewable(current) && everyKindFullySent(tallies, required) && !anyFlagged {
		return changedTo(current, entities.SubmissionStatusSentToClient)
	}

	// Rule 4: the client approved everything. Also wakes the next submission
	// in the dependency chain.
	if current == entities.SubmissionStatusSentToClient &&
		everyKindFullyApproved(tallies, required) && !anyFlagged {
		return Outcome{
			Status:         entities.SubmissionStatusClientApproved,
			Changed:        true,
			ActivateNext:   true,
			NeededRevision: everRevised,
		}
	}

	// Rule 5: regression guard. A later correction reopened an item after
	// client approval; fall back so redundant or concurrent recomputes stay
	// self-correcting rather than merely forward-moving.
	if current == entities.SubmissionStatusClientApproved &&
		(!everyKindFullyApproved(tallies, required) || anyFlagged) {
		return Outcome{Status: entities.SubmissionStatusSentToClient, Changed: true}
	}

	// Rule 6: nothing matched, leave the status alone. Unexpected child
	// combinations are fail-safe, not fail-fast.
	return unchanged
}

func changedTo(current, next entities.SubmissionStatus) Outcome {
	if current == next {
		return Outcome{Status: current}
	}
	return Outcome{Status: next, Changed: true}
}

func reviewable(status entities.SubmissionStatus) bool {
	switch status {
	case entities.SubmissionStatusPendingReview,
		entities.SubmissionStatusChangesRequired,
		entities.SubmissionStatusClientFeedback:
		return true
	}
	return false
}

func everyKindUploaded(tallies map[entities.MediaKind]*kindTally, required []entities.MediaKind) bool {
	for _, kind := range required {
		t := tallies[kind]
		if t == nil || t.uploaded == 0 {
			return false
		}
	}
	return true
}

func everyKindFullySent(tallies map[entities.MediaKind]*kindTally, required []entities.MediaKind) bool {
	for _, kind := range required {
		t := tallies[kind]
		if t == nil || t.uploaded == 0 || t.sentToClient != t.uploaded {
			return false
		}
	}
	return true
}

func everyKindFullyApproved(tallies map[entities.MediaKind]*kindTally, required []entities.MediaKind) bool {
	for _, kind := range required {
		t := tallies[kind]
		if t == nil || t.uploaded == 0 || t.approved < t.uploaded {
			return false
		}
	}
	return true
}

// allItemsTriaged: the reviewer has decided on every uploaded item. A
// client_feedback item does not count, it still awaits a reviewer forward
// and belongs to rule 2.
func allItemsTriaged(items []entities.MediaItem) bool {
	for _, item := range items {
		switch item.Status {
		case entities.MediaStatusSentToClient, entities.MediaStatusRevisionRequested,
			entities.MediaStatusApproved, entities.MediaStatusRejected:
		default:
			return false
		}
	}
	return true
}

// allItemsClientSettled: the client has rendered a verdict on every item it
// could see (revision_requested items are already back with the creator).
func allItemsClientSettled(items []entities.MediaItem) bool {
	for _, item := range items {
		switch item.Status {
		case entities.MediaStatusApproved, entities.MediaStatusRevisionRequested,
			entities.MediaStatusClientFeedback, entities.MediaStatusRejected:
		default:
			return false
		}
	}
	return true
}
