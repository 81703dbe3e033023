package errors

import "errors"

var (
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrMediaItemNotFound       = errors.New("media item not found")
	ErrFeedbackNotFound        = errors.New("feedback not found")
	ErrDependencyNotFound      = errors.New("submission dependency not found")
	ErrPolicyNotFound          = errors.New("campaign review policy not found")
	ErrInvalidInput            = errors.New("invalid review input")
	ErrInvalidStateTransition  = errors.New("invalid status for requested action")
	ErrUnauthorizedActor       = errors.New("actor is not authorized")
	ErrVideoQuotaExceeded      = errors.New("campaign video quota exceeded")
	ErrDependencyNotSatisfied  = errors.New("base submission not yet accepted")
	ErrVersionConflict         = errors.New("submission version conflict")
	ErrFeedbackNotEditable     = errors.New("feedback may only be edited by its author")
	ErrDuplicateSubmissionPlan = errors.New("submission plan already created for creator")
)
