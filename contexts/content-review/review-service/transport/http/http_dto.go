package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StagedFileRequest struct {
	Kind      string `json:"kind"`
	LocalPath string `json:"local_path"`
	MediaID   string `json:"media_id,omitempty"`
}

type UploadContentRequest struct {
	Caption     string              `json:"caption"`
	RawFileLink string              `json:"raw_file_link"`
	Files       []StagedFileRequest `json:"files"`
}

type DecideRequest struct {
	Approve bool `json:"approve"`
	// Reject is the reviewer-only hard verdict: the item and its whole
	// submission become rejected with no revision loop.
	Reject      bool     `json:"reject,omitempty"`
	Feedback    string   `json:"feedback"`
	ReasonCodes []string `json:"reason_codes"`
}

type ForwardFeedbackRequest struct {
	ReviewerNote string `json:"reviewer_note"`
}

type WithdrawRequest struct {
	Reason string `json:"reason"`
}

type EditFeedbackRequest struct {
	Body string `json:"body"`
}

type CreatePlanStepRequest struct {
	Kind      string `json:"kind"`
	DependsOn int    `json:"depends_on"`
	DueDate   string `json:"due_date,omitempty"`
}

type CreatePlanRequest struct {
	CreatorID string                  `json:"creator_id"`
	Plan      []CreatePlanStepRequest `json:"plan"`
}

type MediaItemDTO struct {
	MediaID       string   `json:"media_id"`
	SubmissionID  string   `json:"submission_id"`
	Kind          string   `json:"kind"`
	URL           string   `json:"url,omitempty"`
	Status        string   `json:"status"`
	FeedbackNote  string   `json:"feedback_note,omitempty"`
	ReasonCodes   []string `json:"reason_codes,omitempty"`
	RevisionCount int      `json:"revision_count"`
}

type FeedbackDTO struct {
	FeedbackID       string   `json:"feedback_id"`
	AuthorRole       string   `json:"author_role"`
	Body             string   `json:"body"`
	MediaIDs         []string `json:"media_ids,omitempty"`
	VisibleToCreator bool     `json:"visible_to_creator"`
	CreatedAt        string   `json:"created_at"`
}

type SubmissionDTO struct {
	SubmissionID  string         `json:"submission_id"`
	CampaignID    string         `json:"campaign_id"`
	CreatorID     string         `json:"creator_id"`
	Kind          string         `json:"kind"`
	Status        string         `json:"status"`
	DisplayStatus string         `json:"display_status"`
	Caption       string         `json:"caption,omitempty"`
	RawFileLink   string         `json:"raw_file_link,omitempty"`
	DueDate       string         `json:"due_date,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	Media         []MediaItemDTO `json:"media"`
	Feedback      []FeedbackDTO  `json:"feedback"`
}

type GetSubmissionResponse struct {
	Submission SubmissionDTO `json:"submission"`
}

type ListSubmissionsResponse struct {
	Items []SubmissionDTO `json:"items"`
}

type CreatePlanResponse struct {
	Items []SubmissionDTO `json:"items"`
}

type DecideResponse struct {
	SubmissionStatus string `json:"submission_status"`
}

type UploadAcceptedResponse struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
}
