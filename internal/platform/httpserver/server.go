package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	reviewservice "atelier/contexts/content-review/review-service"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	reviewhttp "atelier/contexts/content-review/review-service/transport/http"
	"atelier/internal/platform/realtime"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "atelier/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	review reviewservice.Module
	hub    *realtime.Hub
}

func New(
	review reviewservice.Module,
	hub *realtime.Hub,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		review: review,
		hub:    hub,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /campaigns/{campaign_id}/submission-plans", s.handleCreatePlan)
	s.mux.HandleFunc("POST /campaigns/{campaign_id}/creators/{creator_id}/withdraw", s.handleWithdrawCreator)

	s.mux.HandleFunc("GET /submissions", s.handleListSubmissions)
	s.mux.HandleFunc("GET /submissions/{submission_id}", s.handleGetSubmission)
	s.mux.HandleFunc("POST /submissions/{submission_id}/content", s.handleUploadContent)
	s.mux.HandleFunc("POST /submissions/{submission_id}/withdraw", s.handleWithdrawSubmission)
	s.mux.HandleFunc("POST /submissions/{submission_id}/reconcile", s.handleReconcile)

	s.mux.HandleFunc("POST /media/{media_id}/review", s.handleReviewerDecide)
	s.mux.HandleFunc("POST /media/{media_id}/client-review", s.handleClientDecide)
	s.mux.HandleFunc("POST /media/{media_id}/forward", s.handleForwardFeedback)

	s.mux.HandleFunc("PATCH /feedback/{feedback_id}", s.handleEditFeedback)

	s.mux.HandleFunc("GET /events/stream", s.handleEventStream)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req reviewhttp.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.CreatePlanHandler(r.Context(), r.PathValue("campaign_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.review.Handler.ListSubmissionsHandler(
		r.Context(),
		query.Get("campaign_id"),
		query.Get("creator_id"),
		query.Get("status"),
		resolveRole(r),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	resp, err := s.review.Handler.GetSubmissionHandler(r.Context(), r.PathValue("submission_id"), resolveRole(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.UploadContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.UploadContentHandler(r.Context(), userID, r.PathValue("submission_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleWithdrawSubmission(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.review.Handler.WithdrawSubmissionHandler(r.Context(), userID, r.PathValue("submission_id"), req); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWithdrawCreator(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	err := s.review.Handler.WithdrawCreatorHandler(
		r.Context(),
		userID,
		r.PathValue("campaign_id"),
		r.PathValue("creator_id"),
		req,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.review.Handler.ReconcileSubmissionHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewerDecide(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.ReviewerDecideHandler(r.Context(), userID, r.PathValue("media_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClientDecide(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.ClientDecideHandler(r.Context(), userID, r.PathValue("media_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForwardFeedback(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.ForwardFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.ForwardFeedbackHandler(r.Context(), userID, r.PathValue("media_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditFeedback(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewhttp.EditFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.review.Handler.EditFeedbackHandler(r.Context(), userID, r.PathValue("feedback_id"), req); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEventStream serves notifications and transcode progress over
// server-sent events. Reconnecting replaces the previous stream for the
// same user.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream_unsupported", "response writer does not support streaming")
		return
	}

	events := s.hub.Subscribe(userID)
	defer s.hub.Unsubscribe(userID, events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	encoder := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := encoder.Encode(event); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrSubmissionNotFound),
		errors.Is(err, domainerrors.ErrMediaItemNotFound),
		errors.Is(err, domainerrors.ErrFeedbackNotFound),
		errors.Is(err, domainerrors.ErrDependencyNotFound),
		errors.Is(err, domainerrors.ErrPolicyNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorizedActor):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domainerrors.ErrDependencyNotSatisfied):
		writeError(w, http.StatusConflict, "dependency_not_satisfied", err.Error())
	case errors.Is(err, domainerrors.ErrFeedbackNotEditable):
		writeError(w, http.StatusForbidden, "feedback_not_editable", err.Error())
	case errors.Is(err, domainerrors.ErrVideoQuotaExceeded):
		writeError(w, http.StatusConflict, "video_quota_exceeded", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateSubmissionPlan):
		writeError(w, http.StatusConflict, "plan_exists", err.Error())
	case errors.Is(err, domainerrors.ErrVersionConflict):
		writeError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) string {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
	}
	return userID
}

func resolveRole(r *http.Request) string {
	role := strings.TrimSpace(r.Header.Get("X-User-Role"))
	if role == "" {
		return "reviewer"
	}
	return role
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reviewhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
