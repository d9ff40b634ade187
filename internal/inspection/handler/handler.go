// Package handler exposes the test-session lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atsnet/internal/inspection"
	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
	"atsnet/pkg/platform/httputil"
	"atsnet/pkg/requestcontext"
)

// Service defines the session operations the handler consumes.
type Service interface {
	Schedule(ctx context.Context, actorID string, doc map[string]any) (*inspection.TestSession, error)
	Get(ctx context.Context, sessionID domain.SessionID) (*inspection.TestSession, error)
	Start(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error)
	Complete(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error)
	Interrupt(ctx context.Context, sessionID domain.SessionID, actorID, reason string) (*inspection.TestSession, error)
	Resume(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error)
	Cancel(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error)
	Verify(ctx context.Context, sessionID domain.SessionID, verifiedBy domain.UserID, checks []inspection.QualityCheck, notes string) (*inspection.TestSession, error)
	Reject(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error)
	RecordMeasurement(ctx context.Context, sessionID domain.SessionID, testType string, m inspection.Measurement) (*inspection.TestSession, error)
	RecordQualityCheck(ctx context.Context, sessionID domain.SessionID, check inspection.QualityCheck) (*inspection.TestSession, error)
	ReportIssue(ctx context.Context, sessionID domain.SessionID, reportedBy domain.UserID, description string) (*inspection.TestSession, error)
	Trend(ctx context.Context, sessionID domain.SessionID, testType, parameter string) (inspection.Trend, error)
}

// Handler wires session endpoints to the session service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a session handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts session endpoints on the router. The caller applies auth
// middleware before mounting.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.HandleSchedule)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Post("/start", h.HandleStart)
			r.Post("/complete", h.HandleComplete)
			r.Post("/interrupt", h.HandleInterrupt)
			r.Post("/resume", h.HandleResume)
			r.Post("/cancel", h.HandleCancel)
			r.Post("/verify", h.HandleVerify)
			r.Post("/reject", h.HandleReject)
			r.Post("/measurements", h.HandleRecordMeasurement)
			r.Post("/quality-checks", h.HandleRecordQualityCheck)
			r.Post("/issues", h.HandleReportIssue)
			r.Get("/trend", h.HandleTrend)
		})
	})
}

func (h *Handler) sessionID(r *http.Request) (domain.SessionID, error) {
	return domain.ParseSessionID(chi.URLParam(r, "sessionID"))
}

// HandleSchedule handles POST /sessions.
func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.UserID(ctx)

	var doc map[string]any
	if err := httputil.Decode(r, &doc); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if _, ok := doc["operatorId"]; !ok && !actorID.IsNil() {
		doc["operatorId"] = actorID.String()
	}

	session, err := h.service.Schedule(ctx, actorID.String(), doc)
	if err != nil {
		h.logger.WarnContext(ctx, "session scheduling failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "session scheduled",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", session.ID,
		"session_code", session.SessionCode,
	)
	httputil.WriteJSON(w, http.StatusCreated, session)
}

// HandleGet handles GET /sessions/{sessionID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.service.Get(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// transition wraps the shared plumbing of the simple lifecycle endpoints.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, apply func(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error)) {
	ctx := r.Context()
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := apply(ctx, sessionID, requestcontext.UserID(ctx).String())
	if err != nil {
		h.logger.WarnContext(ctx, "session transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"transition", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleStart handles POST /sessions/{sessionID}/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", h.service.Start)
}

// HandleComplete handles POST /sessions/{sessionID}/complete.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", h.service.Complete)
}

// HandleResume handles POST /sessions/{sessionID}/resume.
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resume", h.service.Resume)
}

// HandleCancel handles POST /sessions/{sessionID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", h.service.Cancel)
}

// HandleReject handles POST /sessions/{sessionID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject", h.service.Reject)
}

// HandleInterrupt handles POST /sessions/{sessionID}/interrupt.
func (h *Handler) HandleInterrupt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req interruptRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Reason == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "interruption reason is required"))
		return
	}
	session, err := h.service.Interrupt(ctx, sessionID, requestcontext.UserID(ctx).String(), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleVerify handles POST /sessions/{sessionID}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verifiedBy := requestcontext.UserID(ctx)
	if verifiedBy.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req verifyRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	checks, err := req.ToQualityChecks()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.service.Verify(ctx, sessionID, verifiedBy, checks, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "session verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleRecordMeasurement handles POST /sessions/{sessionID}/measurements.
func (h *Handler) HandleRecordMeasurement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req measurementRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := req.ToMeasurement(requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.service.RecordMeasurement(ctx, sessionID, req.TestType, m)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleRecordQualityCheck handles POST /sessions/{sessionID}/quality-checks.
func (h *Handler) HandleRecordQualityCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req qualityCheckRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	check, err := req.ToQualityCheck()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.service.RecordQualityCheck(ctx, sessionID, check)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleReportIssue handles POST /sessions/{sessionID}/issues.
func (h *Handler) HandleReportIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportedBy := requestcontext.UserID(ctx)
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req issueRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.service.ReportIssue(ctx, sessionID, reportedBy, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleTrend handles GET /sessions/{sessionID}/trend?testType=...&parameter=...
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	testType := r.URL.Query().Get("testType")
	if testType == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "testType query parameter is required"))
		return
	}
	trend, err := h.service.Trend(ctx, sessionID, testType, r.URL.Query().Get("parameter"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trend)
}
