package center

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atsnet/pkg/domain"
	"atsnet/pkg/platform/httputil"
	"atsnet/pkg/requestcontext"
)

// Handler wires center endpoints to the center service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a center handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts center endpoints on the router. The caller applies auth
// middleware before mounting.
func (h *Handler) Register(r chi.Router) {
	r.Route("/centers", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{centerID}", h.HandleGet)
		r.Patch("/{centerID}", h.HandleUpdate)
	})
}

// HandleCreate handles POST /centers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var doc map[string]any
	if err := httputil.Decode(r, &doc); err != nil {
		httputil.WriteError(w, err)
		return
	}

	center, err := h.service.Create(ctx, requestcontext.UserID(ctx).String(), doc)
	if err != nil {
		h.logger.WarnContext(ctx, "center creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "center created",
		"request_id", requestcontext.RequestID(ctx),
		"center_id", center.ID,
		"center_code", center.CenterCode,
	)
	httputil.WriteJSON(w, http.StatusCreated, center)
}

// HandleGet handles GET /centers/{centerID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	centerID, err := domain.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	center, err := h.service.Get(ctx, centerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, center)
}

// HandleUpdate handles PATCH /centers/{centerID} with an operator-tagged
// payload ($set, $push, ...).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	centerID, err := domain.ParseCenterID(chi.URLParam(r, "centerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var ops map[string]any
	if err := httputil.Decode(r, &ops); err != nil {
		httputil.WriteError(w, err)
		return
	}

	center, err := h.service.Update(ctx, centerID, requestcontext.UserID(ctx).String(), ops)
	if err != nil {
		h.logger.WarnContext(ctx, "center update failed",
			"request_id", requestcontext.RequestID(ctx),
			"center_id", centerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, center)
}
