package vehicle

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
	"atsnet/pkg/platform/httputil"
	"atsnet/pkg/requestcontext"
)

// Handler wires vehicle endpoints to the vehicle service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a vehicle handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts vehicle endpoints on the router. The caller applies auth
// middleware before mounting.
func (h *Handler) Register(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", h.HandleRegister)
		r.Get("/{vehicleID}", h.HandleGet)
		r.Patch("/{vehicleID}", h.HandleUpdate)
		r.Post("/{vehicleID}/documents/{documentType}/verify", h.HandleVerifyDocument)
	})
}

func (h *Handler) vehicleID(r *http.Request) (domain.VehicleID, error) {
	return domain.ParseVehicleID(chi.URLParam(r, "vehicleID"))
}

// HandleRegister handles POST /vehicles.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var doc map[string]any
	if err := httputil.Decode(r, &doc); err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicle, err := h.service.Register(ctx, requestcontext.UserID(ctx).String(), doc)
	if err != nil {
		h.logger.WarnContext(ctx, "vehicle registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "vehicle registered",
		"request_id", requestcontext.RequestID(ctx),
		"vehicle_id", vehicle.ID,
		"registration_number", vehicle.RegistrationNumber,
	)
	httputil.WriteJSON(w, http.StatusCreated, vehicle)
}

// HandleGet handles GET /vehicles/{vehicleID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleID, err := h.vehicleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	vehicle, err := h.service.Get(ctx, vehicleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

// HandleUpdate handles PATCH /vehicles/{vehicleID} with an operator-tagged
// payload ($set, $push, ...).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleID, err := h.vehicleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var ops map[string]any
	if err := httputil.Decode(r, &ops); err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicle, err := h.service.Update(ctx, vehicleID, requestcontext.UserID(ctx).String(), ops)
	if err != nil {
		h.logger.WarnContext(ctx, "vehicle update failed",
			"request_id", requestcontext.RequestID(ctx),
			"vehicle_id", vehicleID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

// HandleVerifyDocument handles POST /vehicles/{vehicleID}/documents/{documentType}/verify.
func (h *Handler) HandleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verifiedBy := requestcontext.UserID(ctx)
	if verifiedBy.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	vehicleID, err := h.vehicleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicle, err := h.service.VerifyDocument(ctx, vehicleID, verifiedBy, chi.URLParam(r, "documentType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}
