package tips

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/api"
	"github.com/FACorreiaa/commhub-api/pkg/interceptors"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/", h.SubmitTip)
}

type submitTipResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, categoriesResponse{Categories: types.TipCategories})
}

// SubmitTip handles POST / and answers 201 with the queued tip id.
func (h *Handler) SubmitTip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TipsHandler").Start(r.Context(), "SubmitTip", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/tips"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.SubmitTipParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	tip, err := h.service.SubmitTip(ctx, userID, params)
	if err != nil {
		h.logger.WarnContext(ctx, "Tip submission failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Failed to submit your tip. Please try again.")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, submitTipResponse{ID: tip.ID, Status: tip.Status})
}
