package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/h1-hospital/telemetry-gateway/internal/alert"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/errors"
)

// Handler provides the operator and consumer HTTP surfaces
type Handler struct {
	svc *Service
}

// NewHandler creates a monitor handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the monitoring routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/subjects/{subjectID}/vitals", h.IngestVitals)
	r.Post("/subjects/{subjectID}/messages", h.SendMessage)
	r.Post("/subjects/{subjectID}/escalate", h.Escalate)
	r.Post("/subjects/{subjectID}/acknowledge", h.Acknowledge)
	r.Get("/subjects/{subjectID}/display", h.Display)

	return r
}

// IngestVitals handles one wearable sample submission
func (h *Handler) IngestVitals(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body: "+err.Error(), nil))
		return
	}

	result, err := h.svc.IngestVitals(r.Context(), subjectID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type messageRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority,omitempty"`
}

// SendMessage handles a care team instruction
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body: "+err.Error(), nil))
		return
	}

	if err := h.svc.SendMessage(r.Context(), subjectID, req.Text, req.Priority); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Escalate handles an operator emergency escalation
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	result, err := h.svc.Escalate(r.Context(), subjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type acknowledgeRequest struct {
	Kind string `json:"kind"`
}

// Acknowledge handles a consumer acknowledgment from the wearable
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body: "+err.Error(), nil))
		return
	}

	state, err := h.svc.Acknowledge(subjectID, alert.AckKind(req.Kind))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Display handles the wearable display read
func (h *Handler) Display(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	view, err := h.svc.Display(subjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
