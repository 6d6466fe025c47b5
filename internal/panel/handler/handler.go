// Package handler exposes the panel over HTTP: the view state as JSON plus
// one endpoint per user action. It is the headless equivalent of the panel's
// render tree and event handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"patientpanel/internal/notify"
	"patientpanel/internal/panel"
	"patientpanel/internal/panel/modal"
	"patientpanel/internal/patient/models"
	"patientpanel/internal/platform/middleware"
	dErrors "patientpanel/pkg/domain-errors"
	"patientpanel/pkg/platform/httputil"
)

// Query is the list cache as the surface consumes it.
type Query interface {
	Ensure()
	Retry()
}

// Notifier exposes the active notification set and manual dismissal.
type Notifier interface {
	Active() []notify.Notification
	Dismiss(id string)
}

// Handler routes panel actions to the orchestrator.
type Handler struct {
	panel    *panel.Service
	query    Query
	notifier Notifier
	logger   *slog.Logger
}

// New creates the panel Handler.
func New(panelService *panel.Service, query Query, notifier Notifier, logger *slog.Logger) *Handler {
	return &Handler{
		panel:    panelService,
		query:    query,
		notifier: notifier,
		logger:   logger,
	}
}

// Register mounts the panel routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.Logger(h.logger))

	router.Get("/panel", h.handleView)
	router.Post("/panel/cards/{id}/toggle", h.handleToggle)
	router.Post("/panel/modal/create", h.handleOpenCreate)
	router.Post("/panel/modal/edit/{id}", h.handleOpenEdit)
	router.Post("/panel/modal/close", h.handleCloseModal)
	router.Post("/panel/modal/key", h.handleKey)
	router.Post("/panel/submit", h.handleSubmit)
	router.Post("/panel/list/retry", h.handleRetry)
	router.Post("/panel/notifications/{id}/dismiss", h.handleDismiss)
	router.Get("/healthz", h.handleHealth)

	r.Mount("/", router)
}

func (h *Handler) view() View {
	return View{
		Title:         panelTitle,
		Subtitle:      panelSubtitle,
		AddLabel:      addLabel,
		List:          buildList(h.panel.Snapshot(), h.panel.ExpandedCard()),
		Modal:         buildModal(h.panel.Modal(), h.panel.EditTarget(), h.panel.Submitting()),
		Notifications: h.notifier.Active(),
	}
}

func (h *Handler) writeView(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusOK, h.view())
}

// handleView renders the panel, kicking off the list fetch if the cache
// entry is missing or stale.
func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	h.query.Ensure()
	h.writeView(w)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	h.panel.ToggleExpand(chi.URLParam(r, "id"))
	h.writeView(w)
}

func (h *Handler) handleOpenCreate(w http.ResponseWriter, r *http.Request) {
	h.panel.OpenCreate()
	h.writeView(w)
}

func (h *Handler) handleOpenEdit(w http.ResponseWriter, r *http.Request) {
	if err := h.panel.OpenEditByID(chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeView(w)
}

func (h *Handler) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	h.panel.CloseModal()
	h.writeView(w)
}

type keyRequest struct {
	Key string `json:"key"`
}

var keysByName = map[string]modal.Key{
	"escape":    modal.KeyEscape,
	"tab":       modal.KeyTab,
	"shift+tab": modal.KeyShiftTab,
}

func (h *Handler) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	key, ok := keysByName[req.Key]
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown key"))
		return
	}
	h.panel.HandleKey(key)
	h.writeView(w)
}

// submitResponse is returned by handleSubmit. A validation rejection renders
// the field errors inline; they never become notifications.
type submitResponse struct {
	Saved       bool              `json:"saved"`
	Record      *models.Record    `json:"record,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	result, err := h.panel.Submit(r.Context(), draft)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(result.FieldErrors) > 0 {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, submitResponse{
			FieldErrors: result.FieldErrors,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submitResponse{Saved: true, Record: &result.Record})
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	h.query.Retry()
	h.writeView(w)
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	h.notifier.Dismiss(chi.URLParam(r, "id"))
	h.writeView(w)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
