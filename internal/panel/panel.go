// Package panel is the top-level coordinator: it owns which record is being
// edited, which card is expanded, and composes the modal, validation,
// mutation and list-cache pieces into one flow.
package panel

import (
	"context"
	"log/slog"
	"sync"

	"patientpanel/internal/panel/modal"
	"patientpanel/internal/patient/cache"
	"patientpanel/internal/patient/models"
	"patientpanel/internal/patient/validate"
	dErrors "patientpanel/pkg/domain-errors"
)

// Modal dialog labels.
const (
	titleCreate      = "Nuevo paciente"
	titleEdit        = "Editar paciente"
	modalDescription = "Completa la información obligatoria para guardar los cambios."
)

// Query is the list cache as the panel consumes it.
type Query interface {
	Snapshot() cache.Snapshot
	Ensure()
	Retry()
}

// Mutator executes create/update with their side effects.
type Mutator interface {
	Create(ctx context.Context, draft models.Draft) (models.Record, error)
	Update(ctx context.Context, id string, draft models.Draft) (models.Record, error)
}

// SubmitResult reports what a submission produced. FieldErrors non-empty
// means validation rejected the draft and nothing reached the network.
type SubmitResult struct {
	FieldErrors map[string]string
	Record      models.Record
	Saved       bool
}

// Service owns the panel's ephemeral UI state. At most one card is expanded
// and at most one mutation is in flight at a time.
type Service struct {
	modal     *modal.Controller
	query     Query
	mutator   Mutator
	validator *validate.Engine
	logger    *slog.Logger

	mu             sync.Mutex
	editTarget     *models.Record
	expandedCardID string
	submitting     bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs the panel Service.
func New(modalController *modal.Controller, query Query, mutator Mutator, validator *validate.Engine, opts ...Option) *Service {
	s := &Service{
		modal:     modalController,
		query:     query,
		mutator:   mutator,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenCreate opens the modal with an empty form.
func (s *Service) OpenCreate() {
	s.mu.Lock()
	s.editTarget = nil
	s.mu.Unlock()
	s.modal.Open(titleCreate, modalDescription)
}

// OpenEdit opens the modal pre-filled with the given record. The stored copy
// is read-only; it seeds the form and identifies the update target.
func (s *Service) OpenEdit(record models.Record) {
	s.mu.Lock()
	s.editTarget = &record
	s.mu.Unlock()
	s.modal.Open(titleEdit, modalDescription)
}

// OpenEditByID looks the record up in the list cache and opens the edit
// modal. Unknown ids are rejected.
func (s *Service) OpenEditByID(id string) error {
	for _, record := range s.query.Snapshot().Records {
		if record.ID == id {
			s.OpenEdit(record)
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "paciente no encontrado")
}

// CloseModal closes the modal and always clears the edit target: the target
// exists only while the modal is open.
func (s *Service) CloseModal() {
	s.modal.Close()
	s.mu.Lock()
	s.editTarget = nil
	s.mu.Unlock()
}

// HandleKey routes a keyboard event through the modal controller, keeping
// the edit-target invariant when Escape dismisses the dialog.
func (s *Service) HandleKey(key modal.Key) bool {
	handled := s.modal.HandleKey(key)
	if handled && !s.modal.IsOpen() {
		s.mu.Lock()
		s.editTarget = nil
		s.mu.Unlock()
	}
	return handled
}

// ClickBackdrop dismisses the modal as a backdrop click does.
func (s *Service) ClickBackdrop() {
	s.CloseModal()
}

// ToggleExpand expands the given card, collapsing whichever card was
// expanded before; toggling the expanded card collapses it. Purely local, no
// network involved.
func (s *Service) ToggleExpand(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expandedCardID == id {
		s.expandedCardID = ""
	} else {
		s.expandedCardID = id
	}
}

// ExpandedCard returns the id of the expanded card, or empty.
func (s *Service) ExpandedCard() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expandedCardID
}

// EditTarget returns a copy of the record being edited, or nil.
func (s *Service) EditTarget() *models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editTarget == nil {
		return nil
	}
	target := *s.editTarget
	return &target
}

// Submitting reports whether a mutation is in flight; the surface disables
// the submit control while true.
func (s *Service) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Modal exposes the dialog descriptor for rendering.
func (s *Service) Modal() modal.Dialog {
	return s.modal.Dialog()
}

// Snapshot exposes the list cache view for rendering.
func (s *Service) Snapshot() cache.Snapshot {
	return s.query.Snapshot()
}

// Submit validates the draft and, if it passes, runs create or update
// depending on whether an edit target is set. Submissions are serialized: a
// second submit while one is in flight is rejected. On success the modal
// closes and the edit target clears; on failure both stay so the user can
// correct and resubmit.
func (s *Service) Submit(ctx context.Context, draft models.Draft) (SubmitResult, error) {
	result := s.validator.Validate(draft)
	if !result.Valid() {
		s.logger.Debug("submit rejected by validation",
			"fields", len(result.FieldErrors),
		)
		return SubmitResult{FieldErrors: result.FieldErrors}, nil
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return SubmitResult{}, dErrors.New(dErrors.CodeConflict, "ya hay un envío en curso")
	}
	s.submitting = true
	target := s.editTarget
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	operation := "create"
	var (
		record models.Record
		err    error
	)
	if target == nil {
		record, err = s.mutator.Create(ctx, result.Draft)
	} else {
		operation = "update"
		record, err = s.mutator.Update(ctx, target.ID, result.Draft)
	}
	if err != nil {
		// The mutation controller already notified the user; the modal stays
		// open with their input.
		s.logger.Warn("submit failed", "operation", operation, "error", err)
		return SubmitResult{}, dErrors.Wrap(dErrors.CodeUnavailable, "la operación no se pudo completar", err)
	}

	s.logger.Info("submit saved", "operation", operation, "id", record.ID)
	s.CloseModal()
	return SubmitResult{Record: record, Saved: true}, nil
}
