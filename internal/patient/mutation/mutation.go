// Package mutation executes create/update operations against the record
// store and drives the side effects the panel expects: cache invalidation and
// a success notification on the happy path, an error notification and nothing
// else on failure. Failures are never retried here; retry is the user
// re-submitting the form.
package mutation

import (
	"context"
	"errors"
	"log/slog"

	"patientpanel/internal/notify"
	"patientpanel/internal/patient/client"
	"patientpanel/internal/patient/models"
	"patientpanel/internal/platform/metrics"
)

// Transport sends mutations to the record store.
type Transport interface {
	Create(ctx context.Context, draft models.Draft) (models.Record, error)
	Update(ctx context.Context, id string, draft models.Draft) (models.Record, error)
}

// Invalidator marks the list cache stale after a successful mutation.
type Invalidator interface {
	Invalidate()
}

// Notifier surfaces the outcome to the user.
type Notifier interface {
	Show(message string, kind notify.Kind) string
}

// User-facing outcome messages.
const (
	msgCreated      = "Paciente creado con éxito"
	msgUpdated      = "Paciente actualizado"
	msgCreateFailed = "No pudimos crear el paciente"
	msgUpdateFailed = "No pudimos actualizar el paciente"
)

// Controller runs mutations and their side effects.
type Controller struct {
	transport Transport
	cache     Invalidator
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// New constructs a Controller.
func New(transport Transport, cache Invalidator, notifier Notifier, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		cache:     cache,
		notifier:  notifier,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create sends a new draft to the store. On success the list cache is
// invalidated and a success notification is emitted; the caller closes the
// modal. On failure only an error notification is emitted — the modal stays
// open with the user's input so resubmission needs no retyping.
func (c *Controller) Create(ctx context.Context, draft models.Draft) (models.Record, error) {
	record, err := c.transport.Create(ctx, draft)
	if err != nil {
		c.fail("create", msgCreateFailed, err)
		return models.Record{}, err
	}
	c.succeed("create", msgCreated, record)
	return record, nil
}

// Update replaces the record with the given id. Side effects as for Create.
func (c *Controller) Update(ctx context.Context, id string, draft models.Draft) (models.Record, error) {
	record, err := c.transport.Update(ctx, id, draft)
	if err != nil {
		c.fail("update", msgUpdateFailed, err)
		return models.Record{}, err
	}
	c.succeed("update", msgUpdated, record)
	return record, nil
}

func (c *Controller) succeed(operation, message string, record models.Record) {
	// Invalidation is ordered after the mutation's success: the notification
	// never precedes a known response.
	c.cache.Invalidate()
	c.notifier.Show(message, notify.KindSuccess)
	if c.metrics != nil {
		c.metrics.ObserveMutation(operation, "success")
	}
	c.logger.Info("mutation succeeded", "operation", operation, "id", record.ID)
}

func (c *Controller) fail(operation, fallback string, err error) {
	// The transport message is optional; generic wording covers the rest.
	message := fallback
	var transportErr *client.Error
	if errors.As(err, &transportErr) && transportErr.Message != "" {
		message = transportErr.Message
	}

	c.notifier.Show(message, notify.KindError)
	if c.metrics != nil {
		c.metrics.ObserveMutation(operation, "error")
	}
	c.logger.Warn("mutation failed", "operation", operation, "error", err)
}
