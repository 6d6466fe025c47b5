// Package client is the HTTP transport to the remote patient record store.
// The store is treated as a black box: every non-2xx response and every
// network error collapses into a single *Error carrying whatever
// human-readable message could be salvaged.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"patientpanel/internal/patient/models"
	"patientpanel/internal/platform/metrics"
)

const resource = "/users"

// Error is the uniform transport failure. Message is optional; callers fall
// back to their own generic wording when it is empty.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("record store returned status %d", e.Status)
	}
	return "record store unreachable"
}

// errorBody is the shape some stores use for failure payloads.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client talks to the record store.
type Client struct {
	http    *resty.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New constructs a Client against baseURL. Retries are deliberately left to
// the query controller: the transport itself must never re-send a mutation.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		http:   rc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches the full patient collection in store order.
func (c *Client) List(ctx context.Context) ([]models.Record, error) {
	var records []models.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&records).
		Get(resource)
	if err := c.check(resp, err, "list"); err != nil {
		return nil, err
	}
	return records, nil
}

// Create sends a draft to the store, which assigns id and createdAt.
func (c *Client) Create(ctx context.Context, draft models.Draft) (models.Record, error) {
	var record models.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(draft).
		SetResult(&record).
		Post(resource)
	if err := c.check(resp, err, "create"); err != nil {
		return models.Record{}, err
	}
	return record, nil
}

// Update replaces the editable fields of the record with the given id.
func (c *Client) Update(ctx context.Context, id string, draft models.Draft) (models.Record, error) {
	var record models.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(draft).
		SetResult(&record).
		SetPathParam("id", id).
		Put(resource + "/{id}")
	if err := c.check(resp, err, "update"); err != nil {
		return models.Record{}, err
	}
	return record, nil
}

// check folds the resty outcome into the uniform transport error.
func (c *Client) check(resp *resty.Response, err error, operation string) error {
	if resp != nil && c.metrics != nil {
		c.metrics.ObserveRecordStoreLatency(resp.Time())
	}

	if err != nil {
		c.logger.Error("record store call failed",
			"operation", operation,
			"error", err,
		)
		return &Error{}
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		message := fmt.Sprintf("request failed with status %d", resp.StatusCode())
		var body errorBody
		if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr == nil {
			if body.Message != "" {
				message = body.Message
			} else if body.Error != "" {
				message = body.Error
			}
		}
		c.logger.Error("record store rejected request",
			"operation", operation,
			"status", resp.StatusCode(),
			"message", message,
		)
		return &Error{Status: resp.StatusCode(), Message: message}
	}

	c.logger.Debug("record store call ok",
		"operation", operation,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)
	return nil
}
