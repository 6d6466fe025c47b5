// Package notify implements the panel's ephemeral notification channel.
// Notifications queue in arrival order, auto-expire after a display window,
// and can be dismissed early. The Center is an explicit dependency handed to
// whoever needs to emit messages, never a hidden global.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"patientpanel/internal/platform/metrics"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is one entry in the active set. Exiting notifications are
// still present so the surface can animate them out before removal.
type Notification struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Exiting bool   `json:"exiting"`
}

const (
	defaultDisplay = 4 * time.Second
	defaultExit    = 300 * time.Millisecond
)

// Center owns the active notification set and the per-notification timers.
type Center struct {
	display time.Duration
	exit    time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	items  []*Notification
	timers map[string]*time.Timer
	closed bool
}

type Option func(*Center)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Center) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Center) {
		c.metrics = m
	}
}

// WithDurations overrides the display window and exit delay. Tests use this
// to keep timer-driven assertions fast.
func WithDurations(display, exit time.Duration) Option {
	return func(c *Center) {
		c.display = display
		c.exit = exit
	}
}

// New constructs a Center with the default 4s display / 300ms exit timings.
func New(opts ...Option) *Center {
	c := &Center{
		display: defaultDisplay,
		exit:    defaultExit,
		logger:  slog.Default(),
		timers:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show enqueues a notification after any existing ones and starts its
// display timer. Returns the generated id.
func (c *Center) Show(message string, kind Kind) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ""
	}

	id := uuid.NewString()
	c.items = append(c.items, &Notification{ID: id, Kind: kind, Message: message})
	c.timers[id] = time.AfterFunc(c.display, func() {
		c.beginExit(id)
	})

	if c.metrics != nil {
		c.metrics.ObserveNotification(string(kind))
		c.metrics.SetActiveNotifications(len(c.items))
	}
	c.logger.Debug("notification shown", "id", id, "kind", string(kind))
	return id
}

// Dismiss short-circuits a notification straight into the exiting-then-remove
// sequence. Other notifications' timers are unaffected.
func (c *Center) Dismiss(id string) {
	c.beginExit(id)
}

// Active returns a copy of the active set in arrival order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	for i, item := range c.items {
		out[i] = *item
	}
	return out
}

// Close cancels every pending timer. Used on teardown so nothing fires
// against a surface that no longer exists.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

func (c *Center) beginExit(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	var item *Notification
	for _, candidate := range c.items {
		if candidate.ID == id {
			item = candidate
			break
		}
	}
	if item == nil || item.Exiting {
		return
	}
	item.Exiting = true

	// Replace the display timer with the removal timer.
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
	}
	c.timers[id] = time.AfterFunc(c.exit, func() {
		c.remove(id)
	})
}

func (c *Center) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	delete(c.timers, id)
	if c.metrics != nil {
		c.metrics.SetActiveNotifications(len(c.items))
	}
}
