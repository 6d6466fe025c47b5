// Package modal implements the dialog interaction contract: open/close state,
// keyboard dismissal, focus containment while open, and focus restoration on
// close. The controller is headless; the surface it manipulates is abstracted
// so the state machine can be driven and tested without a real document.
package modal

import "sync"

// Surface is the document the controller manipulates. Focusables returns the
// ordered focusable elements inside the dialog content; ActiveElement and
// Focus read and move the current focus; Exists reports whether an element is
// still attached (restoration targets may be gone by close time);
// SetScrollLocked suppresses or restores page scroll.
type Surface interface {
	ActiveElement() string
	Focus(id string)
	Focusables() []string
	Exists(id string) bool
	SetScrollLocked(locked bool)
}

// Key is a keyboard event the open dialog intercepts.
type Key int

const (
	KeyEscape Key = iota
	KeyTab
	KeyShiftTab
)

// Dialog describes the accessible container for the surface to render.
type Dialog struct {
	Open        bool   `json:"open"`
	Role        string `json:"role"`
	Modal       bool   `json:"modal"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Controller is the Closed/Open state machine.
type Controller struct {
	surface Surface

	mu          sync.Mutex
	open        bool
	restoreTo   string
	title       string
	description string
}

// New constructs a Controller over the given surface.
func New(surface Surface) *Controller {
	return &Controller{surface: surface}
}

// Open transitions Closed→Open: captures the currently focused element for
// later restoration, suppresses page scroll, and moves focus to the first
// focusable element inside the dialog. Opening an open dialog is a no-op.
func (c *Controller) Open(title, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return
	}
	c.open = true
	c.title = title
	c.description = description
	c.restoreTo = c.surface.ActiveElement()
	c.surface.SetScrollLocked(true)
	if focusables := c.surface.Focusables(); len(focusables) > 0 {
		c.surface.Focus(focusables[0])
	}
}

// Close transitions Open→Closed: restores page scroll and returns focus to
// the element captured on open, if it still exists.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if !c.open {
		return
	}
	c.open = false
	c.title = ""
	c.description = ""
	c.surface.SetScrollLocked(false)
	if c.restoreTo != "" && c.surface.Exists(c.restoreTo) {
		c.surface.Focus(c.restoreTo)
	}
	c.restoreTo = ""
}

// IsOpen reports the current state.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Dialog returns the accessible descriptor for rendering.
func (c *Controller) Dialog() Dialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Dialog{
		Open:        c.open,
		Role:        "dialog",
		Modal:       true,
		Title:       c.title,
		Description: c.description,
	}
}

// HandleKey processes a keyboard event while open. Escape closes the dialog;
// Tab and Shift+Tab cycle focus through the dialog's focusable ring, wrapping
// at either end. Returns false when the dialog is closed or the key needed no
// interception.
func (c *Controller) HandleKey(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return false
	}

	if key == KeyEscape {
		c.closeLocked()
		return true
	}

	focusables := c.surface.Focusables()
	if len(focusables) == 0 {
		return false
	}

	active := c.surface.ActiveElement()
	index := -1
	for i, id := range focusables {
		if id == active {
			index = i
			break
		}
	}

	switch key {
	case KeyTab:
		if index == -1 || index == len(focusables)-1 {
			c.surface.Focus(focusables[0])
		} else {
			c.surface.Focus(focusables[index+1])
		}
	case KeyShiftTab:
		if index <= 0 {
			c.surface.Focus(focusables[len(focusables)-1])
		} else {
			c.surface.Focus(focusables[index-1])
		}
	}
	return true
}

// ClickBackdrop closes the dialog; clicking outside the content dismisses it.
func (c *Controller) ClickBackdrop() {
	c.Close()
}

// ClickContent is a deliberate no-op: clicks inside the content must not
// propagate to the backdrop handler.
func (c *Controller) ClickContent() {}
