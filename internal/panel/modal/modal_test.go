package modal

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ModalSuite struct {
	suite.Suite
	surface    *MemorySurface
	controller *Controller
}

func TestModalSuite(t *testing.T) {
	suite.Run(t, new(ModalSuite))
}

func (s *ModalSuite) SetupTest() {
	s.surface = NewMemorySurface("field-name", "field-avatar", "field-description", "field-website", "submit-button")
	s.controller = New(s.surface)
}

// SetupSubTest gives each s.Run subtest a fresh surface and controller.
func (s *ModalSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *ModalSuite) TestOpen() {
	s.Run("captures prior focus and focuses the first focusable", func() {
		s.surface.active = "add-patient-button"
		s.controller.Open("Nuevo paciente", "Completa la información obligatoria para guardar los cambios.")

		s.True(s.controller.IsOpen())
		s.Equal("field-name", s.surface.ActiveElement())
		s.True(s.surface.ScrollLocked())
	})

	s.Run("exposes the accessible dialog descriptor", func() {
		s.controller.Open("Editar paciente", "desc")
		dialog := s.controller.Dialog()
		s.True(dialog.Open)
		s.Equal("dialog", dialog.Role)
		s.True(dialog.Modal)
		s.Equal("Editar paciente", dialog.Title)
	})

	s.Run("opening twice is a no-op", func() {
		s.controller.Open("a", "")
		s.surface.Focus("field-website")
		s.controller.Open("b", "")
		s.Equal("field-website", s.surface.ActiveElement())
		s.Equal("a", s.controller.Dialog().Title)
	})
}

func (s *ModalSuite) TestClose() {
	s.Run("restores scroll and prior focus", func() {
		s.surface.active = "add-patient-button"
		s.controller.Open("t", "")
		s.controller.Close()

		s.False(s.controller.IsOpen())
		s.False(s.surface.ScrollLocked())
		s.Equal("add-patient-button", s.surface.ActiveElement())
	})

	s.Run("skips restoration when the element is gone", func() {
		s.surface.active = "add-patient-button"
		s.controller.Open("t", "")
		s.surface.Remove("add-patient-button")
		s.controller.Close()

		s.NotEqual("add-patient-button", s.surface.ActiveElement())
	})
}

func (s *ModalSuite) TestFocusTrap() {
	s.Run("tab on the last focusable wraps to the first", func() {
		s.controller.Open("t", "")
		s.surface.Focus("submit-button")
		s.True(s.controller.HandleKey(KeyTab))
		s.Equal("field-name", s.surface.ActiveElement())
	})

	s.Run("shift+tab on the first wraps to the last", func() {
		s.controller.Open("t", "")
		s.True(s.controller.HandleKey(KeyShiftTab))
		s.Equal("submit-button", s.surface.ActiveElement())
	})

	s.Run("tab advances through the ring", func() {
		s.controller.Open("t", "")
		s.controller.HandleKey(KeyTab)
		s.Equal("field-avatar", s.surface.ActiveElement())
		s.controller.HandleKey(KeyTab)
		s.Equal("field-description", s.surface.ActiveElement())
	})

	s.Run("keys are ignored while closed", func() {
		s.False(s.controller.HandleKey(KeyTab))
		s.False(s.controller.HandleKey(KeyEscape))
	})
}

func (s *ModalSuite) TestDismissal() {
	s.Run("escape closes and restores focus", func() {
		s.surface.active = "edit-button-1"
		s.controller.Open("t", "")
		s.True(s.controller.HandleKey(KeyEscape))
		s.False(s.controller.IsOpen())
		s.Equal("edit-button-1", s.surface.ActiveElement())
	})

	s.Run("backdrop click closes", func() {
		s.controller.Open("t", "")
		s.controller.ClickBackdrop()
		s.False(s.controller.IsOpen())
	})

	s.Run("content click does not close", func() {
		s.controller.Open("t", "")
		s.controller.ClickContent()
		s.True(s.controller.IsOpen())
	})
}
