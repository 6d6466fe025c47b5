package handler

import (
	"fmt"
	"time"

	"patientpanel/internal/notify"
	"patientpanel/internal/panel/modal"
	"patientpanel/internal/patient/cache"
	"patientpanel/internal/patient/models"
)

// Panel chrome and shared labels.
const (
	panelTitle    = "Gestión de Pacientes"
	panelSubtitle = "Administra perfiles, notas y enlaces clave sincronizados con la API mock."
	addLabel      = "Agregar paciente"
	emptyListMsg  = "Aún no hay pacientes registrados. Crea el primero para comenzar."
	listErrorMsg  = "No pudimos cargar los pacientes"
	retryLabel    = "Reintentar"
	editLabel     = "Editar"
	showDetails   = "Ver detalles"
	hideDetails   = "Ocultar detalles"
	submitCreate  = "Crear paciente"
	submitUpdate  = "Guardar cambios"

	summaryLimit = 140
)

// View is the full render state of the panel, what the SPA's component tree
// would show after this request.
type View struct {
	Title         string                `json:"title"`
	Subtitle      string                `json:"subtitle"`
	AddLabel      string                `json:"addLabel"`
	List          ListView              `json:"list"`
	Modal         ModalView             `json:"modal"`
	Notifications []notify.Notification `json:"notifications"`
}

// ListView renders one of the three cache states.
type ListView struct {
	State      string     `json:"state"`
	Message    string     `json:"message,omitempty"`
	RetryLabel string     `json:"retryLabel,omitempty"`
	Cards      []CardView `json:"cards"`
}

// CardView is one patient card. Description and Website only render on the
// expanded card; collapsed cards show the truncated summary.
type CardView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	CreatedAt   string `json:"createdAt"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Expanded    bool   `json:"expanded"`
	ToggleLabel string `json:"toggleLabel"`
	EditLabel   string `json:"editLabel"`
}

// FormView pre-fills the modal form, seeded from the edit target when set.
type FormView struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// ModalView wraps the accessible dialog descriptor with form state.
type ModalView struct {
	modal.Dialog
	Mode        string   `json:"mode,omitempty"`
	SubmitLabel string   `json:"submitLabel,omitempty"`
	Submitting  bool     `json:"submitting"`
	Form        FormView `json:"form"`
}

var spanishMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

// formatDate renders a creation date the way the cards show it: "2 ene 2023".
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// summarize truncates a description for the collapsed card.
func summarize(description string) string {
	runes := []rune(description)
	if len(runes) <= summaryLimit {
		return description
	}
	return string(runes[:summaryLimit]) + "…"
}

func buildCard(record models.Record, expandedID string) CardView {
	card := CardView{
		ID:          record.ID,
		Name:        record.Name,
		Avatar:      record.Avatar,
		CreatedAt:   "Creado el " + formatDate(record.CreatedAt),
		Summary:     summarize(record.Description),
		Expanded:    record.ID == expandedID,
		ToggleLabel: showDetails,
		EditLabel:   editLabel,
	}
	if card.Expanded {
		card.Description = record.Description
		card.Website = record.Website
		card.ToggleLabel = hideDetails
	}
	return card
}

func buildList(snap cache.Snapshot, expandedID string) ListView {
	view := ListView{State: string(snap.State), Cards: []CardView{}}

	switch snap.State {
	case cache.StateError:
		view.Message = snap.ErrMessage
		if view.Message == "" {
			view.Message = listErrorMsg
		}
		view.RetryLabel = retryLabel
	case cache.StateSuccess:
		if len(snap.Records) == 0 {
			view.Message = emptyListMsg
			return view
		}
		for _, record := range snap.Records {
			view.Cards = append(view.Cards, buildCard(record, expandedID))
		}
	}
	return view
}

func buildModal(dialog modal.Dialog, target *models.Record, submitting bool) ModalView {
	view := ModalView{Dialog: dialog, Submitting: submitting}
	if !dialog.Open {
		return view
	}

	if target == nil {
		view.Mode = "crear"
		view.SubmitLabel = submitCreate
	} else {
		view.Mode = "editar"
		view.SubmitLabel = submitUpdate
		view.Form = FormView{
			Name:        target.Name,
			Avatar:      target.Avatar,
			Description: target.Description,
			Website:     target.Website,
		}
	}
	return view
}
