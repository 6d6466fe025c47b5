// Package validate gates form submissions. It evaluates every field
// independently and reports all failures together, so the user sees the
// complete picture in one pass instead of fixing fields one at a time.
package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"patientpanel/internal/patient/models"
)

// Result is the outcome of validating a draft: either the normalized draft
// with no field errors, or a field→message map of everything that failed.
type Result struct {
	Draft       models.Draft
	FieldErrors map[string]string
}

// Valid reports whether the draft passed every rule.
func (r Result) Valid() bool {
	return len(r.FieldErrors) == 0
}

// Engine validates patient drafts against the form schema.
type Engine struct {
	validate *validator.Validate
}

// New constructs an Engine. Field names in error maps use the JSON tag so
// they line up with what the form actually sends.
func New() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Engine{validate: v}
}

// User-facing messages, keyed by "field.tag".
var messages = map[string]string{
	"name.required":        "El nombre es obligatorio",
	"avatar.required":      "La foto es obligatoria",
	"avatar.url":           "Debe ser una URL válida",
	"description.required": "La descripción es obligatoria",
	"website.url":          "Debe ser una URL válida",
}

// Validate normalizes and checks a draft. It is pure: same draft in, same
// result out, and it never touches the network.
func (e *Engine) Validate(draft models.Draft) Result {
	normalized := models.Draft{
		Name:        strings.TrimSpace(draft.Name),
		Avatar:      strings.TrimSpace(draft.Avatar),
		Description: strings.TrimSpace(draft.Description),
		Website:     strings.TrimSpace(draft.Website),
	}

	result := Result{Draft: normalized}

	err := e.validate.Struct(normalized)
	if err == nil {
		return result
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// Struct-level failures cannot happen with this schema; treat any as
		// a blanket rejection rather than panicking.
		result.FieldErrors = map[string]string{"_form": err.Error()}
		return result
	}

	result.FieldErrors = make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		key := fieldErr.Field() + "." + fieldErr.Tag()
		msg, ok := messages[key]
		if !ok {
			msg = "Dato inválido"
		}
		result.FieldErrors[fieldErr.Field()] = msg
	}
	return result
}
