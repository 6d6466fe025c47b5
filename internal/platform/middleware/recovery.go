package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"patientpanel/pkg/platform/httputil"
)

// recoveryView is the payload rendered when a handler panics. It mirrors the
// panel's recovery screen: a generic apology, the two offered actions, and the
// technical detail tucked away for inspection rather than shown prominently.
type recoveryView struct {
	Error   string   `json:"error"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
	Detail  string   `json:"detail,omitempty"`
}

// Recovery catches panics from downstream handlers so a defect in one request
// never takes the process down. The client gets a recovery view; the stack
// goes to the log.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.Error("panic recovered",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				httputil.WriteJSON(w, http.StatusInternalServerError, recoveryView{
					Error:   "internal_error",
					Title:   "Algo salió mal",
					Message: "La aplicación encontró un error inesperado. Por favor, intenta recargar la página.",
					Actions: []string{"retry", "reload"},
					Detail:  fmt.Sprint(rec),
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
