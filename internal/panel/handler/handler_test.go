package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"patientpanel/internal/notify"
	"patientpanel/internal/panel"
	"patientpanel/internal/panel/modal"
	"patientpanel/internal/patient/cache"
	"patientpanel/internal/patient/client"
	"patientpanel/internal/patient/models"
	"patientpanel/internal/patient/mutation"
	"patientpanel/internal/patient/validate"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordStore is an in-memory stand-in for the remote mock API. Real
// components run against it end to end; nothing in the stack is mocked.
type recordStore struct {
	mu      sync.Mutex
	records []models.Record
	nextID  int
	lists   int
	creates int
	updates int
	failAll bool
}

func newRecordStore(records ...models.Record) *recordStore {
	return &recordStore{records: records, nextID: len(records) + 1}
}

func (rs *recordStore) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/users", func(w http.ResponseWriter, req *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		rs.lists++
		if rs.failAll {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"request failed with status 500"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rs.records)
	})
	r.Post("/users", func(w http.ResponseWriter, req *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		rs.creates++
		var draft models.Draft
		_ = json.NewDecoder(req.Body).Decode(&draft)
		record := models.Record{
			ID:          strconv.Itoa(rs.nextID),
			Name:        draft.Name,
			Avatar:      draft.Avatar,
			Description: draft.Description,
			Website:     draft.Website,
			CreatedAt:   time.Now().UTC(),
		}
		rs.nextID++
		rs.records = append(rs.records, record)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(record)
	})
	r.Put("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		rs.updates++
		if rs.failAll {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"no se pudo guardar"}`))
			return
		}
		id := chi.URLParam(req, "id")
		var draft models.Draft
		_ = json.NewDecoder(req.Body).Decode(&draft)
		for i := range rs.records {
			if rs.records[i].ID == id {
				rs.records[i].Name = draft.Name
				rs.records[i].Avatar = draft.Avatar
				rs.records[i].Description = draft.Description
				rs.records[i].Website = draft.Website
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(rs.records[i])
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

func (rs *recordStore) counts() (lists, creates, updates int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lists, rs.creates, rs.updates
}

func (rs *recordStore) setFailAll(fail bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.failAll = fail
}

type HandlerSuite struct {
	suite.Suite
	store    *recordStore
	surface  *modal.MemorySurface
	cache    *cache.Controller
	notifier *notify.Center
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.setupWith(newRecordStore(
		models.Record{ID: "1", Name: "Jane", Avatar: "https://a/1.png", Description: "Historia de Jane", Website: "https://jane.dev", CreatedAt: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		models.Record{ID: "2", Name: "John", Avatar: "https://a/2.png", Description: "Historia de John", Website: "https://john.dev", CreatedAt: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)},
	))
}

func (s *HandlerSuite) setupWith(store *recordStore) {
	s.store = store
	server := httptest.NewServer(store.handler())
	s.T().Cleanup(server.Close)

	transport := client.New(server.URL, 5*time.Second)
	s.cache = cache.New(transport, cache.WithRetry(3, time.Millisecond, 4*time.Millisecond))
	s.T().Cleanup(s.cache.Close)

	s.notifier = notify.New(notify.WithDurations(time.Hour, time.Millisecond))
	s.T().Cleanup(s.notifier.Close)

	mutator := mutation.New(transport, s.cache, s.notifier)
	s.surface = modal.NewMemorySurface("field-name", "field-avatar", "field-description", "field-website", "submit-button")
	panelService := panel.New(modal.New(s.surface), s.cache, mutator, validate.New())

	logger := newTestLogger()
	h := New(panelService, s.cache, s.notifier, logger)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) (*httptest.ResponseRecorder, View) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var view View
	if rec.Code == http.StatusOK {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	}
	return rec, view
}

// waitForList polls GET /panel until the list reaches the given state.
func (s *HandlerSuite) waitForList(state cache.State) View {
	var view View
	s.Require().Eventually(func() bool {
		_, view = s.do(http.MethodGet, "/panel", nil)
		return view.List.State == string(state)
	}, 2*time.Second, 5*time.Millisecond)
	return view
}

func (s *HandlerSuite) validDraft() models.Draft {
	return models.Draft{Name: "Nueva", Avatar: "https://a/3.png", Description: "d", Website: "https://nueva.dev"}
}

// Scenario A: both records render; expanding one card collapses the other.
func (s *HandlerSuite) TestListAndExpansion() {
	view := s.waitForList(cache.StateSuccess)
	s.Require().Len(view.List.Cards, 2)
	s.Equal("Jane", view.List.Cards[0].Name)
	s.Equal("Creado el 2 ene 2023", view.List.Cards[0].CreatedAt)
	s.Empty(view.List.Cards[0].Website, "collapsed cards hide the website link")

	_, view = s.do(http.MethodPost, "/panel/cards/1/toggle", nil)
	s.True(view.List.Cards[0].Expanded)
	s.Equal("https://jane.dev", view.List.Cards[0].Website)
	s.Equal("Ocultar detalles", view.List.Cards[0].ToggleLabel)

	_, view = s.do(http.MethodPost, "/panel/cards/2/toggle", nil)
	s.False(view.List.Cards[0].Expanded, "expanding John collapses Jane")
	s.True(view.List.Cards[1].Expanded)
}

// Scenario B: submitting an empty form yields four validation messages and
// zero network calls.
func (s *HandlerSuite) TestEmptySubmit() {
	s.waitForList(cache.StateSuccess)
	_, view := s.do(http.MethodPost, "/panel/modal/create", nil)
	s.True(view.Modal.Open)
	s.Equal("crear", view.Modal.Mode)
	s.Equal("field-name", s.surface.ActiveElement(), "opening focuses the first field")

	rec, _ := s.do(http.MethodPost, "/panel/submit", models.Draft{})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	var resp submitResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.FieldErrors, 4)
	s.Equal("El nombre es obligatorio", resp.FieldErrors["name"])
	s.Equal("La foto es obligatoria", resp.FieldErrors["avatar"])
	s.Equal("La descripción es obligatoria", resp.FieldErrors["description"])
	s.Equal("Debe ser una URL válida", resp.FieldErrors["website"])

	_, creates, updates := s.store.counts()
	s.Zero(creates)
	s.Zero(updates)

	_, view = s.do(http.MethodGet, "/panel", nil)
	s.True(view.Modal.Open, "modal stays open after a validation failure")
}

// Scenario C: a valid create makes exactly one store call, emits one success
// notification, closes the modal and refetches the list.
func (s *HandlerSuite) TestCreateFlow() {
	s.waitForList(cache.StateSuccess)
	listsBefore, _, _ := s.store.counts()

	s.do(http.MethodPost, "/panel/modal/create", nil)
	rec, _ := s.do(http.MethodPost, "/panel/submit", s.validDraft())
	s.Equal(http.StatusOK, rec.Code)

	var resp submitResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Saved)
	s.Require().NotNil(resp.Record)
	s.Equal("Nueva", resp.Record.Name)

	_, creates, _ := s.store.counts()
	s.Equal(1, creates)

	_, view := s.do(http.MethodGet, "/panel", nil)
	s.False(view.Modal.Open)
	s.Require().Len(view.Notifications, 1)
	s.Equal("Paciente creado con éxito", view.Notifications[0].Message)
	s.Equal(notify.KindSuccess, view.Notifications[0].Kind)

	// The invalidation refetch brings the new record in.
	s.Require().Eventually(func() bool {
		_, view = s.do(http.MethodGet, "/panel", nil)
		return len(view.List.Cards) == 3
	}, 2*time.Second, 5*time.Millisecond)

	listsAfter, _, _ := s.store.counts()
	s.Equal(listsBefore+1, listsAfter, "exactly one refetch after the mutation")
}

// Scenario D: a failing list fetch surfaces the message and a retry
// affordance; retrying re-issues the fetch.
func (s *HandlerSuite) TestListFailureAndRetry() {
	store := newRecordStore()
	store.setFailAll(true)
	s.setupWith(store)

	view := s.waitForList(cache.StateError)
	s.Equal("request failed with status 500", view.List.Message)
	s.Equal("Reintentar", view.List.RetryLabel)

	store.setFailAll(false)
	s.do(http.MethodPost, "/panel/list/retry", nil)

	view = s.waitForList(cache.StateSuccess)
	s.Equal("Aún no hay pacientes registrados. Crea el primero para comenzar.", view.List.Message)
}

func (s *HandlerSuite) TestEditFlow() {
	s.waitForList(cache.StateSuccess)

	_, view := s.do(http.MethodPost, "/panel/modal/edit/2", nil)
	s.True(view.Modal.Open)
	s.Equal("editar", view.Modal.Mode)
	s.Equal("Guardar cambios", view.Modal.SubmitLabel)
	s.Equal("John", view.Modal.Form.Name, "form pre-fills from the edit target")

	draft := models.Draft{Name: "John Q.", Avatar: "https://a/2.png", Description: "Historia de John", Website: "https://john.dev"}
	rec, _ := s.do(http.MethodPost, "/panel/submit", draft)
	s.Equal(http.StatusOK, rec.Code)

	_, _, updates := s.store.counts()
	s.Equal(1, updates)

	_, view = s.do(http.MethodGet, "/panel", nil)
	s.False(view.Modal.Open)
	s.Require().Len(view.Notifications, 1)
	s.Equal("Paciente actualizado", view.Notifications[0].Message)
}

// Mutation failure invariant: the modal stays open, exactly one error
// notification appears, and the list is not refetched.
func (s *HandlerSuite) TestUpdateFailure() {
	s.waitForList(cache.StateSuccess)
	listsBefore, _, _ := s.store.counts()

	s.do(http.MethodPost, "/panel/modal/edit/1", nil)
	s.store.setFailAll(true)

	draft := s.validDraft()
	rec, _ := s.do(http.MethodPost, "/panel/submit", draft)
	s.Equal(http.StatusBadGateway, rec.Code)

	_, view := s.do(http.MethodGet, "/panel", nil)
	s.True(view.Modal.Open, "modal stays open on mutation failure")
	s.Require().Len(view.Notifications, 1)
	s.Equal(notify.KindError, view.Notifications[0].Kind)
	s.Equal("no se pudo guardar", view.Notifications[0].Message)

	time.Sleep(20 * time.Millisecond)
	listsAfter, _, _ := s.store.counts()
	s.Equal(listsBefore, listsAfter, "failed mutation must not stale the cache")
}

func (s *HandlerSuite) TestModalKeyboard() {
	s.waitForList(cache.StateSuccess)
	s.do(http.MethodPost, "/panel/modal/edit/1", nil)

	_, view := s.do(http.MethodPost, "/panel/modal/key", keyRequest{Key: "shift+tab"})
	s.Equal("submit-button", s.surface.ActiveElement(), "shift+tab on the first focusable wraps to the last")
	s.True(view.Modal.Open)

	_, view = s.do(http.MethodPost, "/panel/modal/key", keyRequest{Key: "escape"})
	s.False(view.Modal.Open)
	s.Equal("", view.Modal.Mode, "edit target cleared on escape")

	rec, _ := s.do(http.MethodPost, "/panel/modal/key", keyRequest{Key: "meta"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestDismissNotification() {
	s.waitForList(cache.StateSuccess)
	s.do(http.MethodPost, "/panel/modal/create", nil)
	s.do(http.MethodPost, "/panel/submit", s.validDraft())

	_, view := s.do(http.MethodGet, "/panel", nil)
	s.Require().Len(view.Notifications, 1)

	s.do(http.MethodPost, "/panel/notifications/"+view.Notifications[0].ID+"/dismiss", nil)
	s.Require().Eventually(func() bool {
		_, view = s.do(http.MethodGet, "/panel", nil)
		return len(view.Notifications) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *HandlerSuite) TestHealth() {
	rec, _ := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
}
