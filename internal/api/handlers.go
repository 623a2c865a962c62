package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/julianstephens/datebook/internal/calendar"
	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/logger"
	"github.com/julianstephens/datebook/internal/models"
)

// Handlers exposes a calendar.Service over HTTP.
type Handlers struct {
	service *calendar.Service
}

func NewHandlers(service *calendar.Service) *Handlers {
	return &Handlers{service: service}
}

type uidsResponse struct {
	UIDs []string `json:"uids"`
}

type entriesResponse struct {
	Entries interface{} `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetAll lists the ids of every calendar.
func (h *Handlers) GetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, uidsResponse{UIDs: nonNil(h.service.All())})
}

// GetAllAfter lists the ids of calendars created after the path date.
func (h *Handlers) GetAllAfter(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.AllAfter(pathVar(r, "date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uidsResponse{UIDs: nonNil(ids)})
}

func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cal, err := h.service.Calendar(param(q, "name"), param(q, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCalendar(w, cal)
}

func (h *Handlers) GetCalendarByID(w http.ResponseWriter, r *http.Request) {
	cal, err := h.service.CalendarByID(pathVar(r, "uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCalendar(w, cal)
}

// PostNew creates a calendar from a {"name", "code"} body.
func (h *Handlers) PostNew(w http.ResponseWriter, r *http.Request) {
	var req calendar.NewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cal, err := h.service.New(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCalendar(w, cal)
}

func (h *Handlers) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.service.Remove(param(q, "name"), param(q, "code")); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (h *Handlers) GetEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Entries(entriesQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: entries})
}

// GetEntriesAttr projects one attribute of the matching entries.
func (h *Handlers) GetEntriesAttr(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.EntriesAttr(pathVar(r, "attr"), entriesQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: nonNil(values)})
}

func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Entry(entryQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// PostUpdate writes a batch of entries and answers 201.
func (h *Handlers) PostUpdate(w http.ResponseWriter, r *http.Request) {
	var req calendar.UpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.service.Update(req); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusCreated)
}

func (h *Handlers) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveEntries(entryQuery(r)); err != nil {
		writeError(w, err)
		return
	}
	writeStatus(w, http.StatusOK)
}

// Health reports whether the process is serving.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"calendars": len(h.service.All()),
	})
}

func entriesQuery(r *http.Request) calendar.EntriesQuery {
	q := r.URL.Query()
	return calendar.EntriesQuery{
		Name:  param(q, "name"),
		Code:  param(q, "code"),
		Date:  param(q, "date"),
		Start: param(q, "start"),
		End:   param(q, "end"),
	}
}

func entryQuery(r *http.Request) calendar.EntryQuery {
	q := r.URL.Query()
	return calendar.EntryQuery{
		Name:  param(q, "name"),
		Code:  param(q, "code"),
		Date:  param(q, "date"),
		Index: param(q, "index"),
	}
}

// param returns nil when key is absent so that a missing value and an empty
// value stay distinguishable.
func param(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

func pathVar(r *http.Request, key string) *string {
	v, ok := mux.Vars(r)[key]
	if !ok {
		return nil
	}
	return &v
}

// decodeBody reads a JSON object body. An empty body decodes to the zero
// request so the service reports the first missing field.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		logger.Debug("Rejected request body", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func writeCalendar(w http.ResponseWriter, cal models.Calendar) {
	if cal.Entries == nil {
		cal.Entries = map[string][]models.Entry{}
	}
	writeJSON(w, http.StatusOK, cal)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}

func writeError(w http.ResponseWriter, err error) {
	if errors.KindOf(err) == errors.KindPersistence {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, errors.StatusCode(err), errorResponse{Error: errors.Message(err)})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
