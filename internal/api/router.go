package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/datebook/internal/calendar"
	"github.com/julianstephens/datebook/internal/logger"
)

// NewRouter wires every calendar route onto a mux router.
func NewRouter(service *calendar.Service) *mux.Router {
	h := NewHandlers(service)

	router := mux.NewRouter()
	router.Use(LoggingMiddleware)

	router.HandleFunc("/all", h.GetAll).Methods("GET")
	router.HandleFunc("/all/{date}", h.GetAllAfter).Methods("GET")

	router.HandleFunc("/calendar", h.GetCalendar).Methods("GET")
	router.HandleFunc("/calendar/{uid}", h.GetCalendarByID).Methods("GET")
	router.HandleFunc("/new", h.PostNew).Methods("POST")
	router.HandleFunc("/delete", h.DeleteCalendar).Methods("DELETE")

	router.HandleFunc("/entries", h.GetEntries).Methods("GET")
	router.HandleFunc("/entries/{attr}", h.GetEntriesAttr).Methods("GET")
	router.HandleFunc("/entry", h.GetEntry).Methods("GET")
	router.HandleFunc("/update", h.PostUpdate).Methods("POST")
	router.HandleFunc("/entries", h.DeleteEntries).Methods("DELETE")

	router.HandleFunc("/healthz", h.Health).Methods("GET")

	return router
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status and duration of each request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		keyvals := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if r.URL.RawQuery != "" {
			keyvals = append(keyvals, "query", r.URL.RawQuery)
		}

		if wrapped.statusCode >= http.StatusInternalServerError {
			logger.Error("HTTP request", keyvals...)
		} else {
			logger.Info("HTTP request", keyvals...)
		}
	})
}
