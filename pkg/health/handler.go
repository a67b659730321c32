package health

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Paths served by NewMux.
const (
	LivenessPath  = "/livez"
	ReadinessPath = "/readyz"
)

// NewMux serves LivenessHandler and ReadinessHandler on their default paths.
func NewMux(checks Checks, opts ...Option) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET "+LivenessPath, LivenessHandler())
	mux.Handle("GET "+ReadinessPath, ReadinessHandler(checks, opts...))
	return mux
}

// LivenessHandler returns an http.HandlerFunc that always responds OK.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, &Response{Status: StatusHealthy})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an http.HandlerFunc that runs all provided checks
// and answers 503 when any fails.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := runChecks(r.Context(), checks, cfg)

		status := http.StatusOK
		if err != nil {
			status = http.StatusServiceUnavailable
		}

		if wantsJSON(r) {
			writeJSON(w, status, resp)
			return
		}

		w.WriteHeader(status)
		if err == nil {
			_, _ = w.Write([]byte("OK"))
		} else {
			_, _ = w.Write([]byte("Service Unavailable"))
		}
	}
}

// wantsJSON checks if the client wants JSON response.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
