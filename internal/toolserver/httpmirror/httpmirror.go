// Package httpmirror exposes the tool registry over local HTTP for
// debugging the stdio transport with curl (SPEC_FULL.md §6 "Tool-surface
// glue"). It is not a second transport with independent semantics: every
// request is routed through the same Dispatcher (and therefore the same
// readonly gate and logging) that the stdio loop uses.
//
// Grounded on the teacher's server.go: a chi router with the Logger/
// Recoverer/RealIP middleware stack and a cors.Handler allowing the local
// dev frontend origins.
package httpmirror

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Gxrco/Anki-MCP/internal/toolserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi router mirroring every registered tool at
// POST /tools/{name}, plus a GET /health check.
func NewRouter(d *toolserver.Dispatcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "anki-mcp"})
	})

	r.Post("/tools/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			body = []byte("{}")
		}

		result, err := d.Invoke(name, body)
		if err != nil {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
