// Package api provides HTTP router setup.
package api

import (
	"html/template"
	"net/http"

	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/dashboard"
	"github.com/factchecker/realitycheck/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, sessions *dashboard.Manager, store database.Store) http.Handler {
	r := chi.NewRouter()

	handler := NewHandler(sessions, store, cfg.Upload.MaxBytes)

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/detectors", handler.ListDetectors)
		r.Get("/audit", handler.GetAuditLogs)

		r.Group(func(r chi.Router) {
			r.Use(AuditMiddleware(store))
			r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))

			r.Post("/sessions", handler.CreateSession)

			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", handler.GetSession)
				r.Delete("/", handler.DeleteSession)
				r.Get("/notices", handler.GetNotices)

				r.Route("/cards/{kind}", func(r chi.Router) {
					r.Post("/file", handler.SelectFile)
					r.Put("/text", handler.SetText)
					r.Post("/reset", handler.ResetCard)
					r.With(RateLimitMiddleware(cfg.RateLimits.AnalyzePerMinute)).
						Post("/analyze", handler.Analyze)
				})
			})
		})
	})

	if cfg.Server.EnableUI {
		r.Get("/", indexPage)
	}

	return r
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Reality Check - Deepfake Detection</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #7c3aed; }
        code { background: #f1f5f9; padding: 2px 6px; border-radius: 4px; }
        .endpoint { margin: 10px 0; }
        .card { border: 1px solid #e2e8f0; border-radius: 8px; padding: 12px 16px; margin: 12px 0; }
    </style>
</head>
<body>
    <h1>Reality Check</h1>
    <p>Detect deepfakes in video, image, audio and news. Results are simulated.</p>

    <h2>Detectors</h2>
    {{range .}}<div class="card"><strong>{{.Title}}</strong><br>{{.Description}}<br><small>Accepts {{.AcceptedTypes}}</small></div>
    {{end}}
    <h2>Endpoints</h2>
    <div class="endpoint"><code>POST /api/v1/sessions</code> - Open a dashboard session</div>
    <div class="endpoint"><code>POST /api/v1/sessions/{id}/cards/{kind}/file</code> - Upload a file (multipart field <code>file</code>)</div>
    <div class="endpoint"><code>PUT /api/v1/sessions/{id}/cards/text/text</code> - Set text, body <code>{"text": "..."}</code></div>
    <div class="endpoint"><code>POST /api/v1/sessions/{id}/cards/{kind}/analyze</code> - Start analysis</div>
    <div class="endpoint"><code>GET /api/v1/sessions/{id}</code> - Card states</div>
    <div class="endpoint"><code>POST /api/v1/sessions/{id}/cards/{kind}/reset</code> - Reset a card</div>
</body>
</html>`))

func indexPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, dashboard.Catalog()); err != nil {
		log.Error().Err(err).Msg("Failed to render index")
	}
}
