package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/csrdesk/internal/api/handlers"
	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/config"
	"github.com/markdave123-py/csrdesk/internal/logger"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, c *Components, db handlers.Pinger, log *logger.Logger) http.Handler {
	res := handlers.NewResponder(c.Translator, log)
	healthHandler := handlers.NewHealthHandler(db, res)
	sourceHandler := handlers.NewSourceHandler(c.Sources, res)
	templateHandler := handlers.NewTemplateHandler(c.Templates, res)
	outputHandler := handlers.NewOutputHandler(c.Outputs, res)
	aiHandler := handlers.NewAIHandler(c.Generation, res)
	qcHandler := handlers.NewQCHandler(c.QC, res)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// public endpoints
	r.Get("/healthz", healthHandler.Health)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.JWT(cfg.JWTSecret, c.Users, res.Error))
		api.Use(middleware.Language)

		api.Post("/studies/{studyID}/sources", sourceHandler.Upload)
		api.Get("/studies/{studyID}/sources", sourceHandler.List)
		api.Post("/sources/{sourceID}/archive", sourceHandler.Archive)
		api.Post("/sources/{sourceID}/restore", sourceHandler.Restore)
		api.Delete("/sources/{sourceID}", sourceHandler.Delete)

		api.Post("/rag/ingest/{sourceID}", sourceHandler.Ingest)
		api.Get("/rag/studies/{studyID}/context", sourceHandler.StudyContext)

		api.Get("/templates/section/{sectionCode}", templateHandler.ListForSection)
		api.Post("/templates", templateHandler.Create)
		api.Post("/templates/{templateID}/render", templateHandler.Render)

		api.Get("/output/{studyID}", outputHandler.GetDocument)
		api.Get("/output/{studyID}/sections", outputHandler.ListSections)
		api.Get("/output/sections/{sectionID}/versions/latest", outputHandler.LatestVersion)
		api.Post("/output/sections/{sectionID}/versions", outputHandler.CreateVersion)
		api.Post("/output/sections/{sectionID}/apply-template", outputHandler.ApplyTemplate)

		api.Group(func(slow chi.Router) {
			slow.Use(chimw.Timeout(cfg.AITimeout + 10*time.Second))
			slow.Post("/ai/generate-section-text", aiHandler.GenerateSectionText)
		})

		api.Post("/qc/documents/{documentID}/run", qcHandler.Run)
		api.Get("/qc/studies/{studyID}/issues", qcHandler.ListIssues)
	})

	return r
}

func NewServer(cfg *config.Config, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
