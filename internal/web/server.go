package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/analysis"
	"github.com/propertyregister/internal/importer"
	"github.com/propertyregister/internal/matcher"
	"github.com/propertyregister/internal/store"
	"github.com/propertyregister/internal/web/handlers"
	"github.com/propertyregister/internal/web/middleware"
)

// Server exposes the register engine over HTTP.
type Server struct {
	config     *Config
	log        *logrus.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer wires the engine components onto HTTP routes. The store is
// injected so the same server runs against Postgres or an in-memory
// extract.
func NewServer(config *Config, recordStore store.RecordStore, log *logrus.Logger) *Server {
	s := &Server{
		config: config,
		log:    log,
	}
	s.setupRoutes(recordStore)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(recordStore store.RecordStore) {
	s.router = mux.NewRouter()

	engine := matcher.NewTieredEngine(recordStore, s.log)
	engine.FailOpen = s.config.Features.FailOpenSearch

	handler := &handlers.RegisterHandler{
		Store:    recordStore,
		Matcher:  engine,
		Analyzer: analysis.NewAnalyzer(recordStore, s.log),
		Importer: importer.NewImporter(recordStore, s.log),
		Log:      s.log,
	}

	api := s.router.PathPrefix("/api/register").Subrouter()
	api.HandleFunc("/search", handler.Search).Methods("GET")
	api.HandleFunc("/price-history", handler.PriceHistory).Methods("GET")
	api.HandleFunc("/price-analysis", handler.PriceAnalysis).Methods("GET")
	api.HandleFunc("/stats", handler.Stats).Methods("GET")

	if s.config.Features.ImportEnabled {
		api.HandleFunc("/import", handler.Import).Methods("POST")
	}

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Infof("starting server on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("server error")
		}
	}()

	<-stop
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
