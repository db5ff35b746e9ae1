package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediashelf/internal/config"
	"mediashelf/internal/core"
	"mediashelf/internal/utils"
)

type Server struct {
	config     *config.Config
	manager    *core.Manager
	logger     *utils.Logger
	httpServer *http.Server
	apiHandler *APIHandler
}

func NewServer(cfg *config.Config, manager *core.Manager, logger *utils.Logger) *Server {
	logger = logger.WithComponent("http")
	s := &Server{
		config:     cfg,
		manager:    manager,
		logger:     logger,
		apiHandler: NewAPIHandler(manager, logger),
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(Metrics)

	api := router.PathPrefix("/api").Subrouter()

	// Catalog
	api.HandleFunc("/search/{mediaType}", s.apiHandler.Search).Methods("GET")
	api.HandleFunc("/media/{mediaType}/{id}", s.apiHandler.GetDetails).Methods("GET")

	// Library
	api.HandleFunc("/library", s.apiHandler.ListLibrary).Methods("GET")
	api.HandleFunc("/library/{mediaType}/{id}", s.apiHandler.AddToLibrary).Methods("POST")
	api.HandleFunc("/library/{libraryId}", s.apiHandler.GetLibraryItem).Methods("GET")
	api.HandleFunc("/library/{libraryId}", s.apiHandler.RemoveFromLibrary).Methods("DELETE")
	api.HandleFunc("/reviews/{libraryId}", s.apiHandler.SaveReview).Methods("POST")
	api.HandleFunc("/tags", s.apiHandler.ListTags).Methods("GET")

	api.HandleFunc("/status", s.apiHandler.GetSystemStatus).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var handler http.Handler = router
	handler = Logging(s.logger)(handler)
	handler = CORS(s.config.App.AllowedOrigins)(handler)
	handler = Recoverer(s.logger)(handler)
	handler = RequestID(handler)
	return handler
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	s.logger.Info().Int("port", s.config.App.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
