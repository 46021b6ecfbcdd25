package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/archive-bot-go/internal/store"
)

var (
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_bot_commands_total",
		Help: "Total number of dispatched handlers by outcome",
	}, []string{"command", "status"})

	filesArchivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_bot_files_archived_total",
		Help: "Total number of files written to the archive",
	}, []string{"kind"})

	subscribersTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "archive_bot_subscribers_total",
		Help: "Total number of chats known to the bot",
	})

	archiveBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "archive_bot_archive_bytes",
		Help: "Bytes stored in the archive directory",
	})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_bot_errors_total",
		Help: "Total number of errors",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(filesArchivedTotal)
	prometheus.MustRegister(subscribersTotal)
	prometheus.MustRegister(archiveBytes)
	prometheus.MustRegister(errorsTotal)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Server handles HTTP requests for health checks and metrics
type Server struct {
	store     store.Store
	router    *http.ServeMux
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(store store.Store) *Server {
	s := &Server{
		store:     store,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports database connectivity and uptime as JSON
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	uptime := time.Since(s.startTime).Round(time.Second).String()

	status := "healthy"
	if dbStatus != "healthy" {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   uptime,
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// RecordCommand counts a dispatched handler by outcome
func RecordCommand(command, status string) {
	commandsTotal.WithLabelValues(command, status).Inc()
	if status == "error" {
		RecordError("handler")
	}
}

// RecordArchivedFile counts a file written to the archive
func RecordArchivedFile(kind string) {
	filesArchivedTotal.WithLabelValues(kind).Inc()
}

// UpdateArchiveStats updates the subscriber and archive size gauges
func UpdateArchiveStats(subscribers, bytes int64) {
	subscribersTotal.Set(float64(subscribers))
	archiveBytes.Set(float64(bytes))
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

// Handler returns the router serving /health and /metrics
func (s *Server) Handler() http.Handler {
	return s.router
}
