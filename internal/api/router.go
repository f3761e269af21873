package api

import (
	"net/http"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the HTTP API wrapped in CORS handling
func NewRouter(analyzer Analyzer, engine *analysis.Engine, corsOrigins []string) http.Handler {
	h := NewHandler(analyzer, engine)

	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.health).Methods("GET")
	api.HandleFunc("/analyze", h.analyzeVideo).Methods("POST")
	api.HandleFunc("/analyze-comments", h.analyzeComments).Methods("POST")
	api.HandleFunc("/scrape", h.scrape).Methods("POST")
	api.HandleFunc("/detect-bots", h.detectBots).Methods("POST")
	api.HandleFunc("/detect-harassment", h.detectHarassment).Methods("POST")
	api.HandleFunc("/detect-copyright", h.detectCopyright).Methods("POST")
	api.HandleFunc("/instagram-analyze", h.instagramAnalyze).Methods("POST")
	api.HandleFunc("/integrity-check", h.integrityCheck).Methods("POST")
	api.HandleFunc("/metrics", h.metrics).Methods("GET")
	api.HandleFunc("/trigger", h.trigger).Methods("POST")

	// Prometheus exposition
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware tags each request with an id and logs its outcome
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				logrus.WithField("request_id", requestID).Errorf("Handler panicked: %v", p)
				writeError(rec, http.StatusInternalServerError, "Internal server error")
			}

			logrus.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start).String(),
			}).Info("Handled request")
		}()

		next.ServeHTTP(rec, r)
	})
}
