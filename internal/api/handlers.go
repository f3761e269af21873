package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/aegis-sec/aegis-analyzer/internal/integrity"
	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/aegis-sec/aegis-analyzer/internal/monitoring"
	"github.com/sirupsen/logrus"
)

const (
	serviceName     = "Aegis YouTube Analyzer API"
	maxUploadMemory = 32 << 20
)

// Analyzer is the service surface the handlers depend on
type Analyzer interface {
	ScrapeVideo(ctx context.Context, urlOrID string, limit int) (string, []models.RawComment, error)
	AnalyzeVideo(ctx context.Context, urlOrID string, keywords []string, limit int) (*models.AnalysisReport, error)
	AnalyzeComments(targetID string, raw []models.RawComment, keywords []string) (*models.AnalysisReport, error)
	AnalyzeInstagram(ctx context.Context, req monitoring.InstagramRequest) (*models.InstagramReport, error)
	RunWatch() error
	GetMetrics() string
}

// Ensure monitoring.Service implements Analyzer
var _ Analyzer = (*monitoring.Service)(nil)

// Handler serves the HTTP API
type Handler struct {
	analyzer Analyzer
	engine   *analysis.Engine
	now      func() time.Time
}

// NewHandler creates the API handlers
func NewHandler(analyzer Analyzer, engine *analysis.Engine) *Handler {
	return &Handler{
		analyzer: analyzer,
		engine:   engine,
		now:      time.Now,
	}
}

type videoRequest struct {
	VideoURL string   `json:"video_url"`
	Keywords []string `json:"keywords"`
	Limit    int      `json:"limit"`
}

type commentsRequest struct {
	Comments []models.RawComment `json:"comments"`
	Keywords []string            `json:"keywords"`
	TargetID string              `json:"target_id"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "online",
		"service":   serviceName,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) analyzeVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeError(w, http.StatusBadRequest, "Missing video_url parameter")
		return
	}

	report, err := h.analyzer.AnalyzeVideo(r.Context(), req.VideoURL, req.Keywords, req.Limit)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) analyzeComments(w http.ResponseWriter, r *http.Request) {
	var req commentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Comments) == 0 {
		writeError(w, http.StatusBadRequest, "Missing comments parameter")
		return
	}

	report, err := h.analyzer.AnalyzeComments(req.TargetID, req.Comments, req.Keywords)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) scrape(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeError(w, http.StatusBadRequest, "Missing video_url parameter")
		return
	}

	videoID, comments, err := h.analyzer.ScrapeVideo(r.Context(), req.VideoURL, req.Limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if comments == nil {
		comments = []models.RawComment{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"video_id": videoID,
		"comments": comments,
		"total":    len(comments),
	})
}

// decodeComments requires the comments key; an empty list is allowed
func decodeComments(w http.ResponseWriter, r *http.Request) (*commentsRequest, bool) {
	var req commentsRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if req.Comments == nil {
		writeError(w, http.StatusBadRequest, "Missing comments parameter")
		return nil, false
	}
	return &req, true
}

func (h *Handler) detectBots(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeComments(w, r)
	if !ok {
		return
	}

	indicators, err := h.engine.DetectBots(req.Comments)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"bot_indicators": indicators,
		"total_bots":     analysis.BotCommentCount(indicators),
	})
}

func (h *Handler) detectHarassment(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeComments(w, r)
	if !ok {
		return
	}

	indicators, comments, err := h.engine.DetectHarassment(req.Comments)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":               true,
		"harassment_indicators": indicators,
		"harassment_comments":   comments,
		"total":                 len(comments),
	})
}

func (h *Handler) detectCopyright(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeComments(w, r)
	if !ok {
		return
	}

	violations, err := h.engine.DetectCopyright(req.Comments, req.Keywords)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"violations": violations,
		"total":      len(violations),
	})
}

func (h *Handler) instagramAnalyze(w http.ResponseWriter, r *http.Request) {
	var req monitoring.InstagramRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.analyzer.AnalyzeInstagram(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type integrityResponse struct {
	Success bool `json:"success"`
	*integrity.Result
}

func (h *Handler) integrityCheck(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Missing file upload (field name: file)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file upload (field name: file)")
		return
	}
	defer file.Close()

	result, err := integrity.Check(file)
	if err != nil {
		writeFailure(w, err)
		return
	}

	logrus.Infof("Integrity check of %s (%d bytes): leaked=%t", header.Filename, result.Size, result.LeakCheck.Leaked)
	writeJSON(w, http.StatusOK, integrityResponse{Success: true, Result: result})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.analyzer.GetMetrics()))
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.analyzer.RunWatch(); err != nil {
			logrus.Errorf("Manual watch trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Watch run triggered",
	})
}
