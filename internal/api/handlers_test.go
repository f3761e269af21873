package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/aegis-sec/aegis-analyzer/internal/monitoring"
	"github.com/aegis-sec/aegis-analyzer/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnalyzer is a mock implementation of the analyzer service
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) ScrapeVideo(ctx context.Context, urlOrID string, limit int) (string, []models.RawComment, error) {
	args := m.Called(ctx, urlOrID, limit)
	raw, _ := args.Get(1).([]models.RawComment)
	return args.String(0), raw, args.Error(2)
}

func (m *MockAnalyzer) AnalyzeVideo(ctx context.Context, urlOrID string, keywords []string, limit int) (*models.AnalysisReport, error) {
	args := m.Called(ctx, urlOrID, keywords, limit)
	report, _ := args.Get(0).(*models.AnalysisReport)
	return report, args.Error(1)
}

func (m *MockAnalyzer) AnalyzeComments(targetID string, raw []models.RawComment, keywords []string) (*models.AnalysisReport, error) {
	args := m.Called(targetID, raw, keywords)
	report, _ := args.Get(0).(*models.AnalysisReport)
	return report, args.Error(1)
}

func (m *MockAnalyzer) AnalyzeInstagram(ctx context.Context, req monitoring.InstagramRequest) (*models.InstagramReport, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*models.InstagramReport)
	return report, args.Error(1)
}

func (m *MockAnalyzer) RunWatch() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockAnalyzer) GetMetrics() string {
	args := m.Called()
	return args.String(0)
}

func newTestRouter(analyzer *MockAnalyzer) http.Handler {
	return NewRouter(analyzer, analysis.NewEngine(analysis.DefaultOptions()), []string{"*"})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func commentList(texts ...string) []map[string]interface{} {
	comments := make([]map[string]interface{}, 0, len(texts))
	for i, text := range texts {
		comments = append(comments, map[string]interface{}{
			"id":     fmt.Sprintf("c%d", i),
			"text":   text,
			"author": fmt.Sprintf("user%d", i),
		})
	}
	return comments
}

func TestHealth(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(&MockAnalyzer{}), "GET", "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnalyzeVideo(t *testing.T) {
	report := &models.AnalysisReport{
		Success:    true,
		VideoID:    "dQw4w9WgXcQ",
		Timestamp:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Statistics: models.Statistics{TotalComments: 3, ThreatLevel: models.ThreatLow},
	}

	tests := []struct {
		name           string
		body           interface{}
		setup          func(m *MockAnalyzer)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Missing video_url",
			body:           map[string]interface{}{"keywords": []string{"x"}},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing video_url parameter",
		},
		{
			name:           "Malformed JSON",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid video id",
			body: map[string]interface{}{"video_url": "https://example.com"},
			setup: func(m *MockAnalyzer) {
				m.On("AnalyzeVideo", mock.Anything, "https://example.com", []string(nil), 0).Return(nil, sources.ErrInvalidVideoID)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  sources.ErrInvalidVideoID.Error(),
		},
		{
			name: "No comments",
			body: map[string]interface{}{"video_url": "dQw4w9WgXcQ"},
			setup: func(m *MockAnalyzer) {
				m.On("AnalyzeVideo", mock.Anything, "dQw4w9WgXcQ", []string(nil), 0).Return(nil, monitoring.ErrNoComments)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  monitoring.ErrNoComments.Error(),
		},
		{
			name: "Upstream failure",
			body: map[string]interface{}{"video_url": "dQw4w9WgXcQ"},
			setup: func(m *MockAnalyzer) {
				m.On("AnalyzeVideo", mock.Anything, "dQw4w9WgXcQ", []string(nil), 0).
					Return(nil, fmt.Errorf("%w: youtube: %w", monitoring.ErrScrapeFailed, fmt.Errorf("status 500")))
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name: "Engine failure",
			body: map[string]interface{}{"video_url": "dQw4w9WgXcQ"},
			setup: func(m *MockAnalyzer) {
				m.On("AnalyzeVideo", mock.Anything, "dQw4w9WgXcQ", []string(nil), 0).
					Return(nil, &analysis.AnalysisFailure{Stage: "aggregation", Cause: "boom"})
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "analysis failed during aggregation: boom",
		},
		{
			name: "Success",
			body: map[string]interface{}{"video_url": "dQw4w9WgXcQ", "keywords": []string{"movie"}, "limit": 50},
			setup: func(m *MockAnalyzer) {
				m.On("AnalyzeVideo", mock.Anything, "dQw4w9WgXcQ", []string{"movie"}, 50).Return(report, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &MockAnalyzer{}
			if tt.setup != nil {
				tt.setup(analyzer)
			}

			rec, body := doJSON(t, newTestRouter(analyzer), "POST", "/api/analyze", tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "dQw4w9WgXcQ", body["video_id"])
			} else {
				assert.Equal(t, false, body["success"])
				if tt.expectedError != "" {
					assert.Equal(t, tt.expectedError, body["error"])
				}
			}
			analyzer.AssertExpectations(t)
		})
	}
}

func TestAnalyzeComments(t *testing.T) {
	t.Run("Empty comments", func(t *testing.T) {
		rec, body := doJSON(t, newTestRouter(&MockAnalyzer{}), "POST", "/api/analyze-comments", map[string]interface{}{"comments": []interface{}{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing comments parameter", body["error"])
	})

	t.Run("Success", func(t *testing.T) {
		analyzer := &MockAnalyzer{}
		analyzer.On("AnalyzeComments", "campaign", mock.Anything, []string{"movie"}).
			Return(&models.AnalysisReport{Success: true, VideoID: "campaign"}, nil)

		rec, body := doJSON(t, newTestRouter(analyzer), "POST", "/api/analyze-comments", map[string]interface{}{
			"comments":  commentList("first", "second"),
			"keywords":  []string{"movie"},
			"target_id": "campaign",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "campaign", body["video_id"])

		raw := analyzer.Calls[0].Arguments.Get(1).([]models.RawComment)
		require.Len(t, raw, 2)
		assert.Equal(t, "second", raw[1]["text"])
	})
}

func TestScrape(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("ScrapeVideo", mock.Anything, "dQw4w9WgXcQ", 0).Return("dQw4w9WgXcQ", []models.RawComment{{"id": "1", "text": "hi"}}, nil)

	rec, body := doJSON(t, newTestRouter(analyzer), "POST", "/api/scrape", map[string]interface{}{"video_url": "dQw4w9WgXcQ"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dQw4w9WgXcQ", body["video_id"])
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["comments"], 1)
}

func TestDetectBots(t *testing.T) {
	router := newTestRouter(&MockAnalyzer{})

	rec, body := doJSON(t, router, "POST", "/api/detect-bots", map[string]interface{}{
		"comments": commentList("buy followers now", "buy followers now", "buy followers now", "nice video", "thanks"),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["total_bots"])

	indicators := body["bot_indicators"].([]interface{})
	require.Len(t, indicators, 2)
	assert.Equal(t, models.IndicatorDuplicateText, indicators[0].(map[string]interface{})["type"])
	assert.Equal(t, models.IndicatorSpamPattern, indicators[1].(map[string]interface{})["type"])

	rec, body = doJSON(t, router, "POST", "/api/detect-bots", map[string]interface{}{"comments": []interface{}{}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["total_bots"])
	assert.Empty(t, body["bot_indicators"])

	rec, body = doJSON(t, router, "POST", "/api/detect-bots", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing comments parameter", body["error"])
}

func TestDetectHarassment(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(&MockAnalyzer{}), "POST", "/api/detect-harassment", map[string]interface{}{
		"comments": commentList("you are so ugly", "nice video"),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	indicators := body["harassment_indicators"].([]interface{})
	require.Len(t, indicators, 1)
	assert.Equal(t, analysis.HarassmentBodyShaming, indicators[0].(map[string]interface{})["type"])
}

func TestDetectCopyright(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(&MockAnalyzer{}), "POST", "/api/detect-copyright", map[string]interface{}{
		"comments": commentList("full movie link below", "episode 4 when", "nice video"),
		"keywords": []string{"Episode 4"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total"])

	violations := body["violations"].([]interface{})
	require.Len(t, violations, 2)
	assert.Equal(t, string(models.SeverityHigh), violations[0].(map[string]interface{})["severity"])
	assert.Equal(t, string(models.SeverityMedium), violations[1].(map[string]interface{})["severity"])
}

func TestInstagramAnalyze(t *testing.T) {
	analyzer := &MockAnalyzer{}
	analyzer.On("AnalyzeInstagram", mock.Anything, monitoring.InstagramRequest{}).Return(nil, monitoring.ErrMissingTarget)
	analyzer.On("AnalyzeInstagram", mock.Anything, monitoring.InstagramRequest{Username: "natgeo", CommentsLimit: 10}).
		Return(&models.InstagramReport{Success: true, ScanID: "ig_1", Flagged: []models.FlaggedAccount{}}, nil)

	router := newTestRouter(analyzer)

	rec, body := doJSON(t, router, "POST", "/api/instagram-analyze", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, monitoring.ErrMissingTarget.Error(), body["error"])

	rec, body = doJSON(t, router, "POST", "/api/instagram-analyze", map[string]interface{}{"username": "natgeo", "comments_limit": 10})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ig_1", body["scan_id"])
}

func TestIntegrityCheck(t *testing.T) {
	router := newTestRouter(&MockAnalyzer{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "episode.mp4")
	require.NoError(t, err)
	part.Write([]byte("abc"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/integrity-check", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Hash    struct {
			SHA256 string `json:"sha256"`
		} `json:"hash"`
		LeakCheck struct {
			Leaked bool `json:"leaked"`
		} `json:"leak_check"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", body.Hash.SHA256)
	assert.False(t, body.LeakCheck.Leaked)

	rec, decoded := doJSON(t, router, "POST", "/api/integrity-check", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing file upload (field name: file)", decoded["error"])
}

func TestMetricsAndTrigger(t *testing.T) {
	done := make(chan struct{})
	analyzer := &MockAnalyzer{}
	analyzer.On("GetMetrics").Return(`{"total_analyses":4}`)
	analyzer.On("RunWatch").Return(nil).Run(func(mock.Arguments) { close(done) })

	router := newTestRouter(analyzer)

	rec, body := doJSON(t, router, "GET", "/api/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, body["total_analyses"])

	rec, body = doJSON(t, router, "POST", "/api/trigger", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, true, body["success"])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch run was not triggered")
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	newTestRouter(&MockAnalyzer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aegis_alerts_sent_total")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/api/analyze", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestRouter(&MockAnalyzer{}).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(&MockAnalyzer{}), "GET", "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}
