package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

type fakeLeaderboard struct {
	scores    []models.TopScore
	hit       bool
	err       error
	lastLimit int
	scope     string
}

func (f *fakeLeaderboard) TopToday(_ context.Context, limit int) ([]models.TopScore, bool, error) {
	f.scope, f.lastLimit = "today", limit
	return f.scores, f.hit, f.err
}

func (f *fakeLeaderboard) TopAllTime(_ context.Context, limit int) ([]models.TopScore, bool, error) {
	f.scope, f.lastLimit = "all", limit
	return f.scores, f.hit, f.err
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestDashboardTopScoresDefaultsToToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLeaderboard{scores: []models.TopScore{{Rank: 1, UserID: "u1", Score: 98}}, hit: true}
	handler := NewDashboardHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/top-scores", nil)

	handler.TopScores(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "today", svc.scope)
	assert.Equal(t, 0, svc.lastLimit)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "today", envelope.Meta["scope"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")

	var scores []models.TopScore
	require.NoError(t, json.Unmarshal(envelope.Data, &scores))
	assert.Equal(t, "u1", scores[0].UserID)
}

func TestDashboardTopScoresAllTimeWithLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLeaderboard{scores: []models.TopScore{}}
	handler := NewDashboardHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/top-scores?scope=ALL&limit=5", nil)

	handler.TopScores(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "all", svc.scope)
	assert.Equal(t, 5, svc.lastLimit)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["cache_hit"])
}

func TestDashboardTopScoresRejectsUnknownScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeLeaderboard{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/top-scores?scope=week", nil)

	handler.TopScores(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestDashboardTopScoresRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeLeaderboard{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/top-scores?limit=ten", nil)

	handler.TopScores(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
