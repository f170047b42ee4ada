package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/metrics"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	endpoint string
	status   int
}

type recordingRecorder struct {
	calls []apiCall
}

func (r *recordingRecorder) RecordAPIRequest(_ context.Context, endpoint string, status int, _ time.Duration) {
	r.calls = append(r.calls, apiCall{endpoint, status})
}

func (r *recordingRecorder) RecordGeneration(context.Context, metrics.GenerationEvent) {}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestTracking(t *testing.T) {
	recorder := &recordingRecorder{}
	router := gin.New()
	router.Use(RequestTracking(recorder))
	router.GET("/items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))

	require.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(requestID)
	require.NoError(t, err)
	assert.Equal(t, requestID, w.Body.String())

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, apiCall{"/items/:id", http.StatusOK}, recorder.calls[0])
}

func TestRecoverWithSentry(t *testing.T) {
	router := gin.New()
	router.Use(RecoverWithSentry(), RequestTracking(nil))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Kind)
	assert.Equal(t, "Internal server error", body.Error)
}

func TestCORS(t *testing.T) {
	t.Run("allow all", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS([]string{"*"}))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS([]string{"https://app.example.com"}))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
