package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinicflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

func TestErrorHandlerWritesEnvelopeForUnhandledError(t *testing.T) {
	r := newErrorRouter()
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("database exploded")) //nolint:errcheck
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// Internal detail never reaches the client.
	assert.Equal(t, "internal server error", body["detail"])
}

func TestErrorHandlerDoesNotDoubleWrite(t *testing.T) {
	r := newErrorRouter()
	// Handlers log the cause via c.Error but answer the client themselves.
	r.GET("/handled", func(c *gin.Context) {
		c.Error(errors.New("database exploded")) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/handled", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	dec := json.NewDecoder(w.Body)
	var body map[string]string
	require.NoError(t, dec.Decode(&body))
	assert.Equal(t, "internal error", body["detail"])
	// Exactly one JSON document in the body, no envelope appended after it.
	assert.False(t, dec.More())
}
