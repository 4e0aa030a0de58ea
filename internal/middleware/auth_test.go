package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "")
}

func runRequest(secret, authHeader string) (*httptest.ResponseRecorder, string) {
	router := gin.New()
	var source string
	router.POST("/t", TriggerAuth(secret), func(c *gin.Context) {
		source = c.GetString(AuthSourceKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/t", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, source
}

func TestTriggerAuth(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
		wantSource string
	}{
		{"valid token", "s3cret", "Bearer s3cret", http.StatusOK, AuthSourceToken},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized, ""},
		{"missing bearer prefix", "s3cret", "s3cret", http.StatusUnauthorized, ""},
		{"no header passes through unmarked", "s3cret", "", http.StatusOK, ""},
		{"empty secret rejects any token", "", "Bearer anything", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, source := runRequest(tt.secret, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}
