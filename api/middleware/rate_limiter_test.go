// api/middleware/rate_limiter_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "keys are limited independently")

	clock = clock.Add(61 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "old requests fall out of the window")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(limit int) []int {
		router := gin.New()
		router.POST("/token", RateLimitMiddleware(NewRateLimiter(limit, time.Minute)), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/token", nil)
			router.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		return codes
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, serve(2))
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusNoContent}, serve(0))
}
