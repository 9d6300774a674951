package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(1, 2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	// Keys have independent budgets.
	assert.True(t, l.Allow("b"))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewKeyedLimiter(1, 1), zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestOperatorAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(OperatorAuthMiddleware(func(id int64) bool { return id == 42 }))
	r.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator": c.GetInt64("operatorID")})
	})

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"abc", http.StatusUnauthorized},
		{"7", http.StatusForbidden},
		{"42", http.StatusOK},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set(OperatorHeader, tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "header %q", tc.header)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		validated any
		want      string
	}{
		{"unverified operator header", map[string]string{OperatorHeader: "42", "X-Forwarded-For": "10.0.0.1"}, nil, "ip:10.0.0.1"},
		{"validated operator", map[string]string{OperatorHeader: "42"}, int64(42), "operator:42"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, nil, "ip:10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, nil, "ip:10.0.0.3"},
		{"remote addr", nil, nil, "ip:192.0.2.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			if tc.validated != nil {
				c.Set("operatorID", tc.validated)
			}
			assert.Equal(t, tc.want, clientKey(c))
		})
	}
}

func TestRateLimitMiddleware_IgnoresForgedOperatorHeader(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewKeyedLimiter(1, 1), zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(OperatorHeader, strconv.Itoa(1000+i))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestKeyedLimiter_EvictsIdleKeys(t *testing.T) {
	now := time.Date(2025, 7, 18, 10, 0, 0, 0, time.UTC)
	l := NewKeyedLimiter(60, 5)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		l.Allow(strconv.Itoa(i))
	}
	assert.Equal(t, 10, l.Len())

	now = now.Add(30 * time.Second)
	l.Allow("fresh")
	assert.Equal(t, 11, l.Len(), "nothing is idle yet")

	now = now.Add(time.Minute)
	l.Allow("fresh")
	assert.Equal(t, 1, l.Len())
}
