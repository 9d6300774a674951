package middleware

import (
	"net"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientKey identifies the caller for rate limiting. Only an operator id already
// validated by OperatorAuthMiddleware is trusted; a raw header never is.
func clientKey(c *gin.Context) string {
	if id, ok := c.Get("operatorID"); ok {
		if chatID, ok := id.(int64); ok {
			return "operator:" + strconv.FormatInt(chatID, 10)
		}
	}
	return "ip:" + getClientIP(c)
}

func getClientIP(c *gin.Context) string {
	// First hop of X-Forwarded-For wins.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
