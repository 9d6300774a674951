package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorHeader carries the operator's chat id on admin API requests.
const OperatorHeader = "X-Operator-ID"

// OperatorAuthMiddleware admits only requests whose X-Operator-ID is on the operator allow-list.
func OperatorAuthMiddleware(isOperator func(chatID int64) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing " + OperatorHeader + " header"})
			return
		}
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid " + OperatorHeader + " header"})
			return
		}
		if !isOperator(chatID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized operator access"})
			return
		}

		c.Set("operatorID", chatID)
		c.Next()
	}
}
