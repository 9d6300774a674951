package routes

import (
	"time"

	"tourbot/handlers"
	"tourbot/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterAdminRoutes sets up the operator endpoints over the booking store.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle, isOperator func(int64) bool) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.OperatorAuthMiddleware(isOperator))
		adminGroup.GET("/bookings", hb.ListBookingsHandler)
		adminGroup.PATCH("/bookings/:id/status", hb.UpdateBookingStatusHandler)
		adminGroup.DELETE("/bookings/:id", hb.DeleteBookingHandler)
		adminGroup.DELETE("/bookings", hb.DeleteAllBookingsHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
// rateLimit may be nil.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, rateLimit gin.HandlerFunc, isOperator func(int64) bool) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", middleware.OperatorHeader},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)

	// Throttling is applied after the health routes so probes are never limited.
	if rateLimit != nil {
		r.Use(rateLimit)
	}
	RegisterAdminRoutes(r, hb, isOperator)
}
