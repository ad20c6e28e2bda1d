package api

import (
	"alcyxob/dojo-app/internal/live"
	"alcyxob/dojo-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the free-session endpoints onto the router. All session
// routes require a verified bearer token; the (branch, groupKey) scope rides
// in the path, mirroring the store's partition layout.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	sessionService service.SessionService,
	liveService *live.Service,
) {
	sessionHandler := NewSessionHandler(sessionService, liveService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			uid, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"uid": uid, "name": getUserNameFromContext(c)})
		})

		groupScope := protected.Group("/branches/:branch/groups/:groupKey")
		{
			// POST   /api/v1/branches/{branch}/groups/{groupKey}/free-sessions
			groupScope.POST("/free-sessions", sessionHandler.CreateSession)
			// GET    .../free-sessions/upcoming
			groupScope.GET("/free-sessions/upcoming", sessionHandler.ListUpcoming)
			// GET    .../free-sessions/upcoming/stream    (SSE)
			groupScope.GET("/free-sessions/upcoming/stream", sessionHandler.StreamUpcoming)
			// GET    .../free-sessions/{sessionId}
			groupScope.GET("/free-sessions/:sessionId", sessionHandler.GetSession)
			// POST   .../free-sessions/{sessionId}/close
			groupScope.POST("/free-sessions/:sessionId/close", sessionHandler.CloseSession)
			// DELETE .../free-sessions/{sessionId}
			groupScope.DELETE("/free-sessions/:sessionId", sessionHandler.DeleteSession)
			// PUT    .../free-sessions/{sessionId}/participants/{uid}
			groupScope.PUT("/free-sessions/:sessionId/participants/:uid", sessionHandler.SetParticipantState)
			// GET    .../free-sessions/{sessionId}/participants/stream    (SSE)
			groupScope.GET("/free-sessions/:sessionId/participants/stream", sessionHandler.StreamParticipants)
		}
	}
}
