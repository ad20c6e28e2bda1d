package api

import (
	"alcyxob/dojo-app/internal/domain"
	"alcyxob/dojo-app/internal/live"
	"alcyxob/dojo-app/internal/service"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the free-session subsystem over HTTP.
type SessionHandler struct {
	sessions service.SessionService
	feeds    *live.Service
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions service.SessionService, feeds *live.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions, feeds: feeds}
}

// createSessionRequest is the POST body for opening a session.
type createSessionRequest struct {
	Title        string   `json:"title" binding:"required"`
	LocationName string   `json:"locationName"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	StartsAt     int64    `json:"startsAt" binding:"required"` // epoch millis
}

// setStateRequest is the PUT body for a participant commitment change.
type setStateRequest struct {
	State string `json:"state" binding:"required"`
	Name  string `json:"name"`
}

// CreateSession handles POST /branches/:branch/groups/:groupKey/free-sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), service.CreateSessionInput{
		Branch:        c.Param("branch"),
		GroupKey:      c.Param("groupKey"),
		Title:         req.Title,
		LocationName:  req.LocationName,
		Lat:           req.Lat,
		Lng:           req.Lng,
		StartsAt:      req.StartsAt,
		CreatedByUID:  uid,
		CreatedByName: getUserNameFromContext(c),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession handles GET .../free-sessions/:sessionId
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), c.Param("branch"), c.Param("groupKey"), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListUpcoming handles GET .../free-sessions/upcoming
func (h *SessionHandler) ListUpcoming(c *gin.Context) {
	sessions, err := h.sessions.ListUpcoming(c.Request.Context(), c.Param("branch"), c.Param("groupKey"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// SetParticipantState handles PUT .../free-sessions/:sessionId/participants/:uid
// A member may only write their own participant record; the data layer keeps
// no such rule, so this boundary is where the uid ownership check lives.
func (h *SessionHandler) SetParticipantState(c *gin.Context) {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	if c.Param("uid") != uid {
		abortWithError(c, http.StatusForbidden, "A member may only change their own participation state")
		return
	}

	var req setStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !domain.KnownParticipantState(req.State) {
		abortWithError(c, http.StatusBadRequest, "Unrecognized participant state: "+req.State)
		return
	}

	name := req.Name
	if name == "" {
		name = getUserNameFromContext(c)
	}

	err = h.sessions.SetParticipantState(
		c.Request.Context(),
		c.Param("branch"), c.Param("groupKey"), c.Param("sessionId"),
		uid, name,
		domain.ParseParticipantState(req.State),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CloseSession handles POST .../free-sessions/:sessionId/close
func (h *SessionHandler) CloseSession(c *gin.Context) {
	err := h.sessions.CloseSession(c.Request.Context(), c.Param("branch"), c.Param("groupKey"), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSession handles DELETE .../free-sessions/:sessionId
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	err := h.sessions.DeleteFreeSession(c.Request.Context(), c.Param("branch"), c.Param("groupKey"), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamUpcoming handles GET .../free-sessions/upcoming/stream as SSE. Every
// store change pushes a fresh, complete snapshot event; the subscription is
// torn down when the client disconnects.
func (h *SessionHandler) StreamUpcoming(c *gin.Context) {
	feed, err := h.feeds.UpcomingSessions(c.Request.Context(), c.Param("branch"), c.Param("groupKey"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to open live feed")
		return
	}

	streamSnapshots(c, "sessions", feed)
}

// StreamParticipants handles GET .../free-sessions/:sessionId/participants/stream as SSE.
func (h *SessionHandler) StreamParticipants(c *gin.Context) {
	feed, err := h.feeds.SessionParticipants(c.Request.Context(), c.Param("branch"), c.Param("groupKey"), c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to open live feed")
		return
	}

	streamSnapshots(c, "participants", feed)
}

// streamSnapshots writes each snapshot from the feed as one SSE event until
// the feed closes (client gone or server shutdown).
func streamSnapshots[T any](c *gin.Context, event string, feed <-chan []T) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-feed
		if !ok {
			return false
		}
		c.SSEvent(event, snapshot)
		return true
	})
}

// handleServiceError maps service errors onto HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrStartTimeRequired),
		errors.Is(err, service.ErrScopeRequired),
		errors.Is(err, service.ErrUIDRequired):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		// Persistence failures are recoverable from the caller's side; retry
		// policy stays with the client.
		abortWithError(c, http.StatusInternalServerError, "Operation failed, please retry")
	}
}
