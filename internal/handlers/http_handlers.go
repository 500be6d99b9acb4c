package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"

	"scratchcard/internal/models"
	"scratchcard/internal/services"
)

const (
	headerClientID = "X-Client-ID"
	sessionName    = "scratchcard"
	clientIDKey    = "clientID"
)

var mobileUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsMobileUserAgent reports whether the user agent belongs to a phone or
// tablet, which get a larger brush.
func IsMobileUserAgent(ua string) bool {
	return mobileUA.MatchString(ua)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string         `json:"error"`
	Events []models.Event `json:"events,omitempty"`
}

// HTTPHandler translates HTTP requests into the scratch service's
// normalized pointer events. Touch input is converted to pointer events by
// the page before it reaches the server.
type HTTPHandler struct {
	service *services.ScratchService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.ScratchService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// NewRouter builds the gin engine with compression, cookie sessions and all
// routes.
func NewRouter(h *HTTPHandler, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	h.RegisterPublicRoutes(r)

	clientRoutes := r.Group("/api")
	clientRoutes.Use(h.ClientMiddleware())
	h.RegisterClientRoutes(clientRoutes)

	return r
}

// RegisterPublicRoutes registers routes that need no client identity.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRouter) {
	router.GET("/healthz", h.Healthz)
}

// RegisterClientRoutes registers the scratch routes.
func (h *HTTPHandler) RegisterClientRoutes(router gin.IRouter) {
	router.POST("/session", h.StartSession)
	router.GET("/session", h.GetSession)
	router.POST("/pointer/down", h.PointerDown)
	router.POST("/pointer/move", h.PointerMove)
	router.POST("/pointer/up", h.PointerUp)
	router.POST("/pointer/leave", h.PointerLeave)
	router.POST("/reveal", h.Reveal)
	router.POST("/reset", h.Reset)
}

// ClientMiddleware resolves the client identity: an explicit X-Client-ID
// header, or an id kept in the cookie session and minted on first visit.
func (h *HTTPHandler) ClientMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(headerClientID); id != "" {
			c.Set(clientIDKey, id)
			c.Next()
			return
		}

		session := sessions.Default(c)
		id, _ := session.Get(clientIDKey).(string)
		if id == "" {
			id = uuid.NewString()
			session.Set(clientIDKey, id)
			if err := session.Save(); err != nil {
				logger.Errorf("Error saving client session: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
				return
			}
		}
		c.Set(clientIDKey, id)
		c.Next()
	}
}

func clientID(c *gin.Context) string {
	return c.GetString(clientIDKey)
}

// Healthz reports liveness.
func (h *HTTPHandler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// StartSession opens (or resumes) the client's scratch session.
func (h *HTTPHandler) StartSession(c *gin.Context) {
	mobile := IsMobileUserAgent(c.Request.UserAgent())
	snap, err := h.service.Start(c.Request.Context(), clientID(c), mobile)
	if err != nil {
		h.writeError(c, err, snap.Events)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetSession returns the client's current state.
func (h *HTTPHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status(c.Request.Context(), clientID(c)))
}

// PointerDown handles the start of a stroke.
func (h *HTTPHandler) PointerDown(c *gin.Context) {
	var p models.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid point"})
		return
	}
	h.respond(c)(h.service.PointerDown(c.Request.Context(), clientID(c), p))
}

// PointerMove handles pointer movement during a stroke.
func (h *HTTPHandler) PointerMove(c *gin.Context) {
	var p models.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid point"})
		return
	}
	h.respond(c)(h.service.PointerMove(c.Request.Context(), clientID(c), p))
}

// PointerUp handles the end of a stroke.
func (h *HTTPHandler) PointerUp(c *gin.Context) {
	h.respond(c)(h.service.PointerUp(c.Request.Context(), clientID(c)))
}

// PointerLeave handles the pointer leaving the surface.
func (h *HTTPHandler) PointerLeave(c *gin.Context) {
	h.respond(c)(h.service.PointerLeave(c.Request.Context(), clientID(c)))
}

// Reveal completes the session immediately.
func (h *HTTPHandler) Reveal(c *gin.Context) {
	h.respond(c)(h.service.Reveal(c.Request.Context(), clientID(c)))
}

// Reset clears the client's play record. Demo use only.
func (h *HTTPHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), clientID(c)); err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, h.service.Status(c.Request.Context(), clientID(c)))
}

func (h *HTTPHandler) respond(c *gin.Context) func(services.Snapshot, error) {
	return func(snap services.Snapshot, err error) {
		if err != nil {
			h.writeError(c, err, snap.Events)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func (h *HTTPHandler) writeError(c *gin.Context, err error, events []models.Event) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Events: events})
	case errors.Is(err, models.ErrSurfaceUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Events: events})
	default:
		logger.Errorf("client %s: %v", clientID(c), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
