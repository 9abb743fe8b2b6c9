package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rishikanthc/zendown/internal/auth"
	"github.com/rishikanthc/zendown/internal/notes"
	"github.com/rishikanthc/zendown/internal/users"
)

const currentUserContextKey = "zendown_current_user"

var (
	errMissingNotesService = errors.New("notes service dependency required")
	errMissingAuthService  = errors.New("auth service dependency required")
	errMissingCookieName   = errors.New("session cookie name required")
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	NotesService   *notes.Service
	AuthService    *auth.Service
	CookieName     string
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewHTTPHandler validates the dependencies and builds the gin router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}
	if deps.AuthService == nil {
		return nil, errMissingAuthService
	}
	if deps.CookieName == "" {
		return nil, errMissingCookieName
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		notes:      deps.NotesService,
		auth:       deps.AuthService,
		cookieName: deps.CookieName,
		logger:     logger,
	}

	router.Use(handler.attachSession)

	api := router.Group("/api")
	api.POST("/notes", handler.handleUpsertNote)
	api.POST("/notes/create", handler.handleCreateNote)
	api.POST("/notes/update", handler.handleUpdateNote)
	api.GET("/notes/titles", handler.handleListTitles)
	api.GET("/notes/exists", handler.handleNoteExists)
	api.POST("/notes/bulk-lookup", handler.handleBulkLookup)
	api.GET("/notes/related", handler.handleRelatedNotes)
	api.POST("/notes/semantic-search", handler.handleSemanticSearch)
	api.GET("/notes/:identifier", handler.handleGetNote)
	api.DELETE("/notes/:identifier", handler.requireAuth, handler.handleDeleteNote)
	api.GET("/tags/:id", handler.handleTagsForNote)
	api.GET("/tags/tag/:tag", handler.handleNotesWithTag)

	router.POST("/auth/login", handler.handleLogin)
	router.POST("/auth/logout", handler.handleLogout)

	return router, nil
}

// corsMiddleware allows the configured origins with credentials. Without
// configured origins every origin is allowed, but credentialed requests are
// not, which the cors package enforces by refusing the wildcard+credentials
// combination.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	} else {
		cfg.AllowOrigins = []string{"*"}
	}
	return cors.New(cfg)
}

type httpHandler struct {
	notes      *notes.Service
	auth       *auth.Service
	cookieName string
	logger     *zap.Logger
}

// attachSession resolves the session cookie, if any, and stores the user on
// the request context. It never rejects: ungated routes stay ungated.
func (h *httpHandler) attachSession(c *gin.Context) {
	token, err := c.Cookie(h.cookieName)
	if err != nil || token == "" {
		c.Next()
		return
	}

	account, _, err := h.auth.Validate(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, auth.ErrSessionInvalid) {
			h.logger.Error("session validation failed", zap.Error(err))
		}
		c.Next()
		return
	}

	c.Set(currentUserContextKey, account)
	c.Next()
}

func (h *httpHandler) requireAuth(c *gin.Context) {
	if _, ok := c.Get(currentUserContextKey); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) (users.User, bool) {
	value, ok := c.Get(currentUserContextKey)
	if !ok {
		return users.User{}, false
	}
	account, ok := value.(users.User)
	return account, ok
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized becomes an opaque 500; internal detail never leaks.
func (h *httpHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notes.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "title_required"})
	case errors.Is(err, notes.ErrNoteIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "note_id_required"})
	case errors.Is(err, notes.ErrTitleNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "title_not_found_in_content"})
	case errors.Is(err, notes.ErrEmptySlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_canonical_path"})
	case errors.Is(err, notes.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "note_not_found"})
	case errors.Is(err, notes.ErrPathConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "canonical_path_conflict"})
	case errors.Is(err, notes.ErrIndexFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "similarity_index_error"})
	case errors.Is(err, notes.ErrIndexUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "similarity_index_unavailable"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
