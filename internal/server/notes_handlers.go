package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rishikanthc/zendown/internal/notes"
)

type upsertNotePayload struct {
	Title   string          `json:"title"`
	Content *string         `json:"content"`
	Tags    notes.TagsInput `json:"tags"`
}

// handleUpsertNote is the title-keyed create-or-update: 201 when the derived
// canonical path was free, 200 when an existing note was edited.
func (h *httpHandler) handleUpsertNote(c *gin.Context) {
	var payload upsertNotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	if strings.TrimSpace(payload.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title_required"})
		return
	}
	if payload.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_required"})
		return
	}

	result, err := h.notes.UpsertByTitle(c.Request.Context(), notes.UpsertInput{
		Title:   payload.Title,
		Content: *payload.Content,
		Tags:    payload.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result.Note)
}

type createNotePayload struct {
	Content *string         `json:"content"`
	Tags    notes.TagsInput `json:"tags"`
}

// handleCreateNote is the content-derived create-only route; the title comes
// from the first level-1 heading and an occupied path is a conflict.
func (h *httpHandler) handleCreateNote(c *gin.Context) {
	var payload createNotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	if payload.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_required"})
		return
	}

	note, err := h.notes.CreateFromContent(c.Request.Context(), notes.ContentInput{
		Content: *payload.Content,
		Tags:    payload.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

type updateNotePayload struct {
	ID      string          `json:"id"`
	Content *string         `json:"content"`
	Tags    notes.TagsInput `json:"tags"`
}

// handleUpdateNote rewrites an existing note by id from its new content.
func (h *httpHandler) handleUpdateNote(c *gin.Context) {
	var payload updateNotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	if strings.TrimSpace(payload.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "note_id_required"})
		return
	}
	if payload.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_required"})
		return
	}

	note, err := h.notes.UpdateFromContent(c.Request.Context(), notes.ContentUpdateInput{
		ID:      payload.ID,
		Content: *payload.Content,
		Tags:    payload.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// handleGetNote looks a note up by either its id or its canonical path.
func (h *httpHandler) handleGetNote(c *gin.Context) {
	identifier := strings.TrimSpace(c.Param("identifier"))
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier_required"})
		return
	}

	note, err := h.notes.Get(c.Request.Context(), identifier)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// handleDeleteNote removes a note by id. The route is gated by requireAuth.
func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("identifier"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "note_id_required"})
		return
	}

	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	if account, ok := currentUser(c); ok {
		h.logger.Info("note deleted",
			zap.String("note_id", id),
			zap.String("username", account.Username))
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type bulkLookupPayload struct {
	IDs *[]string `json:"ids"`
}

// handleBulkLookup resolves a list of ids to note references; unknown ids
// are omitted from the result rather than reported.
func (h *httpHandler) handleBulkLookup(c *gin.Context) {
	var payload bulkLookupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	if payload.IDs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids_required"})
		return
	}
	if len(*payload.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids_empty"})
		return
	}

	refs, err := h.notes.BulkLookup(c.Request.Context(), *payload.IDs)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, refs)
}

// handleListTitles returns every note's summary, most recently modified first.
func (h *httpHandler) handleListTitles(c *gin.Context) {
	summaries, err := h.notes.ListTitles(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// handleNoteExists reports whether a canonical path is taken, where the path
// is supplied directly or derived from a title.
func (h *httpHandler) handleNoteExists(c *gin.Context) {
	title := c.Query("title")
	canonicalPath := c.Query("canonical_path")
	if strings.TrimSpace(title) == "" && strings.TrimSpace(canonicalPath) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title_or_canonical_path_required"})
		return
	}

	result, err := h.notes.Exists(c.Request.Context(), title, canonicalPath)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleTagsForNote extracts the inline hashtags of one note.
func (h *httpHandler) handleTagsForNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "note_id_required"})
		return
	}

	tags, err := h.notes.TagsForNote(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// handleNotesWithTag lists the ids of notes carrying an inline hashtag.
func (h *httpHandler) handleNotesWithTag(c *gin.Context) {
	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag_required"})
		return
	}

	ids, err := h.notes.NotesWithTag(c.Request.Context(), tag)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"noteIds": ids})
}
