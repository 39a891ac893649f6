package handlers

import (
	"github.com/gin-gonic/gin"

	"govdoc/internal/domain/annotation"
	"govdoc/internal/infrastructure/http/v1/dto"
)

// AnnotationHandler serves margin notes.
type AnnotationHandler struct {
	*BaseHandler
	service *annotation.Service
}

// NewAnnotationHandler creates an annotation handler.
func NewAnnotationHandler(base *BaseHandler, service *annotation.Service) *AnnotationHandler {
	return &AnnotationHandler{BaseHandler: base, service: service}
}

// List returns the notes of a document, optionally of one page.
// GET /documents/:documentId/annotations?page=2
func (h *AnnotationHandler) List(c *gin.Context) {
	page, ok := h.ParseIntQuery(c, "page", 0)
	if !ok {
		return
	}

	var (
		list []annotation.Annotation
		err  error
	)
	if page > 0 {
		list, err = h.service.ForPage(c.Request.Context(), c.Param("documentId"), page)
	} else {
		list, err = h.service.List(c.Request.Context(), c.Param("documentId"))
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Create adds a note to a document.
// POST /documents/:documentId/annotations
func (h *AnnotationHandler) Create(c *gin.Context) {
	var in annotation.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}
	in.DocumentID = c.Param("documentId")

	a, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a)
}

// Get returns one note.
// GET /annotations/:id
func (h *AnnotationHandler) Get(c *gin.Context) {
	annotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.Get(c.Request.Context(), annotationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}

// Update edits a note. Author or admin only.
// PATCH /annotations/:id
func (h *AnnotationHandler) Update(c *gin.Context) {
	annotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in annotation.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}

	a, err := h.service.Update(c.Request.Context(), annotationID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}

// Delete removes a note. Author or admin only.
// DELETE /annotations/:id
func (h *AnnotationHandler) Delete(c *gin.Context) {
	annotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), annotationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
