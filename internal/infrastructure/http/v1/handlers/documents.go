package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"govdoc/internal/domain/issuance"
)

// Response headers describing a rendered document.
const (
	HeaderPageCount      = "X-Page-Count"
	HeaderDocumentNumber = "X-Document-Number"
)

var convertedTypes = map[string]string{
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"odt":  "application/vnd.oasis.opendocument.text",
	"doc":  "application/msword",
	"rtf":  "application/rtf",
	"pdf":  "application/pdf",
}

// DocumentHandler renders documents.
type DocumentHandler struct {
	*BaseHandler
	service *issuance.Service
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(base *BaseHandler, service *issuance.Service) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service}
}

// Render issues a document and returns the PDF.
// POST /documents/render
func (h *DocumentHandler) Render(c *gin.Context) {
	var req issuance.Request
	if !h.BindJSON(c, &req) {
		return
	}

	out, err := h.service.Issue(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header(HeaderPageCount, strconv.Itoa(out.PageCount))
	if out.Number != "" {
		c.Header(HeaderDocumentNumber, out.Number)
	}
	c.Data(http.StatusOK, "application/pdf", out.Bytes)
}

// Markup returns the HTML rendition used for conversion.
// POST /documents/markup
func (h *DocumentHandler) Markup(c *gin.Context) {
	var req issuance.Request
	if !h.BindJSON(c, &req) {
		return
	}

	out, err := h.service.Markup(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", out)
}

// Convert issues a document in an editable format.
// POST /documents/convert?target=docx
func (h *DocumentHandler) Convert(c *gin.Context) {
	var req issuance.Request
	if !h.BindJSON(c, &req) {
		return
	}
	target := strings.ToLower(c.DefaultQuery("target", "docx"))

	out, err := h.service.Convert(c.Request.Context(), req, target)
	if err != nil {
		h.Error(c, err)
		return
	}

	contentType, ok := convertedTypes[target]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="document.%s"`, target))
	c.Data(http.StatusOK, contentType, out)
}
