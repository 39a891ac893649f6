package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"govdoc/internal/asset"
	"govdoc/internal/core/apperror"
	"govdoc/internal/infrastructure/http/v1/dto"
	"govdoc/pkg/logger"
)

// MaxAssetBytes bounds uploaded images.
const MaxAssetBytes = 8 << 20

// AssetStore stores letterhead images (emblem, seal, signature).
type AssetStore interface {
	asset.BlobStore
	asset.Deleter
}

// AssetHandler uploads and removes images.
type AssetHandler struct {
	*BaseHandler
	store AssetStore
}

// NewAssetHandler creates an asset handler.
func NewAssetHandler(base *BaseHandler, store AssetStore) *AssetHandler {
	return &AssetHandler{BaseHandler: base, store: store}
}

// Upload stores the raw request body, or the multipart "file" field, and
// returns its key. Only images the PDF writer can embed are accepted.
// POST /assets
func (h *AssetHandler) Upload(c *gin.Context) {
	data, err := h.readBody(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	img, err := asset.Normalize("upload", data)
	if err != nil {
		h.Error(c, apperror.NewValidation("unsupported image").WithDetail("error", err.Error()))
		return
	}

	ctx := c.Request.Context()
	key, err := h.store.Put(ctx, img.Data, asset.MediaType(img.Type))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	logger.Info(ctx, "asset stored", "key", key, "size", len(img.Data))

	h.Created(c, dto.FromImage(key, img))
}

// Delete removes an image.
// DELETE /assets/:key
func (h *AssetHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	ctx := c.Request.Context()

	if err := h.store.Delete(ctx, key); err != nil {
		h.Error(c, storeError(ctx, key, err))
		return
	}
	logger.Info(ctx, "asset deleted", "key", key)
	h.NoContent(c)
}

func (h *AssetHandler) readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAssetBytes)

	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, apperror.NewValidation("missing file field").WithDetail("error", err.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperror.NewValidation("unreadable upload").WithDetail("error", err.Error())
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.NewValidation("image too large").WithDetail("limit", MaxAssetBytes)
		}
		return nil, apperror.NewValidation("unreadable upload").WithDetail("error", err.Error())
	}
	if len(data) == 0 {
		return nil, apperror.NewValidation("empty upload")
	}
	return data, nil
}

func storeError(ctx context.Context, key string, err error) error {
	if errors.Is(err, asset.ErrNotFound) {
		return apperror.NewNotFound("asset", key)
	}
	logger.Error(ctx, "asset store failure", "key", key, "error", err)
	return apperror.NewInternal(err)
}
