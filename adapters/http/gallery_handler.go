package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/gallery"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type GalleryHandler struct {
	galleryUC *gallery.GalleryUseCase
	logger    logger.Logger
}

func NewGalleryHandler(uc *gallery.GalleryUseCase, log logger.Logger) *GalleryHandler {
	return &GalleryHandler{galleryUC: uc, logger: log}
}

func (h *GalleryHandler) GetGallery(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}

	g, err := h.galleryUC.Load(c.Request.Context(), weddingID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// ExportZip streams the archive of every reachable memory. Items that fail
// are left out and reported in the X-Export-Failed trailer.
func (h *GalleryHandler) ExportZip(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}
	ctx := c.Request.Context()

	g, err := h.galleryUC.Load(ctx, weddingID)
	if err != nil {
		c.Error(err)
		return
	}
	name := h.galleryUC.ArchiveName(ctx, weddingID)

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Trailer", "X-Export-Failed")
	c.Status(http.StatusOK)

	log := h.logger.With(zap.String("wedding_id", weddingID))
	report, err := h.galleryUC.ExportAll(ctx, g, c.Writer, func(p int) {
		log.Debug("Export progress", zap.Int("percent", p))
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.Writer.Header().Set("X-Export-Failed", fmt.Sprint(len(report.Failures)))
}
