package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/share"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
)

type ShareHandler struct {
	shareUC *share.ShareUseCase
}

func NewShareHandler(uc *share.ShareUseCase) *ShareHandler {
	return &ShareHandler{shareUC: uc}
}

func (h *ShareHandler) GetLink(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}
	link, err := h.shareUC.Link(c.Request.Context(), weddingID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ShareResponse{Link: link})
}

func (h *ShareHandler) GetQRCode(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}
	png, err := h.shareUC.QRCode(c.Request.Context(), weddingID)
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
