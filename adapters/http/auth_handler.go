package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/auth"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
)

type AuthHandler struct {
	guestAccessUC *auth.GuestAccessUseCase
	hostAccessUC  *auth.HostAccessUseCase
	logger        logger.Logger
}

func NewAuthHandler(guestUC *auth.GuestAccessUseCase, hostUC *auth.HostAccessUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		guestAccessUC: guestUC,
		hostAccessUC:  hostUC,
		logger:        log,
	}
}

func (h *AuthHandler) GuestSession(c *gin.Context) {
	var req GuestSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("wedding_id and pin are required", err))
		return
	}

	output, err := h.guestAccessUC.Execute(c.Request.Context(), auth.GuestAccessInput{
		WeddingID: req.WeddingID,
		PIN:       req.PIN,
		GuestName: req.GuestName,
		GuestID:   req.GuestID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, GuestSessionResponse{
		AccessToken: output.AccessToken,
		Guest:       output.Guest,
		Wedding:     ToWeddingDTO(output.Wedding),
	})
}

func (h *AuthHandler) ListGuests(c *gin.Context) {
	guests, err := h.guestAccessUC.ListGuests(c.Request.Context(), c.Param("id"), c.Query("pin"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests})
}

func (h *AuthHandler) HostSession(c *gin.Context) {
	var req HostSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("wedding_id and password are required", err))
		return
	}

	output, err := h.hostAccessUC.Execute(c.Request.Context(), auth.HostAccessInput{
		WeddingID: req.WeddingID,
		Password:  req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": output.AccessToken,
	})
}
