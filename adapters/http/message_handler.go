package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/submission"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
)

type MessageHandler struct {
	createMessageUC *submission.CreateMessageUseCase
}

func NewMessageHandler(uc *submission.CreateMessageUseCase) *MessageHandler {
	return &MessageHandler{createMessageUC: uc}
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	cc, ok := GetCaptureContextFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("guest session not found in context"))
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("'content' is required", err))
		return
	}

	msg, err := h.createMessageUC.Execute(c.Request.Context(), submission.CreateMessageInput{
		Capture: cc,
		Content: req.Content,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
