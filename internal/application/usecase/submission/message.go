package submission

import (
	"context"
	"strings"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type CreateMessageUseCase struct {
	api    service.MemoryAPI
	logger logger.Logger
}

func NewCreateMessageUseCase(api service.MemoryAPI, log logger.Logger) *CreateMessageUseCase {
	return &CreateMessageUseCase{api: api, logger: log}
}

type CreateMessageInput struct {
	Capture memory.CaptureContext
	Content string
}

func (uc *CreateMessageUseCase) Execute(ctx context.Context, input CreateMessageInput) (*memory.Message, error) {
	ctx, span := tracer.Start(ctx, "CreateMessage")
	defer span.End()

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.NewInvalidInput("message is empty", nil)
	}
	if !input.Capture.Valid() {
		return nil, apperror.NewInvalidInput("guest and wedding are required", nil)
	}

	msg, err := uc.api.CreateMessage(ctx, input.Capture.WeddingID, input.Capture.GuestID, content)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.logger.Info("Message created", zap.String("message_id", msg.ID), zap.String("guest_id", input.Capture.GuestID))
	return msg, nil
}
