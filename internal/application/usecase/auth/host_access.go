package auth

import (
	"context"
	"strings"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/auth"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type HostAccessUseCase struct {
	api    service.MemoryAPI
	jwtSvc *auth.JWTService
	logger logger.Logger
}

func NewHostAccessUseCase(api service.MemoryAPI, jwtSvc *auth.JWTService, log logger.Logger) *HostAccessUseCase {
	return &HostAccessUseCase{api: api, jwtSvc: jwtSvc, logger: log}
}

type HostAccessInput struct {
	WeddingID string
	Password  string
}

type HostAccessOutput struct {
	AccessToken string
}

func (uc *HostAccessUseCase) Execute(ctx context.Context, input HostAccessInput) (*HostAccessOutput, error) {
	ctx, span := tracer.Start(ctx, "HostAccess")
	defer span.End()

	password := strings.TrimSpace(input.Password)
	if input.WeddingID == "" || password == "" {
		return nil, apperror.NewInvalidInput("wedding id and password are required", nil)
	}

	ok, err := uc.api.VerifyPassword(ctx, input.WeddingID, password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !ok {
		err := apperror.NewUnauthorized("incorrect password", nil)
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateHostToken(input.WeddingID)
	if err != nil {
		uc.logger.Error("Failed to generate host token", err, zap.String("wedding_id", input.WeddingID))
		err = apperror.NewInternal("failed to generate token", err)
		span.RecordError(err)
		return nil, err
	}
	return &HostAccessOutput{AccessToken: token}, nil
}
