package auth

import (
	"context"
	"strings"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/auth"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const pinLength = 6

var tracer = otel.Tracer("auth_usecase")

// NormalizePIN trims the PIN and left-pads it with zeros to six digits.
func NormalizePIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" || len(pin) > pinLength {
		return "", apperror.NewInvalidInput("PIN must have up to 6 digits", nil)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return "", apperror.NewInvalidInput("PIN must contain only digits", nil)
		}
	}
	return strings.Repeat("0", pinLength-len(pin)) + pin, nil
}

type GuestAccessUseCase struct {
	api    service.MemoryAPI
	jwtSvc *auth.JWTService
	logger logger.Logger
}

func NewGuestAccessUseCase(api service.MemoryAPI, jwtSvc *auth.JWTService, log logger.Logger) *GuestAccessUseCase {
	return &GuestAccessUseCase{api: api, jwtSvc: jwtSvc, logger: log}
}

// GuestAccessInput either names a new guest or selects an existing one.
type GuestAccessInput struct {
	WeddingID string
	PIN       string
	GuestName string
	GuestID   string
}

type GuestAccessOutput struct {
	AccessToken string
	Guest       *memory.Guest
	Wedding     *memory.Wedding
}

func (uc *GuestAccessUseCase) Execute(ctx context.Context, input GuestAccessInput) (*GuestAccessOutput, error) {
	ctx, span := tracer.Start(ctx, "GuestAccess")
	defer span.End()

	if err := uc.verifyPIN(ctx, input.WeddingID, input.PIN); err != nil {
		span.RecordError(err)
		return nil, err
	}

	wedding, err := uc.api.GetWedding(ctx, input.WeddingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var guest *memory.Guest
	if input.GuestID != "" {
		guest, err = uc.findGuest(ctx, input.WeddingID, input.GuestID)
	} else {
		name := strings.TrimSpace(input.GuestName)
		if name == "" {
			return nil, apperror.NewInvalidInput("guest name is required", nil)
		}
		guest, err = uc.api.CreateGuest(ctx, input.WeddingID, name)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateGuestToken(input.WeddingID, guest.ID)
	if err != nil {
		uc.logger.Error("Failed to generate guest token", err, zap.String("guest_id", guest.ID))
		err = apperror.NewInternal("failed to generate token", err)
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("wedding_id", input.WeddingID), attribute.String("guest_id", guest.ID))
	return &GuestAccessOutput{AccessToken: token, Guest: guest, Wedding: wedding}, nil
}

// ListGuests returns the wedding's guests once the PIN checks out.
func (uc *GuestAccessUseCase) ListGuests(ctx context.Context, weddingID, pin string) ([]*memory.Guest, error) {
	if err := uc.verifyPIN(ctx, weddingID, pin); err != nil {
		return nil, err
	}
	return uc.api.ListGuests(ctx, weddingID)
}

func (uc *GuestAccessUseCase) verifyPIN(ctx context.Context, weddingID, pin string) error {
	if weddingID == "" {
		return apperror.NewInvalidInput("wedding id is required", nil)
	}
	normalized, err := NormalizePIN(pin)
	if err != nil {
		return err
	}
	ok, err := uc.api.VerifyPIN(ctx, weddingID, normalized)
	if err != nil {
		return err
	}
	if !ok {
		uc.logger.Info("Rejected guest PIN", zap.String("wedding_id", weddingID))
		return apperror.NewUnauthorized("incorrect PIN", nil)
	}
	return nil
}

func (uc *GuestAccessUseCase) findGuest(ctx context.Context, weddingID, guestID string) (*memory.Guest, error) {
	guests, err := uc.api.ListGuests(ctx, weddingID)
	if err != nil {
		return nil, err
	}
	for _, g := range guests {
		if g.ID == guestID {
			return g, nil
		}
	}
	return nil, apperror.NewNotFound("guest", guestID)
}
