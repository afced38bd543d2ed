package share

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/auth"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type ShareUseCase struct {
	api     service.MemoryAPI
	baseURL string
}

func NewShareUseCase(api service.MemoryAPI, baseURL string) *ShareUseCase {
	return &ShareUseCase{api: api, baseURL: strings.TrimRight(baseURL, "/")}
}

// Link returns the guest access URL of the wedding, PIN included.
func (uc *ShareUseCase) Link(ctx context.Context, weddingID string) (string, error) {
	if uc.baseURL == "" {
		return "", apperror.NewInternal("share base url is not configured", nil)
	}
	w, err := uc.api.GetWedding(ctx, weddingID)
	if err != nil {
		return "", err
	}
	pin := w.PIN
	if pin == "" {
		pin = "0"
	}
	pin, err = auth.NormalizePIN(pin)
	if err != nil {
		return "", apperror.NewInternal("wedding has an invalid PIN", err)
	}

	return fmt.Sprintf("%s/?wedding=%s&pin=%s", uc.baseURL, url.QueryEscape(weddingID), pin), nil
}

// QRCode renders the guest access URL as a PNG.
func (uc *ShareUseCase) QRCode(ctx context.Context, weddingID string) ([]byte, error) {
	link, err := uc.Link(ctx, weddingID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Highest, qrSize)
	if err != nil {
		return nil, apperror.NewInternal("failed to render QR code", err)
	}
	return png, nil
}
