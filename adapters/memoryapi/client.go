package memoryapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/config"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// Client talks to the remote wedding memories REST API.
type Client struct {
	http   *resty.Client
	logger logger.Logger
}

func NewClient(cfg config.Config, log logger.Logger) *Client {
	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.API.BaseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(timeout),
		logger: log.With(zap.String("component", "memory_api")),
	}
}

var _ service.MemoryAPI = (*Client)(nil)

// UploadMemory posts one multipart upload. It is never retried.
func (c *Client) UploadMemory(ctx context.Context, req service.UploadRequest) (*memory.Record, error) {
	form := map[string]string{
		"guest_id":   req.GuestID,
		"wedding_id": req.WeddingID,
	}
	if req.Kind == memory.KindAudio {
		form["duration"] = req.Duration
	}

	var out recordDTO
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", req.Filename, req.MimeType, req.File).
		SetFormData(form).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/memories/%s/", req.Kind.Collection()))
	if err != nil {
		return nil, apperror.NewUploadError(0, "Network error", err)
	}
	if resp.IsError() {
		detail := apiErr.message()
		if detail == "" {
			detail = fmt.Sprintf("Failed to upload %s", req.Kind)
		}
		return nil, apperror.NewUploadError(resp.StatusCode(), detail, nil)
	}

	rec, err := out.toDomain(req.Kind)
	if err != nil {
		return nil, apperror.NewUploadError(resp.StatusCode(), "Invalid response from memory API", err)
	}
	return rec, nil
}

func (c *Client) CreateMessage(ctx context.Context, weddingID, guestID, content string) (*memory.Message, error) {
	var out messageDTO
	if err := c.doJSON(ctx, http.MethodPost, "/memories/messages/", createMessageRequest{
		Content:   content,
		GuestID:   guestID,
		WeddingID: weddingID,
	}, &out); err != nil {
		return nil, err
	}
	msg, err := out.toDomain()
	if err != nil {
		return nil, apperror.NewUpstream(http.StatusOK, "Invalid response from memory API", err)
	}
	return msg, nil
}

// GetMemories fetches the wedding's memories. Records that fail validation
// are dropped and logged.
func (c *Client) GetMemories(ctx context.Context, weddingID string) (*memory.Memories, error) {
	var out memoriesDTO
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/weddings/%s/memories/", url.PathEscape(weddingID)), nil, &out); err != nil {
		return nil, err
	}

	m := &memory.Memories{
		Photos:   c.records(memory.KindPhoto, out.Photos),
		Videos:   c.records(memory.KindVideo, out.Videos),
		Audios:   c.records(memory.KindAudio, out.Audios),
		Messages: make([]*memory.Message, 0, len(out.Messages)),
	}
	for i := range out.Messages {
		msg, err := out.Messages[i].toDomain()
		if err != nil {
			c.logger.Warn("Dropping invalid message from memory API", zap.Error(err))
			continue
		}
		m.Messages = append(m.Messages, msg)
	}
	return m, nil
}

func (c *Client) records(kind memory.Kind, in []recordDTO) []*memory.Record {
	out := make([]*memory.Record, 0, len(in))
	for i := range in {
		rec, err := in[i].toDomain(kind)
		if err != nil {
			c.logger.Warn("Dropping invalid record from memory API", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (c *Client) GetWedding(ctx context.Context, weddingID string) (*memory.Wedding, error) {
	var out weddingDTO
	if err := c.doJSON(ctx, http.MethodGet, "/weddings/"+url.PathEscape(weddingID), nil, &out); err != nil {
		return nil, err
	}
	w, err := out.toDomain()
	if err != nil {
		return nil, apperror.NewUpstream(http.StatusOK, "Invalid response from memory API", err)
	}
	return w, nil
}

func (c *Client) VerifyPIN(ctx context.Context, weddingID, pin string) (bool, error) {
	var out verifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/weddings/verify-pin/", verifyPINRequest{WeddingID: weddingID, PIN: pin}, &out)
	return out.Valid, err
}

func (c *Client) VerifyPassword(ctx context.Context, weddingID, password string) (bool, error) {
	var out verifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/weddings/verify-password/", verifyPasswordRequest{WeddingID: weddingID, Password: password}, &out)
	return out.Valid, err
}

func (c *Client) CreateGuest(ctx context.Context, weddingID, name string) (*memory.Guest, error) {
	var out guestDTO
	if err := c.doJSON(ctx, http.MethodPost, "/guests/", createGuestRequest{Name: name, WeddingID: weddingID}, &out); err != nil {
		return nil, err
	}
	g, err := out.toDomain()
	if err != nil {
		return nil, apperror.NewUpstream(http.StatusOK, "Invalid response from memory API", err)
	}
	return g, nil
}

func (c *Client) ListGuests(ctx context.Context, weddingID string) ([]*memory.Guest, error) {
	var out []guestDTO
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/weddings/%s/guests/", url.PathEscape(weddingID)), nil, &out); err != nil {
		return nil, err
	}
	guests := make([]*memory.Guest, 0, len(out))
	for i := range out {
		g, err := out[i].toDomain()
		if err != nil {
			c.logger.Warn("Dropping invalid guest from memory API", zap.Error(err))
			continue
		}
		guests = append(guests, g)
	}
	return guests, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var apiErr errorResponse
	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apperror.NewUpstream(0, "Request to memory API timed out", err)
		}
		return apperror.NewUpstream(0, "Network error", err)
	}
	if resp.IsError() {
		detail := apiErr.message()
		c.logger.Debug("Memory API returned an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("detail", detail),
		)
		switch resp.StatusCode() {
		case http.StatusNotFound:
			return apperror.NewNotFound("resource", path)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperror.NewUnauthorized(detail, nil)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return apperror.NewInvalidInput(detail, nil)
		}
		return apperror.NewUpstream(resp.StatusCode(), detail, nil)
	}
	return nil
}
