package memoryapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khoahotran/wedding-memories/internal/domain/memory"
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 and naive timestamps; naive ones are UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

type guestDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WeddingID string `json:"wedding_id"`
	CreatedAt string `json:"created_at"`
}

func (d *guestDTO) toDomain() (*memory.Guest, error) {
	if d.ID == "" {
		return nil, errors.New("guest without id")
	}
	g := &memory.Guest{ID: d.ID, Name: d.Name, WeddingID: d.WeddingID}
	if d.CreatedAt != "" {
		t, err := parseTimestamp(d.CreatedAt)
		if err != nil {
			return nil, err
		}
		g.CreatedAt = t
	}
	return g, nil
}

type recordDTO struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Duration  *string   `json:"duration"`
	GuestID   string    `json:"guest_id"`
	WeddingID string    `json:"wedding_id"`
	CreatedAt string    `json:"created_at"`
	Guest     *guestDTO `json:"guest"`
}

func (d *recordDTO) toDomain(kind memory.Kind) (*memory.Record, error) {
	if d.ID == "" {
		return nil, errors.New("record without id")
	}
	if d.URL == "" {
		return nil, fmt.Errorf("record %s without url", d.ID)
	}
	created, err := parseTimestamp(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", d.ID, err)
	}

	rec := &memory.Record{
		ID:        d.ID,
		Kind:      kind,
		URL:       d.URL,
		GuestID:   d.GuestID,
		WeddingID: d.WeddingID,
		CreatedAt: created,
	}
	if kind == memory.KindAudio && d.Duration != nil {
		rec.Duration = *d.Duration
	}
	if d.Guest != nil {
		if g, err := d.Guest.toDomain(); err == nil {
			rec.Guest = g
		}
	}
	return rec, nil
}

type messageDTO struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	GuestID   string    `json:"guest_id"`
	WeddingID string    `json:"wedding_id"`
	CreatedAt string    `json:"created_at"`
	Guest     *guestDTO `json:"guest"`
}

func (d *messageDTO) toDomain() (*memory.Message, error) {
	if d.ID == "" {
		return nil, errors.New("message without id")
	}
	created, err := parseTimestamp(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", d.ID, err)
	}
	m := &memory.Message{
		ID:        d.ID,
		Content:   d.Content,
		GuestID:   d.GuestID,
		WeddingID: d.WeddingID,
		CreatedAt: created,
	}
	if d.Guest != nil {
		if g, err := d.Guest.toDomain(); err == nil {
			m.Guest = g
		}
	}
	return m, nil
}

type memoriesDTO struct {
	Photos   []recordDTO  `json:"photos"`
	Videos   []recordDTO  `json:"videos"`
	Audios   []recordDTO  `json:"audios"`
	Messages []messageDTO `json:"messages"`
}

type weddingDTO struct {
	ID        string          `json:"id"`
	BrideName string          `json:"bride_name"`
	GroomName string          `json:"groom_name"`
	Date      string          `json:"date"`
	Location  string          `json:"location"`
	PIN       json.RawMessage `json:"pin"`
}

// pin accepts the PIN as a JSON string or number.
func (d *weddingDTO) pin() string {
	if len(d.PIN) == 0 || string(d.PIN) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.PIN, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(d.PIN, &n); err == nil {
		return n.String()
	}
	return ""
}

func (d *weddingDTO) toDomain() (*memory.Wedding, error) {
	if d.ID == "" {
		return nil, errors.New("wedding without id")
	}
	return &memory.Wedding{
		ID:        d.ID,
		BrideName: d.BrideName,
		GroomName: d.GroomName,
		Date:      d.Date,
		Location:  d.Location,
		PIN:       d.pin(),
	}, nil
}

type verifyPINRequest struct {
	WeddingID string `json:"wedding_id"`
	PIN       string `json:"pin"`
}

type verifyPasswordRequest struct {
	WeddingID string `json:"wedding_id"`
	Password  string `json:"password"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type createGuestRequest struct {
	Name      string `json:"name"`
	WeddingID string `json:"wedding_id"`
}

type createMessageRequest struct {
	Content   string `json:"content"`
	GuestID   string `json:"guest_id"`
	WeddingID string `json:"wedding_id"`
}

// errorResponse is the API error body. detail is a string for most errors and
// a list of objects for validation errors.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func (e *errorResponse) message() string {
	if e == nil || len(e.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(e.Detail)
}
