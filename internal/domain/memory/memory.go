package memory

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// MaxUploadBytes is the inclusive ceiling for a selected file.
const MaxUploadBytes = 10 * 1024 * 1024

var allowedMIME = map[Kind]map[string]bool{
	KindPhoto: {
		"image/jpeg": true,
		"image/png":  true,
		"image/heic": true,
		"image/heif": true,
	},
	KindVideo: {
		"video/mp4":       true,
		"video/webm":      true,
		"video/quicktime": true,
	},
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPhoto, KindVideo, KindAudio:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown memory kind %q", s)
}

// Recorded reports whether the kind is captured through a recording session.
func (k Kind) Recorded() bool {
	return k == KindVideo || k == KindAudio
}

// Collection is the remote API path segment for the kind.
func (k Kind) Collection() string {
	return string(k) + "s"
}

// Folder is the archive folder for the kind.
func (k Kind) Folder() string {
	switch k {
	case KindPhoto:
		return "fotos"
	case KindVideo:
		return "videos"
	default:
		return "audios"
	}
}

// RecordingMIME is the container type a recording session tags its payload with.
func (k Kind) RecordingMIME() string {
	if k == KindAudio {
		return "audio/webm"
	}
	return "video/webm"
}

func (k Kind) RecordingFilename() string {
	if k == KindAudio {
		return "audio.webm"
	}
	return "video.webm"
}

func AllowedMIME(kind Kind, mime string) bool {
	return allowedMIME[kind][mime]
}

// ValidateUpload checks a user-selected file against the size ceiling and the
// per-kind allow-list. Audio has no file selection path.
func ValidateUpload(kind Kind, mime string, size int) error {
	if _, ok := allowedMIME[kind]; !ok {
		return fmt.Errorf("file selection is not available for %s", kind)
	}
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxUploadBytes {
		return fmt.Errorf("file is %d bytes, the limit is %d bytes", size, MaxUploadBytes)
	}
	if !AllowedMIME(kind, mime) {
		return fmt.Errorf("type %q is not accepted for %s", mime, kind)
	}
	return nil
}

type CaptureContext struct {
	GuestID   string
	WeddingID string
}

func (c CaptureContext) Valid() bool {
	return c.GuestID != "" && c.WeddingID != ""
}

// MediaAsset is a captured unit waiting to be submitted or discarded.
type MediaAsset struct {
	Kind     Kind
	Payload  []byte
	MimeType string
	Filename string
	Duration time.Duration
	Preview  string
}

func (a *MediaAsset) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Payload)
}

type Guest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	WeddingID string    `json:"wedding_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName falls back to the generic label used for anonymous guests.
// DefaultGuestName stands in for a guest without a name.
const DefaultGuestName = "Convidado"

func (g *Guest) DisplayName() string {
	if g == nil || g.Name == "" {
		return DefaultGuestName
	}
	return g.Name
}

type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	URL       string    `json:"url"`
	Duration  string    `json:"duration,omitempty"`
	GuestID   string    `json:"guest_id"`
	WeddingID string    `json:"wedding_id"`
	Guest     *Guest    `json:"guest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	GuestID   string    `json:"guest_id"`
	WeddingID string    `json:"wedding_id"`
	Guest     *Guest    `json:"guest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Wedding struct {
	ID        string `json:"id"`
	BrideName string `json:"bride_name"`
	GroomName string `json:"groom_name"`
	Date      string `json:"date"`
	Location  string `json:"location"`
	PIN       string `json:"pin,omitempty"`
}

// ArchiveName is the download name for a wedding's export.
func (w *Wedding) ArchiveName() string {
	if w == nil {
		return "memorias-casamento.zip"
	}
	return fmt.Sprintf("memorias-casamento-%s-%s.zip", w.BrideName, w.GroomName)
}

type Memories struct {
	Photos   []*Record  `json:"photos"`
	Videos   []*Record  `json:"videos"`
	Audios   []*Record  `json:"audios"`
	Messages []*Message `json:"messages"`
}

// Assets returns the media records in photo, video, audio order.
func (m *Memories) Assets() []*Record {
	out := make([]*Record, 0, len(m.Photos)+len(m.Videos)+len(m.Audios))
	out = append(out, m.Photos...)
	out = append(out, m.Videos...)
	out = append(out, m.Audios...)
	return out
}
