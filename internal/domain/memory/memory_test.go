package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUploadSizeBoundary(t *testing.T) {
	assert.NoError(t, ValidateUpload(KindPhoto, "image/jpeg", MaxUploadBytes))
	assert.Error(t, ValidateUpload(KindPhoto, "image/jpeg", MaxUploadBytes+1))
	assert.Error(t, ValidateUpload(KindPhoto, "image/jpeg", 0))
}

func TestValidateUploadAllowList(t *testing.T) {
	tests := []struct {
		kind Kind
		mime string
		ok   bool
	}{
		{KindPhoto, "image/jpeg", true},
		{KindPhoto, "image/heif", true},
		{KindPhoto, "video/mp4", false},
		{KindVideo, "video/quicktime", true},
		{KindVideo, "image/png", false},
		{KindAudio, "audio/webm", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+tt.mime, func(t *testing.T) {
			err := ValidateUpload(tt.kind, tt.mime, 1024)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestKindHelpers(t *testing.T) {
	assert.Equal(t, "photos", KindPhoto.Collection())
	assert.Equal(t, "fotos", KindPhoto.Folder())
	assert.Equal(t, "audio/webm", KindAudio.RecordingMIME())
	assert.Equal(t, "video.webm", KindVideo.RecordingFilename())
	assert.False(t, KindPhoto.Recorded())

	_, err := ParseKind("gif")
	assert.Error(t, err)
}

func TestDisplayNameAndArchiveName(t *testing.T) {
	var g *Guest
	assert.Equal(t, "Convidado", g.DisplayName())
	assert.Equal(t, "Ana", (&Guest{Name: "Ana"}).DisplayName())

	w := &Wedding{BrideName: "Ana", GroomName: "Rui"}
	assert.Equal(t, "memorias-casamento-Ana-Rui.zip", w.ArchiveName())
}
