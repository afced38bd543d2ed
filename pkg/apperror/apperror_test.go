package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"device", NewDeviceUnavailable("device busy", nil), http.StatusServiceUnavailable},
		{"validation", NewInvalidInput("file too large", nil), http.StatusBadRequest},
		{"upload", NewUploadError(500, "storage down", nil), http.StatusBadGateway},
		{"unreachable", NewUnreachable("https://cdn/x", nil), http.StatusBadGateway},
		{"upstream", NewUpstream(503, "", nil), http.StatusBadGateway},
		{"export item", NewExportItem("https://cdn/x", nil), http.StatusInternalServerError},
		{"not found", NewNotFound("export job", "1"), http.StatusNotFound},
		{"busy", NewBusy("submitting"), http.StatusConflict},
		{"transition", NewInvalidTransition("idle", "snapshot"), http.StatusConflict},
		{"unauthorized", NewUnauthorized("incorrect PIN", nil), http.StatusUnauthorized},
		{"permission", NewPermissionDenied("no guest"), http.StatusForbidden},
		{"internal", NewInternal("boom", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("load: %w", NewNotFound("guest", "g1")), http.StatusNotFound},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestUploadErrorKeepsRemoteDetail(t *testing.T) {
	cause := errors.New("status 413")
	err := NewUploadError(413, "Arquivo muito grande", cause)

	assert.ErrorIs(t, err, ErrUpload)
	assert.Equal(t, "Arquivo muito grande", err.Message)
	assert.Equal(t, "remote status 413", err.Details)
	assert.Same(t, cause, err.Cause())

	assert.Equal(t, "upload request failed", NewUploadError(500, "", nil).Message)
}

func TestToJSONHidesInternalDetails(t *testing.T) {
	j := NewInvalidTransition("idle", "take a snapshot").ToJSON()
	assert.Equal(t, "conflict", j["error"])
	assert.Equal(t, "cannot take a snapshot while idle", j["details"])

	j = NewInternal("pgx: connection refused", nil).ToJSON()
	assert.NotContains(t, j, "details")
}
