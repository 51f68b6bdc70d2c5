package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]int{"total": 3})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body struct {
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Data["total"] != 3 {
		t.Errorf("unexpected data %v", body.Data)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, errors.New("nope")) }, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad gateway", func(w http.ResponseWriter) { BadGateway(w, "FETCH_FAILED", errors.New("nope")) }, http.StatusBadGateway, "FETCH_FAILED"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, errors.New("nope")) }, http.StatusInternalServerError, ""},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, errors.New("nope")) }, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, body.Code)
			}
			if body.Message != "nope" || body.Status != tt.wantStatus || body.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}
