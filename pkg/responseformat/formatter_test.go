package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Years []int `json:"years"`
}

func TestWantsMsgPack(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		want   bool
	}{
		{"default", "/api/years", "", false},
		{"query parameter", "/api/years?format=msgpack", "", true},
		{"other format", "/api/years?format=xml", "", false},
		{"accept header", "/api/years", "application/x-msgpack", true},
		{"accept list", "/api/years", "text/html, application/msgpack;q=0.9", true},
		{"accept json", "/api/years", "application/json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if got := WantsMsgPack(req); got != tt.want {
				t.Errorf("WantsMsgPack() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()
	data := payload{Years: []int{2000, 2001}}

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/years", nil)
		if err := f.WriteResponse(rec, req, data, map[string]string{"Cache-Control": "no-cache"}); err != nil {
			t.Fatalf("WriteResponse failed: %v", err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
			t.Errorf("content type %q", ct)
		}
		if rec.Header().Get("Cache-Control") != "no-cache" {
			t.Error("extra header was not set")
		}

		var got payload
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if len(got.Years) != 2 || got.Years[1] != 2001 {
			t.Errorf("unexpected body %+v", got)
		}
	})

	t.Run("msgpack", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/years?format=msgpack", nil)
		if err := f.WriteResponse(rec, req, data, nil); err != nil {
			t.Fatalf("WriteResponse failed: %v", err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != ContentTypeMsgPack {
			t.Errorf("content type %q", ct)
		}

		var got map[string]any
		if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if _, ok := got["years"]; !ok {
			t.Errorf("msgpack body should use json field names, got %v", got)
		}
	})
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/scene/map?year=abc", nil)

	if err := f.WriteError(rec, req, http.StatusBadRequest, "invalid year"); err != nil {
		t.Fatalf("WriteError failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error != "invalid year" {
		t.Errorf("error message %q", body.Error)
	}
}
