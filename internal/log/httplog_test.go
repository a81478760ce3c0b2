package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()

	var seenID string
	handler := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	t.Run("assigns a request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/years", nil))

		if seenID == "" {
			t.Fatal("handler saw no request ID")
		}
		if got := w.Header().Get(RequestIDHeader); got != seenID {
			t.Errorf("response header %q, expected %q", got, seenID)
		}
		if w.Code != http.StatusTeapot {
			t.Errorf("status %d, expected %d", w.Code, http.StatusTeapot)
		}
	})

	t.Run("keeps a caller-supplied request ID", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(RequestIDHeader, "abc-123")
		handler.ServeHTTP(httptest.NewRecorder(), r)
		if seenID != "abc-123" {
			t.Errorf("request ID %q, expected abc-123", seenID)
		}
	})

	t.Run("logs status and size", func(t *testing.T) {
		entries := logs.FilterMessage("http request").All()
		if len(entries) != 2 {
			t.Fatalf("expected 2 log entries, got %d", len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["status"] != int64(http.StatusTeapot) {
			t.Errorf("status field = %v", fields["status"])
		}
		if fields["size"] != int64(len("short and stout")) {
			t.Errorf("size field = %v", fields["size"])
		}
		if fields["path"] != "/api/years" {
			t.Errorf("path field = %v", fields["path"])
		}
	})
}

func TestGetSugaredLoggerFallback(t *testing.T) {
	SetLogger(zap.NewNop())
	if GetSugaredLogger() == nil {
		t.Fatal("expected a logger")
	}
	Infof("logging through the package facade: %d", 1)
}

func TestNamed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	Named("restserver").Info("listening")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "restserver" {
		t.Errorf("logger name %q, expected restserver", entries[0].LoggerName)
	}
}
