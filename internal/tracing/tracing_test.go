package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chrissnell/anomalymap/pkg/config"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingData{Enabled: false})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	called := false
	h := Middleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Error("wrapped handler was not called")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status %d, expected %d", rec.Code, http.StatusTeapot)
	}
}
