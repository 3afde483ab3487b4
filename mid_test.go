package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// ============================================================================
// MIDDLEWARE AND ROUTING TEST SUITE
// ============================================================================

func TestMiddlewareAndRoutingSuite(t *testing.T) {
	t.Run("CORS", testCORS)
	t.Run("SwipeRouting", testSwipeRouting)
}

func testCORS(t *testing.T) {
	t.Run("CORS Headers Applied", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodGet, "/anything", nil)
		req.Header.Set("Origin", "http://127.0.0.1:5173")
		w := httptest.NewRecorder()

		withCORS(handler).ServeHTTP(w, req)

		resp := w.Result()
		if resp.Header.Get("Access-Control-Allow-Origin") != "http://127.0.0.1:5173" {
			t.Errorf("missing or wrong CORS origin header: %v",
				resp.Header.Get("Access-Control-Allow-Origin"))
		}
		if !called {
			t.Error("expected wrapped handler to be called")
		}
		if resp.StatusCode != http.StatusTeapot {
			t.Errorf("expected status %d, got %d", http.StatusTeapot, resp.StatusCode)
		}
	})

	t.Run("Unknown Origin Falls Back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/anything", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()

		withCORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(w, req)

		if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3001" {
			t.Errorf("expected fallback origin, got %q", got)
		}
	})

	t.Run("OPTIONS Preflight Short-Circuits", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		req := httptest.NewRequest(http.MethodOptions, "/like/someone", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		withCORS(handler).ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", w.Result().StatusCode)
		}
		if called {
			t.Error("preflight must not reach the wrapped handler")
		}
		if w.Result().Header.Get("Access-Control-Allow-Methods") == "" {
			t.Error("preflight response missing allowed methods")
		}
	})
}

func testSwipeRouting(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		action string
		wantID string
		wantOK bool
	}{
		{"simple id", "/like/user-42", "like", "user-42", true},
		{"pass id", "/pass/user-42", "pass", "user-42", true},
		{"wrong action", "/like/user-42", "pass", "", false},
		{"missing id", "/like/", "like", "", false},
		{"extra segment", "/like/user-42/extra", "like", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			w := httptest.NewRecorder()

			id, ok := swipeTarget(w, req, tt.action)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if id != tt.wantID {
				t.Errorf("expected id %q, got %q", tt.wantID, id)
			}
		})
	}
}
