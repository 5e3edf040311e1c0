package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/backroomlabs/backroom-engine/internal/services"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		setupCache     func() services.Cache
		expectedStatus int
		expectedHealth string
		expectedCache  string
	}{
		{
			name: "healthy",
			setupCache: func() services.Cache {
				return services.NewMockCache()
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedCache:  "healthy",
		},
		{
			name: "unhealthy cache",
			setupCache: func() services.Cache {
				mockCache := services.NewMockCache()
				mockCache.SetError(errors.New("connection failed"))
				return mockCache
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedCache:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupCache(), 2*time.Second, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.expectedHealth {
				t.Errorf("health = %q, want %q", resp.Status, tt.expectedHealth)
			}
			if resp.Components["cache"] != tt.expectedCache {
				t.Errorf("cache component = %v, want %q", resp.Components["cache"], tt.expectedCache)
			}
			if resp.Service != "backroom-engine" {
				t.Errorf("service = %q", resp.Service)
			}
		})
	}
}
