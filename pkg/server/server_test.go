package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
)

func testRouter() http.Handler {
	return ConfigureRouter(Config{
		Dependencies: Dependencies{
			Uncertainty: oursin.DefaultConfig(),
			Logger:      zerolog.Nop(),
		},
	})
}

func TestConfigureRouter(t *testing.T) {
	router := testRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{
			name:   "analyze route rejects a bad payload instead of 404ing",
			method: http.MethodPost,
			path:   "/api/v1/measurements/analyze",
			body:   "{not json",
			want:   http.StatusBadRequest,
		},
		{
			name:   "analyze route only accepts POST",
			method: http.MethodGet,
			path:   "/api/v1/measurements/analyze",
			want:   http.StatusMethodNotAllowed,
		},
		{
			name:   "unknown routes 404",
			method: http.MethodPost,
			path:   "/api/v1/unknown",
			want:   http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
