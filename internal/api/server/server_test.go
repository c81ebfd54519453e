package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/api/middleware"
	"github.com/feral-file/ff-ledger/internal/api/server"
	"github.com/feral-file/ff-ledger/internal/api/shared/dto"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestRouter_InvalidPublicKey(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := server.New(server.Config{
		Auth: middleware.AuthConfig{JWTPublicKey: "not a pem"},
	}, mocks.NewMockAPIExecutor(ctrl)).Router()
	assert.Error(t, err)
}

func TestRouter_CORS(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, err := server.New(server.Config{
		AllowedOrigins: []string{"https://app.feralfile.com"},
	}, mocks.NewMockAPIExecutor(ctrl)).Router()
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{
			name:       "allowed origin",
			method:     http.MethodGet,
			origin:     "https://app.feralfile.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.feralfile.com",
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "https://app.feralfile.com",
			wantStatus: http.StatusNoContent,
			wantOrigin: "https://app.feralfile.com",
		},
		{
			name:       "foreign origin",
			method:     http.MethodGet,
			origin:     "https://evil.example",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_RunStopsWithContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := server.New(server.Config{Host: "127.0.0.1", Port: 0}, mocks.NewMockAPIExecutor(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRouter_GraphQL(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockAPIExecutor(ctrl)
	exec.EXPECT().
		GetGlobalStats(gomock.Any()).
		Return(&dto.GlobalStatsResponse{TotalUsers: 4}, nil)

	router, err := server.New(server.Config{}, exec).Router()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ globalStats { totalUsers } }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":{"globalStats":{"totalUsers":"4"}}`)
}
