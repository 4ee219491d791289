package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getStatus(t *testing.T, handler http.Handler, path string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code
}

func TestReadyzReflectsServiceReadiness(t *testing.T) {
	svc := NewRegistryService(RegistryConfig{Depth: 16}, nil)
	srv := NewServer(&ServerConfig{ListenAddr: ":0"}, svc)
	handler := srv.srv.Handler

	// alive but not ready until the registry is initialized
	assert.Equal(t, http.StatusOK, getStatus(t, handler, "/livez"))
	assert.Equal(t, http.StatusServiceUnavailable, getStatus(t, handler, "/readyz"))

	require.NoError(t, svc.Init())
	assert.Equal(t, http.StatusOK, getStatus(t, handler, "/readyz"))
}

func TestReadyzDraining(t *testing.T) {
	svc := NewRegistryService(RegistryConfig{Depth: 16}, nil)
	require.NoError(t, svc.Init())
	srv := NewServer(&ServerConfig{ListenAddr: ":0"}, svc)
	handler := srv.srv.Handler

	assert.Equal(t, http.StatusOK, getStatus(t, handler, "/readyz"))

	assert.Equal(t, http.StatusOK, getStatus(t, handler, "/drain"))
	assert.Equal(t, http.StatusServiceUnavailable, getStatus(t, handler, "/readyz"))

	assert.Equal(t, http.StatusOK, getStatus(t, handler, "/undrain"))
	assert.Equal(t, http.StatusOK, getStatus(t, handler, "/readyz"))
}
