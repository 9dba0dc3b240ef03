package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/config"
)

func TestSyncProfilePostsToBackend(t *testing.T) {
	var got struct {
		method string
		path   string
		auth   string
		body   map[string]string
	}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":1}}`))
	}))
	defer backend.Close()

	i := &Identity{
		cfg:    config.GatewayConfig{BackendURL: backend.URL + "/"},
		client: backend.Client(),
		log:    testLogger(),
	}
	err := i.syncProfile(context.Background(), "tok-abc", "Member One", "m1@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/v1/users/sync", got.path)
	assert.Equal(t, "Bearer tok-abc", got.auth)
	assert.Equal(t, map[string]string{"name": "Member One", "email": "m1@example.com"}, got.body)
}

func TestSyncProfileBackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer backend.Close()

	i := &Identity{
		cfg:    config.GatewayConfig{BackendURL: backend.URL},
		client: backend.Client(),
		log:    testLogger(),
	}
	err := i.syncProfile(context.Background(), "tok-abc", "Member One", "m1@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
