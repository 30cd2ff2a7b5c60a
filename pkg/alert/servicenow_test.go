package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnarrative/flashnarrative/pkg/config"
)

func TestServiceNowCreate(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/now/table/incident", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "svc-user", user)
		assert.Equal(t, "svc-pass", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newServiceNowClient(config.ServiceNowConfig{
		Instance: "dev0001", User: "svc-user", Password: "svc-pass",
	})
	c.baseURL = srv.URL

	err := c.Create(context.Background(), "Negative spike", "details here")
	require.NoError(t, err)
	assert.Equal(t, "Negative spike", payload["short_description"])
	assert.Equal(t, "2", payload["urgency"])
	assert.Equal(t, "2", payload["impact"])
}

func TestServiceNowCreateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newServiceNowClient(config.ServiceNowConfig{Instance: "dev0001", User: "svc-user"})
	c.baseURL = srv.URL
	assert.Error(t, c.Create(context.Background(), "a", "b"))
}

func TestServiceNowNotConfigured(t *testing.T) {
	c := newServiceNowClient(config.ServiceNowConfig{})
	assert.Error(t, c.Create(context.Background(), "a", "b"))
}
