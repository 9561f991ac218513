package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_AlwaysOK(t *testing.T) {
	h := New("feed", "registry")

	rec := httptest.NewRecorder()
	h.Health()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Uptime)
}

func TestReady_NotReadyUntilAllComponentsUp(t *testing.T) {
	h := New("feed", "registry", "quotes")

	rec := httptest.NewRecorder()
	h.Ready()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, []string{"feed", "quotes", "registry"}, resp.NotReady)

	h.SetReady("feed", true)
	h.SetReady("registry", true)

	rec = httptest.NewRecorder()
	h.Ready()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"quotes"}, resp.NotReady)

	h.SetReady("quotes", true)

	rec = httptest.NewRecorder()
	h.Ready()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.IsReady())
}

func TestReady_ComponentCanGoUnready(t *testing.T) {
	h := New("feed")
	h.SetReady("feed", true)
	require.True(t, h.IsReady())

	h.SetReady("feed", false)
	assert.False(t, h.IsReady())
}

func TestSetReady_RegistersUnknownComponent(t *testing.T) {
	h := New()
	assert.True(t, h.IsReady())

	h.SetReady("late-component", false)
	assert.False(t, h.IsReady())
}
