package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-console/internal/auth"
	"campaign-console/internal/campaign"
	"campaign-console/internal/storage"
)

const (
	testSecret     = "sandbox-secret"
	testQueryToken = "qt"
)

func newTestRouter(t *testing.T, seed ...campaign.Campaign) (http.Handler, *storage.Cache) {
	t.Helper()
	cache := storage.NewCache()
	cache.UpdateCampaigns(seed)
	return Router(NewCampaignHandler(cache), RequireAuth(testQueryToken, testSecret)), cache
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, "admin", time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestCampaignAPI_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		authHeader bool
		wantStatus int
		wantName   string
	}{
		{"missing query token", http.MethodGet, "/campaigns/c1", "", true, http.StatusUnauthorized, ""},
		{"wrong query token", http.MethodGet, "/campaigns/c1?token=nope", "", true, http.StatusUnauthorized, ""},
		{"missing bearer", http.MethodGet, "/campaigns/c1?token=qt", "", false, http.StatusUnauthorized, ""},
		{"get existing", http.MethodGet, "/campaigns/c1?token=qt", "", true, http.StatusOK, "Spring"},
		{"get unknown", http.MethodGet, "/campaigns/zz?token=qt", "", true, http.StatusNotFound, ""},
		{"update", http.MethodPost, "/campaigns/c1?token=qt", `{"_id":"c1","name":"Summer"}`, true, http.StatusOK, "Summer"},
		{"update creates", http.MethodPost, "/campaigns/c9?token=qt", `{"name":"New"}`, true, http.StatusOK, "New"},
		{"bad body", http.MethodPost, "/campaigns/c1?token=qt", `[1,2]`, true, http.StatusBadRequest, ""},
		{"null body", http.MethodPost, "/campaigns/c1?token=qt", `null`, true, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, campaign.New("c1", "Spring"))

			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			if tt.authHeader {
				req.Header.Set("Authorization", bearer(t))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantName != "" {
				var c campaign.Campaign
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
				assert.Equal(t, tt.wantName, c.Name())
			}
		})
	}
}

func TestCampaignAPI_PathIDWins(t *testing.T) {
	h, cache := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/campaigns/real?token=qt", strings.NewReader(`{"_id":"spoofed","name":"x","extra":true}`))
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := cache.GetCampaign(req.Context(), "real")
	require.NoError(t, err)
	assert.Equal(t, "real", stored.ID())
	assert.Equal(t, true, stored["extra"])

	_, err = cache.GetCampaign(req.Context(), "spoofed")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCampaignAPI_ExpiredBearer(t *testing.T) {
	h, _ := newTestRouter(t, campaign.New("c1", "Spring"))
	tok, err := auth.IssueToken(testSecret, "admin", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/c1?token=qt", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
