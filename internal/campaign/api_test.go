package campaign

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-console/internal/request"
)

func TestUpdateCampaign_Descriptor(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		in      Campaign
		wantURL string
	}{
		{"plain id", "https://api.example.com", Campaign{"_id": "abc123", "name": "Spring"}, "https://api.example.com/campaigns/abc123"},
		{"trailing slash", "https://api.example.com/", Campaign{"_id": "7", "name": ""}, "https://api.example.com/campaigns/7"},
		{"numeric id", "http://localhost:8080/v2", Campaign{"_id": 42, "name": "n", "budget": 10.5}, "http://localhost:8080/v2/campaigns/42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := UpdateCampaign(tt.baseURL, tt.in)
			require.NoError(t, err)

			assert.Equal(t, http.MethodPost, d.Method)
			assert.Equal(t, tt.wantURL, d.URL)
			assert.Equal(t, Timeout, d.Timeout)

			want, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(d.Body))
			assert.NotNil(t, d.Interceptors.Response.Fulfilled)
		})
	}
}

func TestUpdateCampaign_MissingID(t *testing.T) {
	_, err := UpdateCampaign("http://x", Campaign{"name": "no id"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = GetCampaign("http://x", "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestGetCampaign_Descriptor(t *testing.T) {
	d, err := GetCampaign("http://x", "a b")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, d.Method)
	assert.Equal(t, "http://x/campaigns/a%20b", d.URL)
	assert.Nil(t, d.Body)
}

func TestMapData_AddsExactlyOneField(t *testing.T) {
	in := map[string]any{"_id": "1", "name": "Spring", "tags": []any{"a"}}
	out, ok := MapData(in).(map[string]any)
	require.True(t, ok)

	assert.Len(t, out, len(in)+1)
	for k, v := range in {
		assert.Equal(t, v, out[k])
	}
	assert.IsType(t, float64(0), out[MappedField])
	assert.NotContains(t, in, MappedField, "input is not mutated")
}

func TestMapData_NonObjectPassesThrough(t *testing.T) {
	assert.Equal(t, "x", MapData("x"))
	assert.Nil(t, MapData(nil))
	assert.Equal(t, []any{1.0}, MapData([]any{1.0}))
}

func TestInterceptors_MapOnlySuccess(t *testing.T) {
	d, err := GetCampaign("http://x", "1")
	require.NoError(t, err)

	res, err := d.Interceptors.Response.Fulfilled(&request.Response{Data: map[string]any{"_id": "1"}})
	require.NoError(t, err)
	assert.Contains(t, res.Data, MappedField)

	httpErr := &request.HTTPError{StatusCode: 500}
	assert.Same(t, httpErr, d.Interceptors.Response.Rejected(httpErr))
}
