package form

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-console/internal/campaign"
	"campaign-console/internal/request"
)

type stubRequester struct {
	got   []request.Descriptor
	reply func(request.Descriptor) (request.State, error)
	state request.State
}

func (s *stubRequester) Request(_ context.Context, d request.Descriptor) (request.State, error) {
	s.got = append(s.got, d)
	st, err := s.reply(d)
	s.state = st
	return st, err
}

func (s *stubRequester) State() request.State { return s.state }

func echo(d request.Descriptor) (request.State, error) {
	var body map[string]any
	if err := json.Unmarshal(d.Body, &body); err != nil {
		return request.State{}, err
	}
	return request.State{Status: request.StatusFinished, Data: campaign.MapData(body)}, nil
}

func TestForm_SubmitSendsCurrentState(t *testing.T) {
	req := &stubRequester{reply: echo}
	f := New("http://api", req, campaign.Campaign{"_id": "c1", "name": "old", "budget": 5.0})

	f.SetName("new")
	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, request.StatusFinished, st.Status)

	require.Len(t, req.got, 1)
	assert.Equal(t, http.MethodPost, req.got[0].Method)
	assert.Equal(t, "http://api/campaigns/c1", req.got[0].URL)
	assert.JSONEq(t, `{"_id":"c1","name":"new","budget":5}`, string(req.got[0].Body))
}

func TestForm_ReplacesLocalStateWithResolvedData(t *testing.T) {
	req := &stubRequester{reply: echo}
	f := New("http://api", req, campaign.New("c1", "old"))
	f.SetName("new")

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	got := f.Campaign()
	assert.Equal(t, "new", got.Name())
	assert.Contains(t, got, campaign.MappedField)
}

func TestForm_KeepsEditsOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		state request.State
	}{
		{"failed", request.State{Status: request.StatusFailed, Err: &request.HTTPError{StatusCode: 500}}},
		{"canceled", request.State{Status: request.StatusCanceled, Err: &request.CanceledError{Message: "stop"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &stubRequester{reply: func(request.Descriptor) (request.State, error) { return tt.state, tt.state.Err }}
			f := New("http://api", req, campaign.New("c1", "old"))
			f.SetName("edited")

			st, err := f.Submit(context.Background())
			assert.Error(t, err)
			assert.Equal(t, tt.state.Status, st.Status)
			assert.Equal(t, "edited", f.Campaign().Name())
			assert.NotContains(t, f.Campaign(), campaign.MappedField)
		})
	}
}

func TestForm_MissingID(t *testing.T) {
	req := &stubRequester{reply: echo}
	f := New("http://api", req, nil)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, campaign.ErrMissingID)
	assert.Empty(t, req.got)
}

func TestForm_Loading(t *testing.T) {
	req := &stubRequester{state: request.State{Status: request.StatusLoading}}
	f := New("http://api", req, campaign.New("c1", ""))
	assert.True(t, f.Loading())
}
