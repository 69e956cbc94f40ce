package form

import (
	"context"
	"sync"

	"campaign-console/internal/campaign"
	"campaign-console/internal/request"
)

// Requester is the part of request.Fetcher the form needs.
type Requester interface {
	Request(ctx context.Context, d request.Descriptor) (request.State, error)
	State() request.State
}

// Form holds the locally edited campaign and submits it as an update.
type Form struct {
	baseURL string
	req     Requester

	mu       sync.Mutex
	campaign campaign.Campaign
}

func New(baseURL string, req Requester, initial campaign.Campaign) *Form {
	if initial == nil {
		initial = campaign.Campaign{campaign.FieldName: ""}
	}
	return &Form{baseURL: baseURL, req: req, campaign: initial.Clone()}
}

func (f *Form) SetName(name string) {
	f.mu.Lock()
	f.campaign = f.campaign.WithName(name)
	f.mu.Unlock()
}

// Campaign returns a copy of the local state.
func (f *Form) Campaign() campaign.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.campaign.Clone()
}

func (f *Form) Loading() bool { return f.req.State().Loading() }

// Submit sends the current local state and waits for the result. Local
// state is replaced by the returned record only when the call finished;
// failed or canceled submissions leave the edits in place.
func (f *Form) Submit(ctx context.Context) (request.State, error) {
	d, err := campaign.UpdateCampaign(f.baseURL, f.Campaign())
	if err != nil {
		return request.State{}, err
	}

	st, err := f.req.Request(ctx, d)
	if err != nil {
		return st, err
	}
	if c, ok := campaign.FromData(st.Data); ok {
		f.mu.Lock()
		f.campaign = c.Clone()
		f.mu.Unlock()
	}
	return st, nil
}
