package campaign

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campaign-console/internal/request"
)

const (
	Timeout     = 10 * time.Second
	MappedField = "newAttr"
)

// UpdateCampaign describes POST {baseURL}/campaigns/{id} with c as the
// JSON body. Successful payloads go through MapData.
func UpdateCampaign(baseURL string, c Campaign) (request.Descriptor, error) {
	id := c.ID()
	if id == "" {
		return request.Descriptor{}, ErrMissingID
	}
	body, err := json.Marshal(c)
	if err != nil {
		return request.Descriptor{}, fmt.Errorf("encode campaign: %w", err)
	}
	return request.Descriptor{
		Method:       http.MethodPost,
		URL:          resourceURL(baseURL, id),
		Timeout:      Timeout,
		Body:         body,
		Interceptors: interceptors(),
	}, nil
}

// GetCampaign describes GET {baseURL}/campaigns/{id}.
func GetCampaign(baseURL, id string) (request.Descriptor, error) {
	if id == "" {
		return request.Descriptor{}, ErrMissingID
	}
	return request.Descriptor{
		Method:       http.MethodGet,
		URL:          resourceURL(baseURL, id),
		Timeout:      Timeout,
		Interceptors: interceptors(),
	}, nil
}

// MapData enriches an object payload with one synthetic field. Anything
// that is not a JSON object passes through unchanged.
func MapData(data any) any {
	obj, ok := data.(map[string]any)
	if !ok {
		if c, isCampaign := data.(Campaign); isCampaign {
			obj = c
		} else {
			return data
		}
	}
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	out[MappedField] = rand.Float64()
	return out
}

func resourceURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/campaigns/" + url.PathEscape(id)
}

func interceptors() request.Interceptors {
	return request.Interceptors{
		Request: request.RequestInterceptor{
			Fulfilled: func(r *http.Request) (*http.Request, error) { return r, nil },
			Rejected:  func(err error) error { return err },
		},
		Response: request.ResponseInterceptor{
			Fulfilled: func(r *request.Response) (*request.Response, error) {
				r.Data = MapData(r.Data)
				return r, nil
			},
			Rejected: func(err error) error { return err },
		},
	}
}
