package request

import (
	"net/http"
	"time"
)

// Descriptor describes one outgoing call. Build a fresh one per call.
type Descriptor struct {
	Method       string
	URL          string
	Timeout      time.Duration // zero means the fetcher default
	Body         []byte
	Interceptors Interceptors
}

type Interceptors struct {
	Request  RequestInterceptor
	Response ResponseInterceptor
}

// RequestInterceptor runs before the request is sent. Rejected sees any
// error raised while building the request or by Fulfilled.
type RequestInterceptor struct {
	Fulfilled func(*http.Request) (*http.Request, error)
	Rejected  func(error) error
}

// ResponseInterceptor runs after the call returns. Fulfilled is invoked for
// 2xx responses, Rejected for everything else including transport errors
// and cancellation. A nil error from Rejected keeps the original error.
type ResponseInterceptor struct {
	Fulfilled func(*Response) (*Response, error)
	Rejected  func(error) error
}

// Response is the decoded result of a call. Data holds the JSON-decoded
// body (nil for empty or non-JSON bodies) and is what ends up in State.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Data       any
}

func (i RequestInterceptor) fulfill(req *http.Request) (*http.Request, error) {
	if i.Fulfilled == nil {
		return req, nil
	}
	return i.Fulfilled(req)
}

func (i RequestInterceptor) reject(err error) error {
	return rejectWith(i.Rejected, err)
}

func (i ResponseInterceptor) fulfill(res *Response) (*Response, error) {
	if i.Fulfilled == nil {
		return res, nil
	}
	return i.Fulfilled(res)
}

func (i ResponseInterceptor) reject(err error) error {
	return rejectWith(i.Rejected, err)
}

func rejectWith(fn func(error) error, err error) error {
	if fn == nil {
		return err
	}
	if out := fn(err); out != nil {
		return out
	}
	return err
}
