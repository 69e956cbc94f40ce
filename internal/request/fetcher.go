package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"campaign-console/internal/observability"
)

const (
	DefaultTimeout = 10 * time.Second

	supersededMessage = "superseded by a newer request"
	closedMessage     = "fetcher closed"
)

// TokenSource yields the persisted bearer token. An empty token means the
// user is not authenticated; no Authorization header is sent then.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Authenticator is told when a call came back 401.
type Authenticator interface {
	OpenAuthModal()
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithQueryToken(token string) Option { return func(f *Fetcher) { f.queryToken = token } }

func WithTokenSource(ts TokenSource) Option { return func(f *Fetcher) { f.tokens = ts } }

func WithAuthenticator(a Authenticator) Option { return func(f *Fetcher) { f.auth = a } }

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithReplayMethods sets which methods are re-issued after reauthentication.
func WithReplayMethods(methods ...string) Option {
	return func(f *Fetcher) {
		f.replayMethods = map[string]bool{}
		for _, m := range methods {
			f.replayMethods[strings.ToUpper(strings.TrimSpace(m))] = true
		}
	}
}

// WithMaxReplays caps how many times one failed call is re-issued for the
// same token. Zero disables replay.
func WithMaxReplays(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxReplays = n
		}
	}
}

// Fetcher issues one HTTP call at a time and tracks its State. A newer call
// supersedes the in-flight one: the old call is canceled and its result is
// never written. After a 401 it can re-issue the last call once the user
// token becomes available (see TokenChanged).
type Fetcher struct {
	client        *http.Client
	queryToken    string
	tokens        TokenSource
	auth          Authenticator
	timeout       time.Duration
	replayMethods map[string]bool
	maxReplays    int

	ctx  context.Context // lifetime; canceled by Close
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	state      State
	gen        uint64
	cancel     context.CancelCauseFunc
	last        *Descriptor
	authFailed  bool
	replayToken string // token the current replay count applies to
	replays     int
	closed      bool

	// notifyMu is held for reading while subscribers run; Close takes it
	// for writing to wait them out.
	notifyMu sync.RWMutex
	subMu    sync.Mutex
	subs     map[int]func(State)
	nextID   int
}

func New(opts ...Option) *Fetcher {
	ctx, stop := context.WithCancel(context.Background())
	f := &Fetcher{
		client:        http.DefaultClient,
		timeout:       DefaultTimeout,
		replayMethods: map[string]bool{http.MethodGet: true},
		maxReplays:    1,
		ctx:           ctx,
		stop:          stop,
		subs:          map[int]func(State){},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns a snapshot of the current fetch state.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Subscribe registers fn to be called after every state change. fn runs
// synchronously on the goroutine that changed the state. It may call
// State, Cancel, Subscribe or its own unsubscribe; it must not call
// Request or Close, which wait for in-flight work.
func (f *Fetcher) Subscribe(fn func(State)) (unsubscribe func()) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

// Request performs the call described by d and blocks until it resolves.
// The returned error is the state's error for failed or canceled calls, or
// ErrClosed once the fetcher has been torn down.
func (f *Fetcher) Request(ctx context.Context, d Descriptor) (State, error) {
	return f.run(ctx, d, false)
}

// Cancel aborts the in-flight call, if any.
func (f *Fetcher) Cancel(message string) {
	if message == "" {
		message = DefaultCancelMessage
	}
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel(&CanceledError{Message: message})
	}
}

// TokenChanged reacts to a user token transition. Going from absent to
// present after the last call failed with 401 re-issues that call in the
// background, provided its method is replayable. Each distinct token gets
// at most maxReplays attempts, so signing in again with a token that was
// just rejected does nothing.
func (f *Fetcher) TokenChanged(prev, next string) {
	if prev != "" || next == "" {
		return
	}

	f.mu.Lock()
	if f.closed || !f.authFailed || f.last == nil || !f.replayMethods[strings.ToUpper(f.last.Method)] {
		f.mu.Unlock()
		return
	}
	if next != f.replayToken {
		f.replayToken = next
		f.replays = 0
	}
	if f.replays >= f.maxReplays {
		f.mu.Unlock()
		log.Debug().Msg("token already replayed; waiting for a different one")
		return
	}
	f.replays++
	d := *f.last
	f.wg.Add(1)
	f.mu.Unlock()

	log.Info().Str("method", d.Method).Str("url", d.URL).Msg("token available; replaying request")
	go func() {
		defer f.wg.Done()
		_, _ = f.run(f.ctx, d, true)
	}()
}

// Close cancels any in-flight call and waits for background replays. No
// state change or notification happens after Close returns.
func (f *Fetcher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	if f.cancel != nil {
		f.cancel(&CanceledError{Message: closedMessage})
		f.cancel = nil
	}
	f.stop()
	f.mu.Unlock()

	f.subMu.Lock()
	f.subs = map[int]func(State){}
	f.subMu.Unlock()

	// wait out running subscribers
	f.notifyMu.Lock()
	f.notifyMu.Unlock()

	f.wg.Wait()
}

func (f *Fetcher) run(ctx context.Context, d Descriptor, replay bool) (State, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return State{}, ErrClosed
	}
	if f.cancel != nil {
		f.cancel(&CanceledError{Message: supersededMessage})
	}
	f.gen++
	gen := f.gen
	callCtx, cancel := context.WithCancelCause(ctx)
	f.cancel = cancel
	last := d
	f.last = &last
	f.authFailed = false
	if !replay {
		f.replays = 0
		f.replayToken = ""
	}
	f.state = State{Status: StatusLoading, Data: f.state.Data}
	loading := f.state
	f.mu.Unlock()

	f.notify(gen, loading)

	final := f.execute(callCtx, d)
	cancel(nil)

	f.mu.Lock()
	current := gen == f.gen && !f.closed
	if current {
		f.state = final
		f.cancel = nil
		f.authFailed = final.Status == StatusFailed && IsUnauthorized(final.Err)
	}
	f.mu.Unlock()

	if !current {
		// superseded or torn down; the caller still learns what happened
		return final, final.Err
	}

	observability.FetchOutcomes.WithLabelValues(final.outcome()).Inc()
	switch final.Status {
	case StatusCanceled:
		log.Debug().Str("method", d.Method).Str("url", d.URL).Err(final.Err).Msg("request canceled")
	case StatusFailed:
		log.Error().Err(final.Err).Int("status", StatusCode(final.Err)).
			Str("method", d.Method).Str("url", d.URL).Msg("request failed")
		if IsUnauthorized(final.Err) && f.auth != nil {
			f.auth.OpenAuthModal()
		}
	}

	f.notify(gen, final)
	return final, final.Err
}

func (f *Fetcher) execute(ctx context.Context, d Descriptor) State {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := f.send(ctx, d)
	if err == nil {
		res, err = d.Interceptors.Response.fulfill(res)
	} else {
		err = d.Interceptors.Response.reject(err)
	}

	switch {
	case IsCancel(err):
		return State{Status: StatusCanceled, Err: err}
	case err != nil:
		return State{Status: StatusFailed, Err: err}
	case res == nil:
		return State{Status: StatusFinished}
	}
	return State{Status: StatusFinished, Data: res.Data}
}

func (f *Fetcher) send(ctx context.Context, d Descriptor) (*Response, error) {
	req, err := f.newRequest(ctx, d)
	if err == nil {
		req, err = d.Interceptors.Request.fulfill(req)
	}
	if err != nil {
		return nil, d.Interceptors.Request.reject(err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, canceledOr(ctx, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, canceledOr(ctx, fmt.Errorf("read response: %w", err))
	}

	out := &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}
	if len(body) > 0 && isJSON(res.Header.Get("Content-Type"), body) {
		if err := json.Unmarshal(body, &out.Data); err != nil && res.StatusCode < 300 {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body, Response: out}
	}
	return out, nil
}

func (f *Fetcher) newRequest(ctx context.Context, d Descriptor) (*http.Request, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if f.queryToken != "" {
		q := u.Query()
		q.Set("token", f.queryToken)
		u.RawQuery = q.Encode()
	}

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if d.Body != nil {
		body = bytes.NewReader(d.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if d.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if f.tokens != nil {
		token, err := f.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("load bearer token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// canceledOr turns an error caused by our own cancellation handle (or an
// outer context being canceled) into a CanceledError.
func canceledOr(ctx context.Context, err error) error {
	var ce *CanceledError
	if errors.As(context.Cause(ctx), &ce) {
		return ce
	}
	if errors.Is(err, context.Canceled) {
		return &CanceledError{Message: context.Cause(ctx).Error()}
	}
	return err
}

// isJSON reports whether body should be decoded. Untyped and text/plain
// bodies are decoded when they hold valid JSON.
func isJSON(contentType string, body []byte) bool {
	if contentType == "" {
		return json.Valid(body)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return true
	case mt == "text/plain":
		return json.Valid(body)
	}
	return false
}

func (f *Fetcher) notify(gen uint64, st State) {
	f.notifyMu.RLock()
	defer f.notifyMu.RUnlock()

	f.subMu.Lock()
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	f.subMu.Unlock()

	for _, id := range ids {
		if !f.current(gen) {
			return
		}
		f.subMu.Lock()
		fn, ok := f.subs[id]
		f.subMu.Unlock()
		if ok {
			fn(st)
		}
	}
}

func (f *Fetcher) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gen == f.gen && !f.closed
}
