// Package gateway performs the REST calls for one entity kind and reports
// each request's lifecycle to a store as Started and terminal events.
//
// Every call dispatches Started with a fresh generation, then exactly one
// Succeeded or Failed event carrying the same generation, and returns the
// outcome to the caller as well. Nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/sndeals/internal/store"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// TotalCountHeader carries the total number of entities matching a list
// query.
const TotalCountHeader = "X-Total-Count"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// maxErrorBody bounds how much of a non-2xx response is read, and how much
// of any body a ServerError carries. Successful responses are read whole.
const maxErrorBody = 64 << 10

// Option configures a Gateway.
type Option func(*options)

type options struct {
	client  *http.Client
	log     logr.Logger
	metrics *Metrics
	now     func() time.Time
	token   string
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithLogger sets the request logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records requests on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now for cache-busting query values.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// Gateway issues REST calls for entities of type E.
type Gateway[E types.Entity] struct {
	resource string
	kind     types.Kind
	d        store.Dispatcher
	client   *http.Client
	log      logr.Logger
	metrics  *Metrics
	now      func() time.Time
	token    string
}

// New returns a gateway for E rooted at baseURL. Requests go to
// <baseURL>/api/<collection> and lifecycle events go to d.
func New[E types.Entity](baseURL string, d store.Dispatcher, opts ...Option) (*Gateway[E], error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrBaseURLInvalid, baseURL)
	}
	if d == nil {
		return nil, errors.New("gateway: nil dispatcher")
	}

	o := options{
		client: http.DefaultClient,
		log:    logr.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero E
	kind := zero.Kind()
	return &Gateway[E]{
		resource: strings.TrimRight(baseURL, "/") + "/api/" + kind.Collection(),
		kind:     kind,
		d:        d,
		client:   o.client,
		log:      o.log.WithValues("kind", string(kind)),
		metrics:  o.metrics,
		now:      o.now,
		token:    o.token,
	}, nil
}

// Kind returns the entity kind the gateway serves.
func (g *Gateway[E]) Kind() types.Kind { return g.kind }

// Page is the result of a list fetch.
type Page[E types.Entity] struct {
	Items []E
	Total int
}

// FetchList retrieves a page of entities. The total comes from the
// X-Total-Count header; when the header is absent the total is 0.
func (g *Gateway[E]) FetchList(ctx context.Context, opts ListOptions) (Page[E], error) {
	gen := g.begin(store.OpFetchList)

	q := opts.values()
	q.Set("cacheBuster", strconv.FormatInt(g.now().UnixMilli(), 10))
	resp, err := g.do(ctx, store.OpFetchList, http.MethodGet, g.resource+"?"+q.Encode(), nil)
	if err != nil {
		return Page[E]{}, g.fail(store.OpFetchList, gen, err)
	}

	var items []E
	if err := resp.decode(&items); err != nil {
		return Page[E]{}, g.fail(store.OpFetchList, gen, err)
	}
	if items == nil {
		items = []E{}
	}
	total, err := g.totalCount(resp)
	if err != nil {
		return Page[E]{}, g.fail(store.OpFetchList, gen, err)
	}

	g.d.Dispatch(store.ListSucceeded[E]{Items: items, Total: total, Gen: gen})
	return Page[E]{Items: items, Total: total}, nil
}

// FetchOne retrieves a single entity by id.
func (g *Gateway[E]) FetchOne(ctx context.Context, id int64) (E, error) {
	var zero E
	gen := g.begin(store.OpFetchOne)

	resp, err := g.do(ctx, store.OpFetchOne, http.MethodGet, g.entityURL(id), nil)
	if err != nil {
		return zero, g.fail(store.OpFetchOne, gen, err)
	}
	var item E
	if err := resp.decode(&item); err != nil {
		return zero, g.fail(store.OpFetchOne, gen, err)
	}

	g.d.Dispatch(store.OneSucceeded[E]{Item: item, Gen: gen})
	return item, nil
}

// Create posts a new entity and, on success, refreshes the list once.
// The returned entity is the one the server stored.
func (g *Gateway[E]) Create(ctx context.Context, e E) (E, error) {
	item, err := g.write(ctx, store.OpCreate, http.MethodPost, e)
	if err != nil {
		return item, err
	}
	g.RefreshAfterWrite(ctx)
	return item, nil
}

// Update replaces an entity. The id travels in the body and the request
// goes to the collection URL. The list is not refreshed.
func (g *Gateway[E]) Update(ctx context.Context, e E) (E, error) {
	return g.write(ctx, store.OpUpdate, http.MethodPut, e)
}

// Delete removes an entity by id and, on success, refreshes the list once.
func (g *Gateway[E]) Delete(ctx context.Context, id int64) error {
	gen := g.begin(store.OpDelete)
	if _, err := g.do(ctx, store.OpDelete, http.MethodDelete, g.entityURL(id), nil); err != nil {
		return g.fail(store.OpDelete, gen, err)
	}
	g.d.Dispatch(store.DeleteSucceeded[E]{Gen: gen})
	g.RefreshAfterWrite(ctx)
	return nil
}

// Count returns the number of entities matching criteria.
func (g *Gateway[E]) Count(ctx context.Context, criteria []Criterion) (int64, error) {
	gen := g.begin(store.OpCount)

	q := url.Values{}
	addCriteria(q, criteria)
	target := g.resource + "/count"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	resp, err := g.do(ctx, store.OpCount, http.MethodGet, target, nil)
	if err != nil {
		return 0, g.fail(store.OpCount, gen, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(resp.body)), 10, 64)
	if err != nil {
		return 0, g.fail(store.OpCount, gen, resp.serverError(fmt.Errorf("decode count: %w", err)))
	}

	g.d.Dispatch(store.CountSucceeded[E]{Count: n, Gen: gen})
	return n, nil
}

// RefreshAfterWrite re-fetches the unpaged list after a successful create
// or delete. Its outcome reaches the store as a read-lane lifecycle and is
// otherwise only logged.
func (g *Gateway[E]) RefreshAfterWrite(ctx context.Context) {
	if _, err := g.FetchList(ctx, ListOptions{}); err != nil {
		g.log.Info("refresh after write failed", "error", err.Error())
	}
}

func (g *Gateway[E]) write(ctx context.Context, op store.Op, method string, e E) (E, error) {
	var zero E
	gen := g.begin(op)

	if err := validate(op, e); err != nil {
		g.metrics.count(string(g.kind), op.String(), OutcomeValidation)
		return zero, g.fail(op, gen, err)
	}
	body, err := cleanBody(e)
	if err != nil {
		return zero, g.fail(op, gen, err)
	}
	resp, err := g.do(ctx, op, method, g.resource, body)
	if err != nil {
		return zero, g.fail(op, gen, err)
	}
	var item E
	if err := resp.decode(&item); err != nil {
		return zero, g.fail(op, gen, err)
	}

	g.d.Dispatch(store.WriteSucceeded[E]{Op: op, Item: item, Gen: gen})
	return item, nil
}

// validate applies the entity's required-field check and the identity
// rules: a new entity must not carry an id and an update must.
func validate(op store.Op, e types.Entity) error {
	err := e.Validate()
	var vf *types.ValidationFailure
	if err != nil && !errors.As(err, &vf) {
		return err
	}

	var idErr error
	switch {
	case op == store.OpCreate && e.GetID() != nil:
		idErr = types.ErrIDExists
	case op == store.OpUpdate && e.GetID() == nil:
		idErr = types.ErrIDNull
	}
	if idErr == nil {
		return err
	}
	if vf == nil {
		vf = &types.ValidationFailure{Kind: e.Kind()}
	}
	vf.Err = idErr
	return vf
}

func (g *Gateway[E]) begin(op store.Op) uint64 {
	gen := g.d.NextGeneration()
	g.d.Dispatch(store.Started[E]{Op: op, Gen: gen})
	return gen
}

func (g *Gateway[E]) fail(op store.Op, gen uint64, err error) error {
	g.d.Dispatch(store.Failed[E]{Op: op, Err: err, Gen: gen})
	return err
}

func (g *Gateway[E]) entityURL(id int64) string {
	return g.resource + "/" + strconv.FormatInt(id, 10)
}

func (g *Gateway[E]) totalCount(resp *response) (int, error) {
	h := resp.header.Get(TotalCountHeader)
	if h == "" {
		g.log.Info("response has no total count header, assuming 0", "header", TotalCountHeader)
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || n < 0 {
		return 0, resp.serverError(fmt.Errorf("%w: %q", types.ErrBadTotalCount, h))
	}
	return n, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return r.serverError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (r *response) serverError(err error) error {
	body := r.body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &types.ServerError{Status: r.status, Body: string(body), Err: err}
}

// do sends one request. Transport failures become NetworkFailure and
// non-2xx responses become ServerError.
func (g *Gateway[E]) do(ctx context.Context, op store.Op, method, target string, body []byte) (*response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, &types.NetworkFailure{Method: method, URL: target, Err: err}
	}

	reqID := requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	kind, opName := string(g.kind), op.String()
	log := g.log.WithValues("op", opName, "method", method, "url", target, "requestId", reqID)
	start := time.Now()

	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.count(kind, opName, OutcomeNetwork)
		log.V(1).Info("request failed", "error", err.Error())
		return nil, &types.NetworkFailure{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	var src io.Reader = resp.Body
	if !ok {
		src = io.LimitReader(resp.Body, maxErrorBody)
	}
	data, err := io.ReadAll(src)
	elapsed := time.Since(start)
	g.metrics.observe(kind, opName, elapsed)
	if err != nil {
		g.metrics.count(kind, opName, OutcomeNetwork)
		log.V(1).Info("reading response failed", "status", resp.StatusCode, "error", err.Error())
		return nil, &types.NetworkFailure{Method: method, URL: target, Err: err}
	}
	log.V(1).Info("request", "status", resp.StatusCode, "duration", elapsed)

	r := &response{status: resp.StatusCode, header: resp.Header, body: data}
	if !ok {
		g.metrics.count(kind, opName, OutcomeServer)
		return nil, r.serverError(nil)
	}
	g.metrics.count(kind, opName, OutcomeSuccess)
	return r, nil
}

func requestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
