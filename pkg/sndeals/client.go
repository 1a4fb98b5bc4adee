// Package sndeals is the public entry point of the classifieds client. It
// wires one event bus, a store and gateway per entity kind, the optional
// request journal, and the attachment export store.
//
// Example:
//
//	c, err := sndeals.New(ctx, types.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	page, err := c.Posts().Gateway.FetchList(ctx, gateway.ListOptions{})
package sndeals

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/sndeals/internal/blob"
	"github.com/mesh-intelligence/sndeals/internal/codec"
	"github.com/mesh-intelligence/sndeals/internal/gateway"
	"github.com/mesh-intelligence/sndeals/internal/journal"
	"github.com/mesh-intelligence/sndeals/internal/store"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// Version is the client release.
const Version = "0.3.0"

// Kit pairs the store and gateway of one entity kind.
type Kit[E types.Entity] struct {
	Store   *store.Container[E]
	Gateway *gateway.Gateway[E]

	route store.Dispatcher
}

// Dispatch publishes ev on the shared bus, so every registered handler
// sees it.
func (k Kit[E]) Dispatch(ev store.Event) {
	k.route.Dispatch(ev)
}

// Reset returns the kind's store to its initial state.
func (k Kit[E]) Reset() {
	k.route.Dispatch(store.Reset[E]{})
}

// Client owns every per-kind kit and the resources they share.
type Client struct {
	cfg     types.Config
	log     logr.Logger
	bus     *store.Bus
	journal *journal.Journal
	opener  *codec.Opener

	posts       Kit[types.Post]
	comments    Kit[types.Comment]
	categories  Kit[types.Category]
	attachments Kit[types.Attachment]
	resources   Kit[types.Resource]

	blobMu sync.Mutex
	blobs  blob.Store
}

// Option configures a Client.
type Option func(*options)

type options struct {
	log        logr.Logger
	registerer prometheus.Registerer
	httpClient *http.Client
	blobs      blob.Store
	opener     *codec.Opener
}

// WithLogger sets the logger passed to every component.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRegisterer enables gateway metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithHTTPClient replaces the transport client. Its timeout takes
// precedence over the configured one.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBlobStore replaces the store selected by the blob configuration.
func WithBlobStore(s blob.Store) Option {
	return func(o *options) { o.blobs = s }
}

// WithOpener replaces the preview opener.
func WithOpener(op *codec.Opener) Option {
	return func(o *options) { o.opener = op }
}

// New validates cfg and builds a client. When cfg.Journal is set, the
// journal database is opened in cfg.DataDir; call Close to release it.
func New(ctx context.Context, cfg types.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if o.opener == nil {
		o.opener = codec.NewOpener()
	}

	gwOpts := []gateway.Option{
		gateway.WithHTTPClient(o.httpClient),
		gateway.WithLogger(o.log.WithName("gateway")),
		gateway.WithToken(cfg.Token),
	}
	if o.registerer != nil {
		m, err := gateway.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		gwOpts = append(gwOpts, gateway.WithMetrics(m))
	}

	c := &Client{
		cfg:    cfg,
		log:    o.log,
		bus:    store.NewBus(),
		opener: o.opener,
		blobs:  o.blobs,
	}
	storeLog := store.WithLogger(o.log.WithName("store"))

	var err error
	if c.posts, err = newKit[types.Post](c.bus, cfg.BaseURL, storeLog, gwOpts); err != nil {
		return nil, err
	}
	if c.comments, err = newKit[types.Comment](c.bus, cfg.BaseURL, storeLog, gwOpts); err != nil {
		return nil, err
	}
	if c.categories, err = newKit[types.Category](c.bus, cfg.BaseURL, storeLog, gwOpts); err != nil {
		return nil, err
	}
	if c.attachments, err = newKit[types.Attachment](c.bus, cfg.BaseURL, storeLog, gwOpts); err != nil {
		return nil, err
	}
	if c.resources, err = newKit[types.Resource](c.bus, cfg.BaseURL, storeLog, gwOpts); err != nil {
		return nil, err
	}

	if cfg.Journal {
		j := journal.New(journal.WithLogger(o.log.WithName("journal")))
		if err := j.Attach(cfg.DataDir); err != nil {
			return nil, err
		}
		c.journal = j
		c.bus.Register(j)
	}
	return c, nil
}

func newKit[E types.Entity](bus *store.Bus, baseURL string, storeOpt store.ContainerOption, gwOpts []gateway.Option) (Kit[E], error) {
	s := store.NewContainer[E](storeOpt)
	bus.Register(s)
	route := store.Route(bus, s)
	gw, err := gateway.New[E](baseURL, route, gwOpts...)
	if err != nil {
		return Kit[E]{}, err
	}
	return Kit[E]{Store: s, Gateway: gw, route: route}, nil
}

// Close releases the journal. It is safe to call more than once.
func (c *Client) Close() error {
	if c.journal == nil {
		return nil
	}
	return c.journal.Detach()
}

// Config returns the configuration the client was built with.
func (c *Client) Config() types.Config { return c.cfg }

// Bus returns the event bus shared by every kit.
func (c *Client) Bus() *store.Bus { return c.bus }

// Journal returns the request journal, or nil when it is disabled.
func (c *Client) Journal() *journal.Journal { return c.journal }

// Opener returns the preview opener.
func (c *Client) Opener() *codec.Opener { return c.opener }

// Posts returns the post kit.
func (c *Client) Posts() Kit[types.Post] { return c.posts }

// Comments returns the comment kit.
func (c *Client) Comments() Kit[types.Comment] { return c.comments }

// Categories returns the category kit.
func (c *Client) Categories() Kit[types.Category] { return c.categories }

// Attachments returns the attachment kit.
func (c *Client) Attachments() Kit[types.Attachment] { return c.attachments }

// Resources returns the resource kit.
func (c *Client) Resources() Kit[types.Resource] { return c.resources }

// Blobs returns the export store, opening it on first use.
func (c *Client) Blobs(ctx context.Context) (blob.Store, error) {
	c.blobMu.Lock()
	defer c.blobMu.Unlock()
	if c.blobs != nil {
		return c.blobs, nil
	}
	s, err := blob.Open(ctx, c.cfg.Blob, c.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	c.blobs = s
	return s, nil
}
