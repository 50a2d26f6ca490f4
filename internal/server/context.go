package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxsizer/internal/config"
	gmailclient "github.com/teemow/inboxsizer/internal/gmail"
	"github.com/teemow/inboxsizer/internal/google"
	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/logging"
	"github.com/teemow/inboxsizer/internal/review"
	"github.com/teemow/inboxsizer/internal/store"
)

// Options configures a ServerContext. Only Config is required.
type Options struct {
	Config        config.Config
	Auth          *google.Auth
	TokenProvider google.TokenProvider
	Metrics       *instrumentation.Metrics
	Audit         *instrumentation.AuditLogger
	History       review.History
	Logger        *slog.Logger
}

// ServerContext holds the per-account review services shared by the MCP
// tools and the HTTP API.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	logger  *slog.Logger
	clients map[string]*gmailclient.Client
	reviews map[string]*review.Service

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Config.Account == "" {
		opts.Config.Account = "default"
	}
	if opts.TokenProvider == nil && opts.Auth != nil {
		opts.TokenProvider = google.NewFileTokenProvider(opts.Auth)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		opts:    opts,
		logger:  logger,
		clients: make(map[string]*gmailclient.Client),
		reviews: make(map[string]*review.Service),
	}, nil
}

// Context returns the server context. It is canceled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the application configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.opts.Config
}

// DefaultAccount returns the configured account name.
func (sc *ServerContext) DefaultAccount() string {
	return sc.opts.Config.Account
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.opts.Audit
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// AuthURL returns the consent URL for obtaining a token, or "" when no
// OAuth client is configured.
func (sc *ServerContext) AuthURL(state string) string {
	if sc.opts.Auth == nil {
		return ""
	}
	return sc.opts.Auth.AuthURL(state)
}

// SaveAuthCode exchanges a pasted authorization code and stores the token
// for account. Any cached client for the account is dropped.
func (sc *ServerContext) SaveAuthCode(ctx context.Context, account, code string) error {
	if sc.opts.Auth == nil {
		return fmt.Errorf("OAuth client is not configured; set google.client_id and google.client_secret")
	}
	if err := sc.opts.Auth.SaveCode(ctx, account, code); err != nil {
		return err
	}
	sc.mu.Lock()
	delete(sc.clients, account)
	delete(sc.reviews, account)
	sc.mu.Unlock()
	return nil
}

// HasToken reports whether account can reach Gmail.
func (sc *ServerContext) HasToken(account string) bool {
	sc.mu.RLock()
	_, ok := sc.reviews[account]
	sc.mu.RUnlock()
	if ok {
		return true
	}
	return sc.opts.TokenProvider != nil && sc.opts.TokenProvider.HasTokenForAccount(account)
}

// ReviewService returns the review service for account, creating and
// caching its Gmail client on first use.
func (sc *ServerContext) ReviewService(account string) (*review.Service, error) {
	if account == "" {
		account = sc.DefaultAccount()
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if svc, ok := sc.reviews[account]; ok {
		return svc, nil
	}

	if sc.opts.TokenProvider == nil || !sc.opts.TokenProvider.HasTokenForAccount(account) {
		return nil, fmt.Errorf("no Gmail token for account %q; run 'inboxsizer auth url --account %s' first", account, account)
	}

	cfg := sc.opts.Config
	httpClient := oauth2.NewClient(sc.ctx, oauth2.ReuseTokenSource(nil, &providerSource{
		ctx:      sc.ctx,
		provider: sc.opts.TokenProvider,
		account:  account,
	}))
	client, err := gmailclient.NewClient(sc.ctx, httpClient, account,
		gmailclient.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		gmailclient.WithCreateMissingLabels(cfg.CreateMissingLabels),
		gmailclient.WithMetrics(sc.opts.Metrics),
		gmailclient.WithLogger(sc.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client for account %s: %w", account, err)
	}

	svc := sc.newReviewService(account, client, client)
	sc.clients[account] = client
	sc.reviews[account] = svc
	return svc, nil
}

// SetReviewService installs a review service built around src and sink for
// account, replacing any cached one.
func (sc *ServerContext) SetReviewService(account string, src review.MessageSource, sink review.LabelSink) *review.Service {
	svc := sc.newReviewService(account, src, sink)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.reviews[account] = svc
	return svc
}

// ErrNoHistory is returned when decision history is disabled.
var ErrNoHistory = errors.New("decision history is disabled")

// RecentDecisions returns the newest recorded decisions, newest first.
func (sc *ServerContext) RecentDecisions(ctx context.Context, limit int) ([]store.Decision, error) {
	reader, ok := sc.opts.History.(interface {
		Recent(ctx context.Context, limit int) ([]store.Decision, error)
	})
	if !ok {
		return nil, ErrNoHistory
	}
	return reader.Recent(ctx, limit)
}

// OfflineService returns a review service without a Gmail source, for
// classifying saved messages.
func (sc *ServerContext) OfflineService() *review.Service {
	return sc.newReviewService(sc.DefaultAccount(), nil, nil)
}

func (sc *ServerContext) newReviewService(account string, src review.MessageSource, sink review.LabelSink) *review.Service {
	cfg := sc.opts.Config
	return &review.Service{
		Source:       src,
		Sink:         sink,
		History:      sc.opts.History,
		Logger:       logging.NewSlogAdapter(logging.WithAccount(sc.logger, account)),
		Metrics:      sc.opts.Metrics,
		Audit:        sc.opts.Audit,
		Account:      account,
		Query:        cfg.Query,
		PageSize:     cfg.PageSize,
		Concurrency:  cfg.Concurrency,
		FetchTimeout: cfg.FetchTimeout,
	}
}

// BreakerStates returns the circuit breaker state of every cached Gmail client.
func (sc *ServerContext) BreakerStates() map[string]string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	states := make(map[string]string, len(sc.clients))
	for account, c := range sc.clients {
		states[account] = c.BreakerState()
	}
	return states
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

// providerSource adapts a TokenProvider to oauth2.TokenSource.
type providerSource struct {
	ctx      context.Context
	provider google.TokenProvider
	account  string
}

func (p *providerSource) Token() (*oauth2.Token, error) {
	return p.provider.GetTokenForAccount(p.ctx, p.account)
}
