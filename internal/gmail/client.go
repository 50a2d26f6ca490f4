package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/logging"
)

const (
	userID     = "me"
	inboxLabel = "INBOX"
)

// ErrLabelNotFound is returned when a size label does not exist in the mailbox.
var ErrLabelNotFound = errors.New("label not found")

// Client wraps the Gmail users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	createLabels bool

	labelMu  sync.Mutex
	labelIDs map[classify.Label]string
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit limits API calls to rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records every API call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCreateMissingLabels makes ApplyAction create absent size labels.
func WithCreateMissingLabels(create bool) Option {
	return func(c *Client) {
		c.createLabels = create
	}
}

// NewClient creates a client that authenticates with httpClient.
func NewClient(ctx context.Context, httpClient *http.Client, account string, opts ...Option) (*Client, error) {
	return NewClientWithOptions(ctx, account, []option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
}

// NewClientWithOptions creates a client from raw Google API client options.
func NewClientWithOptions(ctx context.Context, account string, clientOpts []option.ClientOption, opts ...Option) (*Client, error) {
	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	c := &Client{
		svc:     svc.Users,
		account: account,
		limiter: rate.NewLimiter(rate.Limit(20), 10),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithAccount(c.logger, account)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gmail-" + account,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !tripsBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
	return c, nil
}

// Account returns the account name the client was created for.
func (c *Client) Account() string {
	return c.account
}

// BreakerState returns the circuit breaker state: closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// tripsBreaker reports whether err indicates the API itself is struggling.
func tripsBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}

// call runs one API operation through the limiter and breaker and records it.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, op)
	defer span.End()

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("gmail api call failed",
			logging.Operation(op),
			logging.Duration(duration),
			logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, op, status, duration)
	return err
}

// ListUnlabeled returns up to max message ids matching query, starting at
// pageToken, and the token of the next page ("" on the last page).
func (c *Client) ListUnlabeled(ctx context.Context, query, pageToken string, max int64) ([]string, string, error) {
	var res *gmail.ListMessagesResponse
	err := c.call(ctx, instrumentation.OperationListMessages, func(ctx context.Context) error {
		req := c.svc.Messages.List(userID).Q(query).MaxResults(max).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		var err error
		res, err = req.Do()
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, res.NextPageToken, nil
}

// GetMessage fetches a message in full format.
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.call(ctx, instrumentation.OperationGetMessage, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(userID, id).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// ApplyAction applies a reviewer action to a message. Skip makes no call,
// archive removes the message from the inbox, and a size label is added
// while the message stays in the inbox.
func (c *Client) ApplyAction(ctx context.Context, id string, action classify.Action) error {
	switch action {
	case classify.ActionSkip:
		return nil
	case classify.ActionArchive:
		return c.modify(ctx, id, &gmail.ModifyMessageRequest{RemoveLabelIds: []string{inboxLabel}})
	}

	label, ok := action.SizeLabel()
	if !ok {
		return fmt.Errorf("unsupported action %q", action)
	}
	ids, err := c.SizeLabelIDs(ctx, c.createLabels)
	if err != nil {
		return err
	}
	labelID, ok := ids[label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLabelNotFound, label)
	}
	return c.modify(ctx, id, &gmail.ModifyMessageRequest{AddLabelIds: []string{labelID}})
}

func (c *Client) modify(ctx context.Context, id string, req *gmail.ModifyMessageRequest) error {
	err := c.call(ctx, instrumentation.OperationModifyMessage, func(ctx context.Context) error {
		_, err := c.svc.Messages.Modify(userID, id, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to modify message %s: %w", id, err)
	}
	return nil
}
