package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/infrastructure/resilience"
	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/shared/id"
	"github.com/bretbouchard/sandbox/internal/types"
	"github.com/bretbouchard/sandbox/internal/utils"
)

// Handler receives the args of a pushed event
type Handler func(args []json.RawMessage)

// Reply receives the ack args of a request, or the error that ended it.
// It is called exactly once.
type Reply func(args []json.RawMessage, err error)

// Subscription identifies one registered handler
type Subscription struct {
	Event string
	ID    uint64
}

// Identity is the set of connection parameters a client is bound to
type Identity struct {
	UserID    string
	SandboxID string
	ClientID  id.ClientID
}

// Disconnect reasons passed as the first arg of EventDisconnect
const (
	ReasonClient    = "client disconnect"
	ReasonTransport = "transport close"
)

type subscriber struct {
	id      uint64
	handler Handler
}

type pending struct {
	event    string
	args     []json.RawMessage
	reply    Reply
	attempts int
	timer    *time.Timer
	metric   *monitoring.Timer
}

// Client is one session's connection to the workspace service. Handlers
// registered on a client only ever see frames from that client's
// connection.
type Client struct {
	opts      Options
	identity  Identity
	logger    *logging.Logger
	validator *utils.FrameValidator
	limiter   *rate.Limiter
	breaker   *resilience.Breaker

	mu       sync.Mutex
	conn     *websocket.Conn
	gen      uint64
	manual   bool
	stopping context.CancelFunc
	handlers map[string][]subscriber
	nextSub  uint64
	pending  map[string]*pending

	writeMu sync.Mutex
}

// New creates a client bound to the user and sandbox in opts. It does not
// connect.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	identity := Identity{
		UserID:    opts.UserID,
		SandboxID: opts.SandboxID,
		ClientID:  id.NewClientID(),
	}

	c := &Client{
		opts:     opts,
		identity: identity,
		logger: opts.Logger.Component("channel").
			Sandbox(identity.UserID, identity.SandboxID).
			With(zap.String("client_id", identity.ClientID.String())),
		validator: utils.NewFrameValidator(opts.MaxFrameBytes),
		limiter:   rate.NewLimiter(rate.Limit(opts.OutboundRPS), opts.OutboundBurst),
		handlers:  make(map[string][]subscriber),
		pending:   make(map[string]*pending),
	}
	c.breaker = resilience.New(resilience.Settings{
		Failures: opts.BreakerFailures,
		Cooldown: opts.BreakerCooldown,
		OnStateChange: func(from, to resilience.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	return c
}

// Identity returns the connection parameters the client is bound to
func (c *Client) Identity() Identity {
	return c.identity
}

// Connected reports whether the client currently holds a connection
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Connect dials the workspace service. It is a no-op while connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.manual = false
	if c.stopping != nil {
		c.stopping()
		c.stopping = nil
	}
	c.mu.Unlock()

	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	target, err := c.endpoint()
	if err != nil {
		return err
	}

	conn, resp, err := c.opts.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	conn.SetReadLimit(int64(c.validator.MaxSize()))

	c.mu.Lock()
	if c.conn != nil || c.manual {
		// lost a race with another Connect, or Disconnect was called mid-dial
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.mu.Unlock()
	c.breaker.Reset()

	c.logger.Info("Connected to workspace", zap.String("url", c.opts.URL))
	go c.readLoop(conn, gen)
	c.dispatch(types.EventConnect, nil)
	return nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", fmt.Errorf("invalid workspace url: %w", err)
	}
	q := u.Query()
	q.Set("userId", c.identity.UserID)
	q.Set("sandboxId", c.identity.SandboxID)
	q.Set("clientId", c.identity.ClientID.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Disconnect closes the connection and fails every pending request with
// ErrDisconnected. A disconnected client never reconnects on its own.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.manual = true
	if c.stopping != nil {
		c.stopping()
		c.stopping = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := conn.Close()

	c.logger.Info("Disconnected from workspace")
	c.failPending(ErrDisconnected)
	c.dispatch(types.EventDisconnect, []any{ReasonClient})
	return err
}

// On registers a handler for a pushed event or for the connect and
// disconnect lifecycle events.
func (c *Client) On(event string, handler Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	c.handlers[event] = append(c.handlers[event], subscriber{id: c.nextSub, handler: handler})
	return Subscription{Event: event, ID: c.nextSub}
}

// Off removes a handler. Deliveries already queued for it are skipped.
func (c *Client) Off(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.handlers[sub.Event]
	for i, s := range subs {
		if s.id == sub.ID {
			c.handlers[sub.Event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(c.handlers[sub.Event]) == 0 {
		delete(c.handlers, sub.Event)
	}
}

func (c *Client) subscribed(event string, subID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.handlers[event] {
		if s.id == subID {
			return true
		}
	}
	return false
}

// Emit sends a fire-and-forget message
func (c *Client) Emit(event string, args ...any) error {
	raw, err := types.EncodeArgs(args...)
	if err != nil {
		return fmt.Errorf("%s: %w", event, err)
	}
	return c.send(&types.Frame{Type: types.FrameEmit, Event: event, Args: raw})
}

// Request sends a message expecting an ack. reply is called exactly once,
// through the executor, with the ack args or an error: ErrTimeout after the
// configured retries, ErrDisconnected if the connection closes first, or a
// *RemoteError when the service rejects the request.
func (c *Client) Request(event string, reply Reply, args ...any) {
	metric := monitoring.NewTimer(c.opts.Metrics, event)

	raw, err := types.EncodeArgs(args...)
	if err != nil {
		metric.Stop(monitoring.OutcomeRejected)
		c.deliver(func() { reply(nil, fmt.Errorf("%s: %w", event, err)) })
		return
	}

	p := &pending{event: event, args: raw, reply: reply, metric: metric}
	c.attempt(p)
}

func (c *Client) attempt(p *pending) {
	reqID := id.NewRequestID().String()
	p.attempts++

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		c.finish(p, nil, ErrNotConnected)
		return
	}
	c.pending[reqID] = p
	p.timer = time.AfterFunc(c.opts.RequestTimeout, func() { c.expire(reqID) })
	c.mu.Unlock()

	err := c.send(&types.Frame{Type: types.FrameEmit, ID: reqID, Event: p.event, Args: p.args})
	if err == nil {
		return
	}
	if c.take(reqID) != nil {
		c.finish(p, nil, err)
	}
}

// take removes and returns the pending request with the given id, stopping
// its timer. It returns nil if the request already finished.
func (c *Client) take(reqID string) *pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pending[reqID]
	if p == nil {
		return nil
	}
	delete(c.pending, reqID)
	p.timer.Stop()
	return p
}

func (c *Client) expire(reqID string) {
	p := c.take(reqID)
	if p == nil {
		return
	}
	if p.attempts <= c.opts.RequestRetries {
		c.logger.Warn("Request timed out, retrying",
			zap.String("event", p.event),
			zap.String("request_id", reqID),
			zap.Int("attempt", p.attempts))
		c.opts.Metrics.IncChannelRetries(p.event)
		c.attempt(p)
		return
	}
	c.logger.Warn("Request timed out",
		zap.String("event", p.event),
		zap.String("request_id", reqID),
		zap.Duration("elapsed", p.metric.Elapsed()))
	c.finish(p, nil, ErrTimeout)
}

func (c *Client) finish(p *pending, args []json.RawMessage, err error) {
	outcome := monitoring.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		outcome = monitoring.OutcomeTimeout
	case errors.Is(err, ErrDisconnected), errors.Is(err, ErrNotConnected):
		outcome = monitoring.OutcomeDisconnected
	default:
		outcome = monitoring.OutcomeError
	}
	p.metric.Stop(outcome)
	c.deliver(func() { p.reply(args, err) })
}

func (c *Client) failPending(err error) {
	c.mu.Lock()
	failed := make([]*pending, 0, len(c.pending))
	for reqID, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, reqID)
		failed = append(failed, p)
	}
	c.mu.Unlock()

	for _, p := range failed {
		c.finish(p, nil, err)
	}
}

// send validates, rate limits and writes one frame
func (c *Client) send(f *types.Frame) error {
	data, err := types.Encode(f)
	if err != nil {
		return err
	}
	if err := c.validator.ValidateSize(data); err != nil {
		return fmt.Errorf("%s: %w", f.Event, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limited: %w", f.Event, err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	err = c.breaker.Do(func() error {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, data)
	})
	if err != nil {
		return fmt.Errorf("%s: failed to write frame: %w", f.Event, err)
	}
	c.opts.Metrics.RecordFrame("out", string(f.Type))
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.dropped(gen, err)
			return
		}

		f, err := types.Decode(data)
		if err != nil {
			c.logger.Warn("Dropping malformed frame", zap.Error(err))
			continue
		}
		c.opts.Metrics.RecordFrame("in", string(f.Type))

		switch f.Type {
		case types.FrameAck, types.FrameError:
			c.acknowledge(f)
		case types.FrameEvent:
			c.dispatchRaw(f.Event, f.Args)
		default:
			c.logger.Debug("Ignoring frame", zap.String("type", string(f.Type)))
		}
	}
}

func (c *Client) acknowledge(f *types.Frame) {
	p := c.take(f.ID)
	if p == nil {
		fields := []zap.Field{zap.String("request_id", f.ID)}
		if issued, err := id.RequestID(f.ID).Issued(); err == nil {
			fields = append(fields, zap.Duration("age", time.Since(issued)))
		}
		c.logger.Debug("Dropping late ack", fields...)
		return
	}
	if f.Type == types.FrameError {
		c.finish(p, nil, &RemoteError{Event: p.event, Message: f.Error})
		return
	}
	c.finish(p, f.Args, nil)
}

// dropped handles the end of a read loop. Connections closed by Disconnect
// have already been cleaned up and are ignored.
func (c *Client) dropped(gen uint64, cause error) {
	c.mu.Lock()
	if c.gen != gen || c.conn == nil {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	reconnect := c.opts.Reconnect && !c.manual
	var ctx context.Context
	if reconnect {
		ctx, c.stopping = context.WithCancel(context.Background())
	}
	c.mu.Unlock()

	_ = conn.Close()
	if websocket.IsUnexpectedCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn("Connection lost", zap.Error(cause))
	} else {
		c.logger.Info("Connection closed by workspace", zap.Error(cause))
	}

	c.failPending(ErrDisconnected)
	c.dispatch(types.EventDisconnect, []any{ReasonTransport})

	if reconnect {
		go c.reconnectLoop(ctx)
	}
}

func (c *Client) reconnectLoop(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		wait := retryablehttp.DefaultBackoff(c.opts.ReconnectMin, c.opts.ReconnectMax, attempt, nil)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		err := c.dial(ctx)
		if err == nil {
			c.opts.Metrics.IncChannelReconnects()
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("Reconnect failed",
			zap.Int("attempt", attempt+1),
			zap.Duration("next_wait", retryablehttp.DefaultBackoff(c.opts.ReconnectMin, c.opts.ReconnectMax, attempt+1, nil)),
			zap.Error(err))
	}
}

func (c *Client) dispatch(event string, args []any) {
	raw, err := types.EncodeArgs(args...)
	if err != nil {
		c.logger.Error("Failed to encode event args", zap.String("event", event), zap.Error(err))
		return
	}
	c.dispatchRaw(event, raw)
}

func (c *Client) dispatchRaw(event string, args []json.RawMessage) {
	c.mu.Lock()
	subs := append([]subscriber(nil), c.handlers[event]...)
	c.mu.Unlock()

	if len(subs) == 0 {
		c.logger.Debug("No handler for event", zap.String("event", event))
		return
	}
	for _, s := range subs {
		s := s
		c.deliver(func() {
			if c.subscribed(event, s.id) {
				s.handler(args)
			}
		})
	}
}

func (c *Client) deliver(fn func()) {
	if !c.opts.Executor.Post(fn) {
		c.logger.Debug("Executor closed, dropping callback")
	}
}
