// ABOUTME: WebSocket implementation of Requester for the agent gateway
// ABOUTME: Correlates JSON request/response frames by ID and forwards pushed events

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	frameTypeRequest  = "req"
	frameTypeResponse = "res"
	frameTypeEvent    = "event"

	// defaultReadLimit leaves room for data: URI avatars and file contents.
	defaultReadLimit = 8 << 20
)

type requestFrame struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type errorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// inboundFrame covers both responses and events; Type selects which fields are set.
type inboundFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *errorShape     `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Seq     int64           `json:"seq,omitempty"`
}

// Event is a server-pushed frame.
type Event struct {
	Name    string
	Seq     int64
	Payload json.RawMessage
}

// DialOptions configures Dial.
type DialOptions struct {
	// Token is sent as a bearer token on the upgrade request.
	Token string

	// RequestTimeout bounds every request that has no earlier deadline. Zero disables it.
	RequestTimeout time.Duration

	// OnEvent receives pushed events from the read loop. It must not block.
	OnEvent func(Event)

	// OnClose is called once when the connection drops, with the cause.
	OnClose func(error)

	Logger *slog.Logger
}

// Client is a Requester over one WebSocket connection.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	onEvent func(Event)
	onClose func(error)
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]chan inboundFrame
	closed  bool
	err     error
	done    chan struct{}
}

// Dial connects to the gateway at url and starts the read loop.
func Dial(ctx context.Context, url string, opts DialOptions) (*Client, error) {
	header := http.Header{}
	if opts.Token != "" {
		header.Set("Authorization", "Bearer "+opts.Token)
	}

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dialing gateway %s: %w", url, err)
	}
	conn.SetReadLimit(defaultReadLimit)

	return newClient(conn, opts), nil
}

func newClient(conn *websocket.Conn, opts DialOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "gateway-client")
	}

	c := &Client{
		conn:    conn,
		timeout: opts.RequestTimeout,
		onEvent: opts.OnEvent,
		onClose: opts.OnClose,
		logger:  logger,
		pending: make(map[string]chan inboundFrame),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Request sends one request frame and waits for the matching response.
func (c *Client) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = struct{}{}
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding %s params: %w", method, err)
	}

	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	id := uuid.NewString()
	ch, err := c.createRequest(id)
	if err != nil {
		return nil, err
	}
	defer c.closeRequest(id)

	frame := requestFrame{Type: frameTypeRequest, ID: id, Method: method, Params: rawParams}
	if err := wsjson.Write(ctx, c.conn, frame); err != nil {
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return nil, c.closeCause()
		}
		if !res.OK {
			reqErr := &RequestError{Method: method}
			if res.Error != nil {
				reqErr.Code = res.Error.Code
				reqErr.Message = res.Error.Message
			}
			return nil, reqErr
		}
		if len(res.Payload) == 0 {
			return json.RawMessage("null"), nil
		}
		return res.Payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.closeCause()
	}
}

// Done is closed when the connection has dropped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down. It is safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "dashboard closing")
	c.shutdown(ErrClosed)
	return err
}

func (c *Client) createRequest(id string) (<-chan inboundFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, c.errLocked()
	}
	ch := make(chan inboundFrame, 1)
	c.pending[id] = ch
	return ch, nil
}

func (c *Client) closeRequest(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *Client) readLoop() {
	for {
		var frame inboundFrame
		if err := wsjson.Read(context.Background(), c.conn, &frame); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.shutdown(ErrClosed)
			} else {
				c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			}
			return
		}

		switch frame.Type {
		case frameTypeResponse:
			c.handleResponse(frame)
		case frameTypeEvent:
			if c.onEvent != nil {
				c.onEvent(Event{Name: frame.Event, Seq: frame.Seq, Payload: frame.Payload})
			}
		default:
			c.logger.Debug("ignoring gateway frame", "type", frame.Type)
		}
	}
}

// handleResponse routes a response to its pending request.
// Responses for requests nobody waits on any more are logged and dropped.
func (c *Client) handleResponse(frame inboundFrame) {
	// Held across the send so shutdown cannot close ch underneath us; the send never blocks.
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.pending[frame.ID]
	if !ok {
		c.logger.Warn("received response for unknown request", "request_id", frame.ID)
		return
	}

	select {
	case ch <- frame:
	default:
		c.logger.Warn("duplicate response dropped", "request_id", frame.ID)
	}
}

func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = cause
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	close(c.done)
	onClose := c.onClose
	c.mu.Unlock()

	c.logger.Info("gateway connection closed", "cause", cause)
	if onClose != nil {
		onClose(cause)
	}
}

func (c *Client) closeCause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errLocked()
}

func (c *Client) errLocked() error {
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}
