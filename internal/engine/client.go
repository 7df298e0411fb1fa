package engine

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/rs/zerolog"
)

var (
	errBroken = errors.New("engine connection broken")
	// ErrExited reports that the engine closed its end before answering.
	ErrExited = errors.New("engine exited")
)

// Client is a target.Target that forwards every call over the wire.
type Client struct {
	logger zerolog.Logger
	enc    *json.Encoder
	out    io.Writer
	in     *bufio.Reader

	mu      sync.Mutex
	nextID  int64
	broken  bool
	closed  bool
	onClose func() error
}

// NewClient returns a client that writes requests to w and reads
// responses from r. If w is an io.Closer it is closed by Close.
func NewClient(r io.Reader, w io.Writer, logger zerolog.Logger) *Client {
	return &Client{
		logger: logging.WithComponent(logger, "engine-client"),
		enc:    json.NewEncoder(w),
		out:    w,
		in:     bufio.NewReaderSize(r, 1<<20),
	}
}

func (c *Client) Navigate(ctx context.Context, source string, vp target.Viewport) error {
	_, err := c.call(ctx, MethodNavigate, navigateParams{Source: source, Width: vp.Width, Height: vp.Height})
	return err
}

func (c *Client) Reinitialize(ctx context.Context, cfg target.Config) error {
	_, err := c.call(ctx, MethodConfigure, cfg.Flatten())
	return err
}

func (c *Client) LoadOverlay(ctx context.Context, ov target.Overlay) error {
	_, err := c.call(ctx, MethodOverlay, overlayParams{Name: ov.Name, URL: ov.DataURL()})
	return err
}

func (c *Client) InjectFrame(ctx context.Context, f report.Frame) error {
	_, err := c.call(ctx, MethodInject, f)
	return err
}

func (c *Client) Redraw(ctx context.Context) error {
	_, err := c.call(ctx, MethodRedraw, nil)
	return err
}

func (c *Client) Capture(ctx context.Context) ([]byte, error) {
	resp, err := c.call(ctx, MethodCapture, nil)
	if err != nil {
		return nil, err
	}
	if resp.Image == "" {
		return nil, &RemoteError{Method: MethodCapture, Message: "empty image"}
	}
	img, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("decoding captured image: %w", err)
	}
	return img, nil
}

// Close ends the session. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if wc, ok := c.out.(io.Closer); ok {
		if err := wc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.onClose != nil {
		if err := c.onClose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// call sends one request and waits for its response. A cancelled context
// abandons the in-flight exchange and leaves the client unusable.
func (c *Client) call(ctx context.Context, method string, params any) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.broken {
		return Response{}, errBroken
	}

	req := Request{ID: c.nextID, Method: method}
	c.nextID++
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Response{}, fmt.Errorf("encoding %s params: %w", method, err)
		}
		req.Params = raw
	}

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := c.roundTrip(req)
		done <- result{resp, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		c.broken = true
		return Response{}, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		c.broken = true
		return Response{}, res.err
	}
	if !res.resp.OK {
		return res.resp, &RemoteError{Method: method, Message: res.resp.Error}
	}
	return res.resp, nil
}

func (c *Client) roundTrip(req Request) (Response, error) {
	if err := c.enc.Encode(req); err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
			return Response{}, fmt.Errorf("%w during %s", ErrExited, req.Method)
		}
		return Response{}, fmt.Errorf("sending %s: %w", req.Method, err)
	}
	line, err := c.in.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) == 0 {
			return Response{}, fmt.Errorf("%w during %s", ErrExited, req.Method)
		}
		if !errors.Is(err, io.EOF) {
			return Response{}, fmt.Errorf("reading %s response: %w", req.Method, err)
		}
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("parsing %s response: %w", req.Method, err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("response id %d does not match request %d", resp.ID, req.ID)
	}
	c.logger.Debug().Str("method", req.Method).Int64("id", req.ID).Msg("engine call")
	return resp, nil
}
