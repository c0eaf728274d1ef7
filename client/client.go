// Package client is the typed caller side of the RPC protocol. Calls issued
// within a short window are sent to the server as one batch request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/internal/util"
)

const (
	DefaultAuthorization = "Bearer 123"
	DefaultBatchWait     = 10 * time.Millisecond
	DefaultMaxBatch      = 16
	DefaultTimeout       = 5 * time.Second
)

// RemoteError is an error reported by the server for one call.
type RemoteError struct {
	Status int
	api.ErrorBody
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Procedure != "" {
		return fmt.Sprintf("%s: %s: %s", e.Procedure, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout bounds each round-trip, batched or not.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithHeader sets a header sent with every call, replacing any default.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithBatchWait sets how long the first queued call waits for company.
// Zero or less sends every call on its own.
func WithBatchWait(d time.Duration) Option {
	return func(c *Client) { c.batchWait = d }
}

// WithMaxBatch caps the calls per batch; a full batch is sent at once.
// Values above api.MaxBatchCalls are lowered to it, since the server
// rejects larger batches whole.
func WithMaxBatch(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBatch = min(n, api.MaxBatchCalls)
		}
	}
}

type Client struct {
	baseURL   string
	hc        *http.Client
	headers   http.Header
	batchWait time.Duration
	maxBatch  int

	mu      sync.Mutex
	pending []*call
	timer   *time.Timer
}

type outcome struct {
	result json.RawMessage
	err    error
}

type call struct {
	id        string
	procedure string
	input     json.RawMessage
	done      chan outcome // buffered, written once
}

func (cl *call) finish(o outcome) { cl.done <- o }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		hc:        &http.Client{Timeout: DefaultTimeout},
		headers:   http.Header{},
		batchWait: DefaultBatchWait,
		maxBatch:  DefaultMaxBatch,
	}
	c.headers.Set(api.HeaderAuthorization, DefaultAuthorization)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes procedure with in and decodes the result into out (which may
// be nil to discard it).
func (c *Client) Call(ctx context.Context, procedure string, in, out any) error {
	input, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s input: %w", procedure, err)
	}
	cl := &call{
		id:        util.NewID(),
		procedure: procedure,
		input:     input,
		done:      make(chan outcome, 1),
	}

	if c.batchWait <= 0 {
		result, err := c.sendOne(ctx, cl)
		return decodeResult(procedure, result, err, out)
	}

	c.enqueue(cl)
	select {
	case o := <-cl.done:
		return decodeResult(procedure, o.result, o.err, out)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decodeResult(procedure string, result json.RawMessage, err error, out any) error {
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", procedure, err)
	}
	return nil
}

// Flush sends queued calls now instead of waiting for the batch window.
func (c *Client) Flush() {
	c.mu.Lock()
	batch := c.takeLocked()
	c.mu.Unlock()
	c.send(batch)
}

func (c *Client) enqueue(cl *call) {
	c.mu.Lock()
	c.pending = append(c.pending, cl)
	if len(c.pending) >= c.maxBatch {
		batch := c.takeLocked()
		c.mu.Unlock()
		go c.send(batch)
		return
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.batchWait, c.Flush)
	}
	c.mu.Unlock()
}

func (c *Client) takeLocked() []*call {
	batch := c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return batch
}

// send runs detached from any single caller's context; the http.Client
// timeout bounds it.
func (c *Client) send(batch []*call) {
	switch len(batch) {
	case 0:
		return
	case 1:
		result, err := c.sendOne(context.Background(), batch[0])
		batch[0].finish(outcome{result: result, err: err})
		return
	}

	results, err := c.sendBatch(context.Background(), batch)
	for _, cl := range batch {
		if err != nil {
			cl.finish(outcome{err: err})
			continue
		}
		r, ok := results[cl.id]
		switch {
		case !ok:
			cl.finish(outcome{err: fmt.Errorf("%s: no result in batch response", cl.procedure)})
		case r.Error != nil:
			cl.finish(outcome{err: &RemoteError{Status: http.StatusOK, ErrorBody: *r.Error}})
		default:
			cl.finish(outcome{result: r.Result})
		}
	}
}

func (c *Client) sendOne(ctx context.Context, cl *call) (json.RawMessage, error) {
	resp, err := c.post(ctx, "/rpc/"+url.PathEscape(cl.procedure), cl.input)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", cl.procedure, err)
	}
	defer resp.Body.Close()

	var body api.CallResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	switch {
	case decodeErr == nil && body.Error != nil:
		return nil, &RemoteError{Status: resp.StatusCode, ErrorBody: *body.Error}
	case resp.StatusCode != http.StatusOK:
		return nil, &RemoteError{Status: resp.StatusCode, ErrorBody: api.ErrorBody{Procedure: cl.procedure}}
	case decodeErr != nil:
		return nil, fmt.Errorf("call %s: decode response: %w", cl.procedure, decodeErr)
	}
	return body.Result, nil
}

func (c *Client) sendBatch(ctx context.Context, batch []*call) (map[string]api.BatchResult, error) {
	req := make([]api.BatchCall, 0, len(batch))
	for _, cl := range batch {
		req = append(req, api.BatchCall{ID: cl.id, Procedure: cl.procedure, Input: cl.input})
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	resp, err := c.post(ctx, "/rpc", b)
	if err != nil {
		return nil, fmt.Errorf("batch of %d: %w", len(batch), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body api.CallResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != nil {
			return nil, &RemoteError{Status: resp.StatusCode, ErrorBody: *body.Error}
		}
		return nil, &RemoteError{Status: resp.StatusCode}
	}

	var results []api.BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	byID := make(map[string]api.BatchResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	return byID, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = c.headers.Clone()
	req.Header.Set("Content-Type", "application/json")
	return c.hc.Do(req)
}

// Procedures fetches the server's procedure catalogue.
func (c *Client) Procedures(ctx context.Context) ([]api.ProcedureInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rpc", nil)
	if err != nil {
		return nil, err
	}
	req.Header = c.headers.Clone()

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Status: resp.StatusCode}
	}
	var infos []api.ProcedureInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// IsCode reports whether err is a RemoteError with the given code.
func IsCode(err error, code string) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == code
}
