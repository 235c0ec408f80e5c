package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/protocol"
)

// ErrServer is returned when the server answers with an error response.
var ErrServer = errors.New("server error")

type Options struct {
	Timeout time.Duration
}

// Client talks to a coordination server. Callers should run every test when
// a call fails.
type Client struct {
	url  string
	http *http.Client
}

func New(url string, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}

	return &Client{
		url:  url,
		http: &http.Client{Timeout: opts.Timeout},
	}
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) DisabledTests(ctx context.Context, project string, digest string) ([]string, error) {
	var result []string
	err := c.call(ctx, protocol.NewDisabledTests(project, digest), &result)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []string{}
	}
	return result, nil
}

func (c *Client) AddReport(ctx context.Context, project string, test string, classes []string) error {
	return c.call(ctx, protocol.NewAddReport(project, test, classes), nil)
}

func (c *Client) WriteReport(ctx context.Context, project string, digest string) error {
	return c.call(ctx, protocol.NewWriteReport(project, digest), nil)
}

func (c *Client) Log(ctx context.Context, level string, message string) error {
	return c.call(ctx, protocol.NewLog(level, message), nil)
}

func (c *Client) call(ctx context.Context, req *protocol.Request, result any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrapf(err, "error encoding %v", req.Request)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "error creating %v", req.Request)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "error sending %v to %v", req.Request, c.url)
	}
	defer httpResp.Body.Close()

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	if err != nil {
		return errors.Wrapf(err, "error reading response of %v (HTTP %v)", req.Request, httpResp.StatusCode)
	}

	if resp.Error != "" {
		return errors.Wrapf(ErrServer, "%v: %v", req.Request, resp.Error)
	}
	if httpResp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrServer, "%v: HTTP %v", req.Request, httpResp.StatusCode)
	}

	if result != nil {
		err = json.Unmarshal(resp.Result, result)
		if err != nil {
			return errors.Wrapf(err, "error decoding result of %v", req.Request)
		}
	}

	return nil
}
