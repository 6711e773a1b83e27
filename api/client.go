package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL   = "http://127.0.0.1:8000/api"
	defaultUserAgent = "umrah-desk/1.0"
)

// RequestContext carries the per-session inputs every backend call needs.
// Build it once at the command or HTTP boundary and pass it down.
type RequestContext struct {
	OrganizationID int64
	Token          string
}

func (rc RequestContext) organization() string {
	return strconv.FormatInt(rc.OrganizationID, 10)
}

type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Log       *logrus.Logger
}

func NewClient() *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 15 * time.Second},
		BaseURL:   DefaultBaseURL,
		UserAgent: defaultUserAgent,
		Log:       logrus.StandardLogger(),
	}
}

func (c *Client) newRequest(ctx context.Context, rc RequestContext, method, path string, query url.Values, payload any) (*http.Request, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	path = strings.TrimPrefix(path, "/")
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + path
	if query != nil {
		base.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	// The backend owns authentication; an empty token is still sent and a 401
	// comes back as an ordinary APIError.
	req.Header.Set("Authorization", "Bearer "+rc.Token)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	entry := c.logger().WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get("X-Request-ID"),
	})

	resp, err := c.HTTP.Do(req)
	if err != nil {
		entry.WithError(err).Debug("backend request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	entry.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

func (c *Client) doJSON(req *http.Request, dest any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, dest)
}

// doList decodes a collection response that may be a bare array, a page
// envelope, or a single object.
func (c *Client) doList(req *http.Request, dest any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	items, err := normalizeList(body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return json.Unmarshal([]byte(items), dest)
}

func (c *Client) doStatus(req *http.Request) error {
	_, err := c.do(req)
	return err
}

func (c *Client) logger() *logrus.Logger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
