package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"github.com/HaiFongPan/furryfriends-cli/internal/config"
)

const userAgent = "furryfriends-cli"

// Client talks to a FurryFriends server, keeping the session cookie like a browser would
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        *cookiejar.Jar
}

// NewClient creates a new client from configuration
func NewClient(cfg *config.ServerConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: base,
		jar:     jar,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

// BaseURL returns the server root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Resolve turns a server-relative reference into an absolute URL
func (c *Client) Resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// Cookies returns the session cookies currently held for the server
func (c *Client) Cookies() []config.StoredCookie {
	cookies := c.jar.Cookies(c.baseURL)
	stored := make([]config.StoredCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, config.StoredCookie{Name: ck.Name, Value: ck.Value})
	}
	return stored
}

// RestoreCookies loads previously saved session cookies into the jar
func (c *Client) RestoreCookies(stored []config.StoredCookie) {
	if len(stored) == 0 {
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

// newRequest builds a request against a server path
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do sends the request and logs the round trip
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	fields := logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get("X-Request-ID"),
	}

	resp, err := c.httpClient.Do(req)
	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		logrus.WithFields(fields).WithError(err).Warn("request failed")
		return nil, err
	}

	fields["status"] = resp.StatusCode
	fields["final_path"] = resp.Request.URL.Path
	logrus.WithFields(fields).Debug("request completed")
	return resp, nil
}

// isJSON reports whether the response declares a JSON body
func isJSON(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// landedOn reports whether the response (after redirects) came from path
func landedOn(resp *http.Response, path string) bool {
	return resp.Request != nil && strings.TrimRight(resp.Request.URL.Path, "/") == strings.TrimRight(path, "/")
}
