package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CheckAuth asks the session-status endpoint whether the current session is authenticated
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, PathCheckAuth, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return false, &RequestError{Op: "check auth", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, &StatusError{Op: "check auth", Code: resp.StatusCode}
	}

	var status AuthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&status); err != nil {
		return false, &RequestError{Op: "decode auth status", Err: err}
	}
	return status.Authenticated, nil
}

// Login posts the login form
func (c *Client) Login(ctx context.Context, fields url.Values) (*FormOutcome, error) {
	return c.postForm(ctx, "login", PathLogin, fields)
}

// Register posts the registration form
func (c *Client) Register(ctx context.Context, fields url.Values) (*FormOutcome, error) {
	return c.postForm(ctx, "register", PathRegister, fields)
}

// Logout ends the server session and drops the cookies the server expires
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, PathLogout, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return &RequestError{Op: "logout", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Op: "logout", Code: resp.StatusCode}
	}
	return nil
}

// postForm sends an asynchronous-style form post and decodes the structured outcome
func (c *Client) postForm(ctx context.Context, op, path string, fields url.Values) (*FormOutcome, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(fields.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	// Failures may still carry a JSON body with the reason
	if !isJSON(resp) {
		return nil, &StatusError{Op: op, Code: resp.StatusCode}
	}

	var outcome FormOutcome
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&outcome); err != nil {
		return nil, &RequestError{Op: fmt.Sprintf("decode %s response", op), Err: err}
	}
	return &outcome, nil
}
