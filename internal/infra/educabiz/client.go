// Package educabiz is an HTTP client for the daycare portal. One Client
// holds the cookie session of one guardian login.
package educabiz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const maxPhotoBytes = 10 << 20

// StatusError is returned for non-2xx portal replies
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("educabiz: %s %s: http %d", e.Method, e.Path, e.Code)
}

// Unauthenticated reports whether the session was rejected
func (e *StatusError) Unauthenticated() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// Entry is one check-in or check-out stamp
type Entry struct {
	Time    string `json:"time"`
	Fetcher string `json:"fetcher"`
}

// PresenceRecord is the portal's daily record of one child
type PresenceRecord struct {
	ID       json.RawMessage `json:"id"`
	IsAbsent *bool           `json:"isAbsent"`
	Notes    string          `json:"notes"`
	HasIn    *bool           `json:"hasIn"`
	HasOut   *bool           `json:"hasOut"`
	In       *Entry          `json:"in"`
	Out      *Entry          `json:"out"`
}

// RecordID returns the identity marker as text, nil when absent
func (r *PresenceRecord) RecordID() *string {
	raw := strings.TrimSpace(string(r.ID))
	if raw == "" || raw == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		return &s
	}
	return &raw
}

// HomeChild is one child listed on the home page
type HomeChild struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// Home is the reply of GET /home
type Home struct {
	SchoolName string               `json:"schoolname"`
	Children   map[string]HomeChild `json:"children"`
}

// ChildPresence holds the records of one child
type ChildPresence struct {
	Presence []PresenceRecord `json:"presence"`
}

// Presence is the reply of GET /presence
type Presence struct {
	Children map[string]ChildPresence `json:"children"`
}

// Client talks to the portal as one guardian
type Client struct {
	baseURL  *url.URL
	username string
	password string
	httpc    *http.Client

	mu       sync.Mutex
	loggedIn bool
}

// New creates a client; nothing is sent until the first call
func New(baseURL, username, password string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("educabiz: base url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "cookie jar")
	}
	return &Client{
		baseURL:  u,
		username: username,
		password: password,
		httpc: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Login opens a new session
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	resp, err := c.send(ctx, http.MethodPost, "/login", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.loggedIn = true
	return nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}
	return c.loginLocked(ctx)
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}

// Home fetches the children of the account
func (c *Client) Home(ctx context.Context) (*Home, error) {
	var home Home
	if err := c.call(ctx, http.MethodGet, "/home", nil, &home); err != nil {
		return nil, err
	}
	return &home, nil
}

// Presence fetches today's records of every child
func (c *Client) Presence(ctx context.Context) (*Presence, error) {
	var presence Presence
	if err := c.call(ctx, http.MethodGet, "/presence", nil, &presence); err != nil {
		return nil, err
	}
	return &presence, nil
}

// CheckIn checks the child in and returns the updated record
func (c *Client) CheckIn(ctx context.Context, childID string) (*PresenceRecord, error) {
	return c.presenceAction(ctx, "/presence/checkin", url.Values{"child": {childID}})
}

// CheckOut checks the child out and returns the updated record
func (c *Client) CheckOut(ctx context.Context, childID string) (*PresenceRecord, error) {
	return c.presenceAction(ctx, "/presence/checkout", url.Values{"child": {childID}})
}

// Absent marks the child absent for today
func (c *Client) Absent(ctx context.Context, childID, notes string) (*PresenceRecord, error) {
	return c.presenceAction(ctx, "/presence/absent", url.Values{"child": {childID}, "notes": {notes}})
}

func (c *Client) presenceAction(ctx context.Context, path string, form url.Values) (*PresenceRecord, error) {
	var record PresenceRecord
	if err := c.call(ctx, http.MethodPost, path, form, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Photo downloads a photo given as an absolute or base-relative URL
func (c *Client) Photo(ctx context.Context, photoURL string) ([]byte, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		c.checkSession(err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read photo")
	}
	return data, nil
}

// call runs one authenticated request. A rejected session is dropped so
// the next call logs in again; the failed call is not retried.
func (c *Client) call(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, form)
	if err != nil {
		c.checkSession(err)
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func (c *Client) checkSession(err error) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Unauthenticated() {
		c.invalidate()
	}
}

// send issues a request and returns the response for 2xx replies only
func (c *Client) send(ctx context.Context, method, ref string, form url.Values) (*http.Response, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, target.Path)
	}
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Method: method, Path: target.Path, Code: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) resolve(ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, errors.Wrap(err, "parse url")
	}
	if r.IsAbs() {
		return r, nil
	}
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(r.Path, "/")
	u.RawQuery = r.RawQuery
	return &u, nil
}
