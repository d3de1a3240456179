package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/jakenesler/trctl/internal"
)

const (
	// DefaultURL is where a stock transmission-daemon listens.
	DefaultURL = "http://127.0.0.1:9091/transmission/rpc"

	defaultConnectTimeout = time.Second
	maxRedirects          = 2
	authRejectedMarker    = "Unauthorized"
)

// Options configures a Client. Version and KBytes may be supplied to skip
// the session-get negotiation; both must be set for that.
type Options struct {
	URL            string
	Username       string
	Password       string
	Version        string
	KBytes         int
	ConnectTimeout time.Duration
	// HTTPClient replaces the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client is a Transmission RPC client with CSRF token handling.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client
	session  Session
	tag      atomic.Int64

	mu         sync.Mutex
	lastError  string
	negotiated bool
	version    string
	kbytes     int
	epoch      Epoch
	torrents   map[string]Torrent
}

// NewClient creates a new Transmission RPC client. It does no I/O.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.ConnectTimeout
		if timeout <= 0 {
			timeout = defaultConnectTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
		httpClient = &http.Client{
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return errors.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}

	c := &Client{
		url:      opts.URL,
		username: opts.Username,
		password: opts.Password,
		http:     httpClient,
		torrents: map[string]Torrent{},
	}
	if opts.Version != "" && opts.KBytes > 0 {
		c.setNegotiated(opts.Version, opts.KBytes)
	}
	return c
}

// URL returns the RPC endpoint.
func (c *Client) URL() string { return c.url }

// SessionToken returns the CSRF session id captured so far.
func (c *Client) SessionToken() string { return c.session.Token() }

// LastError returns the JSON of the last response whose result was not
// "success", or "".
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Execute sends one RPC call. A 409 challenge without a held session id is
// answered once by capturing the id and resending; any other failure below
// the RPC level comes back as a *RequestError. A response whose result is
// not "success" is returned with a nil error and recorded in LastError.
func (c *Client) Execute(ctx context.Context, method string, args map[string]any) (*Response, error) {
	data, err := json.Marshal(rpcRequest{
		Method:    method,
		Arguments: CleanOutgoing(args),
		Tag:       c.tag.Add(1),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling request")
	}

	// The second pass only happens after a token was captured, and a 409
	// with a token held is fatal, so this never needs a third.
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "creating request")
		}
		req.Header.Set("Content-Type", "application/json")
		token := c.session.Token()
		if token != "" {
			req.Header.Set(csrfHeader, token)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, c.fail(ErrUnreachable, method, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, c.fail(ErrUnreachable, method, err)
		}

		if bytes.Contains(body, []byte(authRejectedMarker)) {
			return nil, c.fail(ErrAuthRejected, method, nil)
		}

		switch {
		case resp.StatusCode == http.StatusConflict && token == "":
			if _, err := c.session.CaptureFromChallenge(resp.Header); err != nil {
				return nil, c.fail(ErrHandshakeFailed, method, err)
			}
			internal.Debugf("transmission: captured session id from %s", c.url)
			continue
		case resp.StatusCode == http.StatusConflict:
			return nil, c.fail(ErrTokenRejected, method, errors.Errorf("session id %q", token))
		case resp.StatusCode == http.StatusUnauthorized && c.username == "":
			return nil, c.fail(ErrAuthRequired, method, nil)
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, c.fail(ErrAuthIncorrect, method, nil)
		}

		return c.decode(method, resp.StatusCode, body)
	}

	return nil, c.fail(ErrHandshakeFailed, method, errors.New("no attempts left"))
}

func (c *Client) decode(method string, status int, body []byte) (*Response, error) {
	var out Response
	if err := decodeJSON(body, &out); err != nil {
		return nil, c.fail(ErrBadResponse, method, errors.Wrapf(err, "HTTP %d", status))
	}
	if out.Result != resultSuccess {
		c.mu.Lock()
		c.lastError = strings.TrimSpace(string(body))
		c.mu.Unlock()
		internal.Warnf("transmission: %s returned %q", method, out.Result)
	}
	return &out, nil
}

// Negotiate learns the daemon version and unit size with session-get,
// unless they were supplied in Options or learned before. The status epoch
// is fixed from then on.
func (c *Client) Negotiate(ctx context.Context) error {
	c.mu.Lock()
	done := c.negotiated
	c.mu.Unlock()
	if done {
		return nil
	}

	resp, err := c.Execute(ctx, "session-get", map[string]any{
		"fields": []any{"version", "rpc-version", "units"},
	})
	if err != nil {
		return err
	}
	if !resp.Success() {
		return errors.Errorf("session-get: %s", resp.Result)
	}
	version := resp.Arguments.Get("version").String()
	kbytes := int(resp.Arguments.Get("units").Get("size_bytes").Int())
	c.setNegotiated(version, kbytes)
	internal.Logf("transmission %s at %s (%s status numbering, %d bytes/kB)", version, c.url, c.Epoch(), kbytes)
	return nil
}

func (c *Client) setNegotiated(version string, kbytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.negotiated {
		return
	}
	c.version = version
	c.kbytes = kbytes
	c.epoch = EpochForVersion(version)
	c.negotiated = true
}

// Epoch returns the status numbering in use. It is EpochLegacy until the
// client negotiated.
func (c *Client) Epoch() Epoch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Version returns the daemon version string, if known.
func (c *Client) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// KBytes returns the daemon's kilo unit, 1000 or 1024, or 0 if unknown.
func (c *Client) KBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kbytes
}
