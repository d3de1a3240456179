package transmission

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "0123456789ABCDEFGHIJKLMN"

type recordedCall struct {
	Method    string
	Arguments map[string]any
	Token     string
	User      string
	Password  string
}

// fakeDaemon speaks just enough of the RPC protocol to drive Client.
type fakeDaemon struct {
	t       *testing.T
	srv     *httptest.Server
	version string
	kbytes  int

	requests atomic.Int32

	mu    sync.Mutex
	calls []recordedCall
	// replies maps an RPC method to its "arguments" member.
	replies map[string]any
	// results overrides the "result" member per method.
	results map[string]string
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	d := &fakeDaemon{
		t:       t,
		version: "2.94 (d8e60ee44f)",
		kbytes:  1000,
		replies: map[string]any{},
		results: map[string]string{},
	}
	d.srv = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *fakeDaemon) serve(w http.ResponseWriter, r *http.Request) {
	d.requests.Add(1)

	if r.Header.Get(csrfHeader) != testToken {
		w.Header().Set(csrfHeader, testToken)
		w.WriteHeader(http.StatusConflict)
		return
	}

	body, err := io.ReadAll(r.Body)
	require.NoError(d.t, err)
	var req struct {
		Method    string         `json:"method"`
		Arguments map[string]any `json:"arguments"`
		Tag       int64          `json:"tag"`
	}
	require.NoError(d.t, json.Unmarshal(body, &req))

	user, pass, _ := r.BasicAuth()
	d.mu.Lock()
	d.calls = append(d.calls, recordedCall{
		Method:    req.Method,
		Arguments: req.Arguments,
		Token:     r.Header.Get(csrfHeader),
		User:      user,
		Password:  pass,
	})
	args, ok := d.replies[req.Method]
	result, overridden := d.results[req.Method]
	d.mu.Unlock()

	if !ok && req.Method == "session-get" {
		args = map[string]any{
			"version":     d.version,
			"rpc-version": 15,
			"units":       map[string]any{"size-bytes": d.kbytes},
		}
	}
	if !overridden {
		result = "success"
	}

	w.Header().Set("Content-Type", "application/json")
	require.NoError(d.t, json.NewEncoder(w).Encode(map[string]any{
		"result":    result,
		"arguments": args,
		"tag":       req.Tag,
	}))
}

func (d *fakeDaemon) client(opts Options) *Client {
	opts.URL = d.srv.URL + "/transmission/rpc"
	return NewClient(opts)
}

func (d *fakeDaemon) recorded() []recordedCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recordedCall(nil), d.calls...)
}

func (d *fakeDaemon) lastCall() recordedCall {
	calls := d.recorded()
	require.NotEmpty(d.t, calls)
	return calls[len(calls)-1]
}

func (d *fakeDaemon) methods() []string {
	var out []string
	for _, c := range d.recorded() {
		out = append(out, c.Method)
	}
	return out
}

func preNegotiated() Options {
	return Options{Version: "2.94", KBytes: 1000}
}

func TestExecuteCapturesSessionIDOnChallenge(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	c := d.client(Options{})

	resp, err := c.Execute(context.Background(), "session-stats", nil)
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.Equal(t, testToken, c.SessionToken())

	_, err = c.Execute(context.Background(), "session-stats", nil)
	require.NoError(t, err)

	// one challenge, then two accepted calls
	assert.Equal(t, int32(3), d.requests.Load())
	for _, call := range d.recorded() {
		assert.Equal(t, testToken, call.Token)
	}
}

func TestExecuteTokenRejectedAfterCapture(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := requests.Add(1)
		w.Header().Set(csrfHeader, "rotating"+string(rune('A'+n)))
		w.WriteHeader(http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{URL: srv.URL})
	_, err := c.Execute(context.Background(), "session-get", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenRejected)
	assert.Equal(t, int32(2), requests.Load())

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "session-get", reqErr.Method)
	assert.Equal(t, srv.URL, reqErr.URL)
}

func TestExecuteHandshakeFailsWithoutToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(Options{URL: srv.URL}).Execute(context.Background(), "session-get", nil)

	assert.ErrorIs(t, err, ErrHandshakeFailed)
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestExecuteUnauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(Options{URL: srv.URL}).Execute(context.Background(), "session-get", nil)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = NewClient(Options{URL: srv.URL, Username: "admin", Password: "nope"}).
		Execute(context.Background(), "session-get", nil)
	assert.ErrorIs(t, err, ErrAuthIncorrect)
}

func TestExecuteAuthRejectedMarkerInBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<h1>401: Unauthorized</h1>")
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(Options{URL: srv.URL}).Execute(context.Background(), "session-get", nil)

	assert.ErrorIs(t, err, ErrAuthRejected)
}

func TestExecuteUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{URL: url}).Execute(context.Background(), "session-get", nil)

	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestExecuteBadResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(Options{URL: srv.URL}).Execute(context.Background(), "session-get", nil)

	assert.ErrorIs(t, err, ErrBadResponse)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestExecuteRecordsNonSuccessResult(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.results["torrent-start"] = "no such torrent"
	c := d.client(preNegotiated())

	resp, err := c.TorrentStart(context.Background(), []int{99})

	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, "no such torrent", resp.Result)
	assert.Contains(t, c.LastError(), "no such torrent")
}

func TestExecuteSendsBasicAuth(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	c := d.client(Options{Username: "admin", Password: "secret", Version: "3.00", KBytes: 1000})

	_, err := c.SessionStats(context.Background())
	require.NoError(t, err)

	call := d.lastCall()
	assert.Equal(t, "admin", call.User)
	assert.Equal(t, "secret", call.Password)
}

func TestExecuteCleansOutgoingArguments(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	c := d.client(preNegotiated())
	ctx := context.Background()

	_, err := c.TorrentRemove(ctx, []int{1, 2}, false)
	require.NoError(t, err)
	call := d.lastCall()
	assert.Equal(t, "torrent-remove", call.Method)
	assert.Equal(t, []any{1.0, 2.0}, call.Arguments["ids"])
	assert.NotContains(t, call.Arguments, "delete-local-data")

	_, err = c.TorrentGet(ctx, nil, nil)
	require.NoError(t, err)
	call = d.lastCall()
	assert.NotContains(t, call.Arguments, "ids")
	assert.Len(t, call.Arguments["fields"], len(defaultGetFields))

	_, err = c.SessionStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, d.lastCall().Arguments)
}

func TestClientNegotiatesLazilyOnce(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.version = "2.33 (14640)"
	d.kbytes = 1024
	c := d.client(Options{})

	assert.Empty(t, d.recorded())
	assert.Equal(t, EpochLegacy, c.Epoch())

	ctx := context.Background()
	_, err := c.TorrentStart(ctx, []int{1})
	require.NoError(t, err)
	_, err = c.TorrentStop(ctx, []int{1})
	require.NoError(t, err)

	assert.Equal(t, []string{"session-get", "torrent-start", "torrent-stop"}, d.methods())
	assert.Equal(t, "2.33 (14640)", c.Version())
	assert.Equal(t, 1024, c.KBytes())
	assert.Equal(t, EpochLegacy, c.Epoch())

	fields := d.recorded()[0].Arguments["fields"]
	assert.ElementsMatch(t, []any{"version", "rpc-version", "units"}, fields)
}

func TestClientSkipsNegotiationWhenPreset(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	c := d.client(Options{Version: "4.0.5", KBytes: 1000})

	assert.Equal(t, EpochRecent, c.Epoch())

	_, err := c.TorrentVerify(context.Background(), []int{3})
	require.NoError(t, err)

	assert.Equal(t, []string{"torrent-verify"}, d.methods())
}

func TestClientNegotiationFailure(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.results["session-get"] = "busy"
	c := d.client(Options{})

	_, err := c.TorrentStart(context.Background(), []int{1})

	require.Error(t, err)
	assert.Equal(t, []string{"session-get"}, d.methods())
}

func TestFetchTorrentsKeysByHashAndNormalizes(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.replies["torrent-get"] = map[string]any{
		"torrents": []any{
			map[string]any{"id": 1, "hashString": "aaa", "name": "one", "status": 6, "percentDone": 1.0,
				"totalSize": 1000, "downloadedEver": 500, "uploadRatio": -1, "rateUpload": 12},
			map[string]any{"id": 2, "hashString": "bbb", "name": "two", "status": 0},
		},
	}
	c := d.client(Options{})

	torrents, err := c.FetchTorrents(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, torrents, 2)
	one := torrents["aaa"]
	assert.Equal(t, StatusSeeding, one.Status)
	assert.True(t, one.Running)
	assert.Equal(t, 100.0, one.PercentDone)
	assert.Equal(t, int64(1000), one.DownTotal)
	assert.Equal(t, 0.0, one.Sharing)
	assert.Equal(t, StatusStopped, torrents["bbb"].Status)

	assert.Equal(t, torrents, c.Torrents())
	assert.Equal(t, []string{"session-get", "torrent-get"}, d.methods())

	fields := d.lastCall().Arguments["fields"]
	assert.Len(t, fields, len(torrentFields))

	moving := c.FilterTorrents(&Criteria{Speed: true})
	assert.Len(t, moving, 1)
	assert.Contains(t, moving, "aaa")

	running := true
	filtered, err := c.FetchFiltered(context.Background(), []int{1, 2}, &Criteria{Running: &running})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, []any{1.0, 2.0}, d.lastCall().Arguments["ids"])
}

func TestFetchTorrentsNonSuccessYieldsEmptyCollection(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.results["torrent-get"] = "error"
	c := d.client(preNegotiated())

	torrents, err := c.FetchTorrents(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, torrents)
	assert.NotEmpty(t, c.LastError())
}

func TestTorrentAddNeedsExactlyOneSource(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	c := d.client(preNegotiated())
	ctx := context.Background()

	_, err := c.TorrentAdd(ctx, AddRequest{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.TorrentAdd(ctx, AddRequest{Filename: "magnet:?xt=urn:btih:abc", Metainfo: "ZGF0YQ=="})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, d.recorded())

	_, err = c.TorrentAdd(ctx, AddRequest{
		Filename: "magnet:?xt=urn:btih:abc",
		Paused:   true,
		Options:  map[string]any{"peer-limit": 30},
	})
	require.NoError(t, err)
	call := d.lastCall()
	assert.Equal(t, "torrent-add", call.Method)
	assert.Equal(t, map[string]any{
		"filename":   "magnet:?xt=urn:btih:abc",
		"paused":     true,
		"peer-limit": 30.0,
	}, call.Arguments)
}

func TestTorrentAddFileSendsMetainfo(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.torrent")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	d := newFakeDaemon(t)
	c := d.client(preNegotiated())

	_, err := c.TorrentAddFile(context.Background(), path, "/downloads", false)
	require.NoError(t, err)

	call := d.lastCall()
	assert.Equal(t, "ZGF0YQ==", call.Arguments["metainfo"])
	assert.Equal(t, "/downloads", call.Arguments["download-dir"])
	assert.NotContains(t, call.Arguments, "filename")
	assert.NotContains(t, call.Arguments, "paused")
}

func TestTorrentSetAndMove(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	c := d.client(preNegotiated())
	ctx := context.Background()

	_, err := c.TorrentSet(ctx, []int{4}, map[string]any{"downloadLimit": 0, "files-wanted": []int{}})
	require.NoError(t, err)
	call := d.lastCall()
	assert.Equal(t, map[string]any{"ids": []any{4.0}, "downloadLimit": 0.0}, call.Arguments)

	_, err = c.TorrentSet(ctx, []int{4}, map[string]any{"ids": []int{5}, "uploadLimited": true})
	require.NoError(t, err)
	assert.Equal(t, []any{5.0}, d.lastCall().Arguments["ids"])

	_, err = c.TorrentMove(ctx, []int{4}, "/archive", true)
	require.NoError(t, err)
	call = d.lastCall()
	assert.Equal(t, "torrent-set-location", call.Method)
	assert.Equal(t, map[string]any{"ids": []any{4.0}, "location": "/archive", "move": true}, call.Arguments)
}

func TestSessionOperations(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.replies["free-space"] = map[string]any{"path": "/data", "size-bytes": 123456789}
	c := d.client(preNegotiated())
	ctx := context.Background()

	resp, err := c.SessionGet(ctx, "version")
	require.NoError(t, err)
	assert.Equal(t, "2.94 (d8e60ee44f)", resp.Arguments.Get("version").String())
	assert.Equal(t, 1000.0, resp.Arguments.Get("units").Get("size_bytes").Float())

	_, err = c.SessionSet(ctx, map[string]any{"speed-limit-down": 500, "alt-speed-enabled": false})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"speed-limit-down": 500.0}, d.lastCall().Arguments)

	free, err := c.FreeSpace(ctx, "/data")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), free)

	assert.True(t, c.IsRunning(ctx))
}

func TestIsRunningFalseWhenDaemonIsGone(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.False(t, NewClient(Options{URL: url}).IsRunning(context.Background()))
}
