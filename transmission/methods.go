package transmission

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var defaultGetFields = []string{"id", "name", "status", "doneDate", "haveValid", "totalSize"}

// call negotiates on first use and then executes method.
func (c *Client) call(ctx context.Context, method string, args map[string]any) (*Response, error) {
	if err := c.Negotiate(ctx); err != nil {
		return nil, err
	}
	return c.Execute(ctx, method, args)
}

func idList(ids []int) []any {
	return lo.Map(ids, func(id int, _ int) any { return id })
}

// TorrentStart starts torrents by ID.
func (c *Client) TorrentStart(ctx context.Context, ids []int) (*Response, error) {
	return c.call(ctx, "torrent-start", map[string]any{"ids": idList(ids)})
}

// TorrentStop stops torrents by ID.
func (c *Client) TorrentStop(ctx context.Context, ids []int) (*Response, error) {
	return c.call(ctx, "torrent-stop", map[string]any{"ids": idList(ids)})
}

// TorrentReannounce asks trackers for more peers.
func (c *Client) TorrentReannounce(ctx context.Context, ids []int) (*Response, error) {
	return c.call(ctx, "torrent-reannounce", map[string]any{"ids": idList(ids)})
}

// TorrentVerify verifies torrents by ID.
func (c *Client) TorrentVerify(ctx context.Context, ids []int) (*Response, error) {
	return c.call(ctx, "torrent-verify", map[string]any{"ids": idList(ids)})
}

// TorrentGet fetches torrents by ID, all of them when ids is empty. Without
// fields it asks for id, name, status, doneDate, haveValid and totalSize.
func (c *Client) TorrentGet(ctx context.Context, ids []int, fields []string) (*Response, error) {
	if len(fields) == 0 {
		fields = defaultGetFields
	}
	return c.call(ctx, "torrent-get", map[string]any{
		"fields": lo.Map(fields, func(f string, _ int) any { return f }),
		"ids":    idList(ids),
	})
}

// TorrentSet changes torrent properties such as downloadLimit, files-wanted
// or seedRatioLimit. ids is used unless args carries its own "ids".
func (c *Client) TorrentSet(ctx context.Context, ids []int, args map[string]any) (*Response, error) {
	merged := make(map[string]any, len(args)+1)
	for k, v := range args {
		merged[k] = v
	}
	if _, ok := merged["ids"]; !ok {
		merged["ids"] = idList(ids)
	}
	return c.call(ctx, "torrent-set", merged)
}

// TorrentAdd adds a torrent from a location or from inline metainfo.
func (c *Client) TorrentAdd(ctx context.Context, req AddRequest) (*Response, error) {
	if (req.Filename == "") == (req.Metainfo == "") {
		return nil, invalidArgument("torrent-add needs exactly one of filename and metainfo")
	}
	args := make(map[string]any, len(req.Options)+4)
	for k, v := range req.Options {
		args[k] = v
	}
	args["download-dir"] = req.DownloadDir
	args["filename"] = req.Filename
	args["metainfo"] = req.Metainfo
	args["paused"] = req.Paused
	return c.call(ctx, "torrent-add", args)
}

// TorrentAddFile reads a local .torrent file and adds it as metainfo.
func (c *Client) TorrentAddFile(ctx context.Context, path, downloadDir string, paused bool) (*Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return c.TorrentAdd(ctx, AddRequest{
		Metainfo:    base64.StdEncoding.EncodeToString(data),
		DownloadDir: downloadDir,
		Paused:      paused,
	})
}

// TorrentRemove removes torrents, optionally deleting their data.
func (c *Client) TorrentRemove(ctx context.Context, ids []int, deleteLocalData bool) (*Response, error) {
	return c.call(ctx, "torrent-remove", map[string]any{
		"ids":               idList(ids),
		"delete-local-data": deleteLocalData,
	})
}

// TorrentMove relocates torrent content. With moveExisting false the daemon
// looks for the data at location instead of moving it there.
func (c *Client) TorrentMove(ctx context.Context, ids []int, location string, moveExisting bool) (*Response, error) {
	return c.call(ctx, "torrent-set-location", map[string]any{
		"ids":      idList(ids),
		"location": location,
		"move":     moveExisting,
	})
}

// SessionGet returns session settings, restricted to fields when given.
func (c *Client) SessionGet(ctx context.Context, fields ...string) (*Response, error) {
	var args map[string]any
	if len(fields) > 0 {
		args = map[string]any{"fields": lo.Map(fields, func(f string, _ int) any { return f })}
	}
	return c.call(ctx, "session-get", args)
}

// SessionSet changes session settings.
func (c *Client) SessionSet(ctx context.Context, args map[string]any) (*Response, error) {
	return c.call(ctx, "session-set", args)
}

// SessionStats returns transfer statistics.
func (c *Client) SessionStats(ctx context.Context) (*Response, error) {
	return c.call(ctx, "session-stats", nil)
}

// FreeSpace returns free space at a given path on the daemon host.
func (c *Client) FreeSpace(ctx context.Context, path string) (int64, error) {
	resp, err := c.call(ctx, "free-space", map[string]any{"path": path})
	if err != nil {
		return 0, err
	}
	if !resp.Success() {
		return 0, errors.Errorf("free-space: %s", resp.Result)
	}
	return resp.Arguments.Get("size_bytes").Int(), nil
}

// IsRunning reports whether the daemon answers session-get successfully.
func (c *Client) IsRunning(ctx context.Context) bool {
	resp, err := c.Execute(ctx, "session-get", nil)
	return err == nil && resp.Success()
}

// FetchTorrents loads the given torrents, all when ids is empty, keyed by
// hash. The result also replaces the client's cached collection.
func (c *Client) FetchTorrents(ctx context.Context, ids []int) (map[string]Torrent, error) {
	resp, err := c.TorrentGet(ctx, ids, torrentFields)
	if err != nil {
		return nil, err
	}
	torrents := map[string]Torrent{}
	if resp.Success() {
		epoch := c.Epoch()
		for _, raw := range resp.Arguments.Get("torrents").Items() {
			if !raw.IsRecord() {
				continue
			}
			t := ToTorrent(raw, epoch)
			torrents[t.Hash] = t
		}
	}

	c.mu.Lock()
	c.torrents = torrents
	c.mu.Unlock()
	return torrents, nil
}

// Torrents returns the collection loaded by the last FetchTorrents.
func (c *Client) Torrents() map[string]Torrent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torrents
}

// FilterTorrents applies criteria to the cached collection.
func (c *Client) FilterTorrents(criteria *Criteria) map[string]Torrent {
	return Filter(c.Torrents(), criteria)
}

// FetchFiltered loads torrents and filters them in one go.
func (c *Client) FetchFiltered(ctx context.Context, ids []int, criteria *Criteria) (map[string]Torrent, error) {
	torrents, err := c.FetchTorrents(ctx, ids)
	if err != nil {
		return nil, err
	}
	return Filter(torrents, criteria), nil
}
