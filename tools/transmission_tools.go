package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jakenesler/trctl/transmission"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTransmissionTools(s *server.MCPServer, client *transmission.Client, allowDestructive bool) {
	// transmission_list_torrents
	s.AddTool(
		mcp.NewTool("transmission_list_torrents",
			mcp.WithDescription("List torrents keyed by info hash with status, progress, speeds and peers. Optional criteria filter the list; when several are given only the last one in the order running, status, speed_up, speed_down, speed decides."),
			mcp.WithString("ids", mcp.Description("Comma-separated torrent IDs (default: all)")),
			mcp.WithString("running", mcp.Description("\"true\" or \"false\": keep only running or stopped torrents")),
			mcp.WithString("status", mcp.Description("Keep only this status code (1 check_wait, 2 checking, 4 downloading, 5 download_wait, 8 seeding, 9 seed_wait, 16 stopped)")),
			mcp.WithString("speed_up", mcp.Description("\"true\": keep only uploading torrents")),
			mcp.WithString("speed_down", mcp.Description("\"true\": keep only downloading torrents")),
			mcp.WithString("speed", mcp.Description("\"true\": keep only torrents transferring in either direction")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var ids []int
			if idsStr := mcp.ParseString(req, "ids", ""); idsStr != "" {
				var err error
				if ids, err = transmission.ParseIDs(idsStr); err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
			}
			criteria, err := parseCriteria(req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			torrents, err := client.FetchFiltered(ctx, ids, criteria)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to list torrents: %v", err)), nil
			}
			data, _ := json.MarshalIndent(torrents, "", "  ")
			return mcp.NewToolResultText(string(data)), nil
		},
	)

	// transmission_get_torrents
	s.AddTool(
		mcp.NewTool("transmission_get_torrents",
			mcp.WithDescription("Raw torrent-get: return the requested fields for the given torrents"),
			mcp.WithString("ids", mcp.Description("Comma-separated torrent IDs (default: all)")),
			mcp.WithString("fields", mcp.Description("Comma-separated RPC field names (default: id,name,status,doneDate,haveValid,totalSize)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var ids []int
			if idsStr := mcp.ParseString(req, "ids", ""); idsStr != "" {
				var err error
				if ids, err = transmission.ParseIDs(idsStr); err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
			}
			fields := splitList(mcp.ParseString(req, "fields", ""))
			resp, err := client.TorrentGet(ctx, ids, fields)
			return rpcResult("torrent-get", resp, err)
		},
	)

	// transmission_add_torrent
	s.AddTool(
		mcp.NewTool("transmission_add_torrent",
			mcp.WithDescription("Add a torrent by magnet link, URL or daemon-side path, or from base64 metainfo"),
			mcp.WithString("url", mcp.Description("Magnet link, torrent URL or path on the daemon host")),
			mcp.WithString("metainfo", mcp.Description("Base64-encoded .torrent content (instead of url)")),
			mcp.WithString("download_dir", mcp.Description("Download directory (optional)")),
			mcp.WithString("paused", mcp.Description("\"true\" to add without starting")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			paused, err := parseBool(mcp.ParseString(req, "paused", ""), false)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			resp, err := client.TorrentAdd(ctx, transmission.AddRequest{
				Filename:    mcp.ParseString(req, "url", ""),
				Metainfo:    mcp.ParseString(req, "metainfo", ""),
				DownloadDir: mcp.ParseString(req, "download_dir", ""),
				Paused:      paused,
			})
			return rpcResult("torrent-add", resp, err)
		},
	)

	// transmission_manage_torrent
	s.AddTool(
		mcp.NewTool("transmission_manage_torrent",
			mcp.WithDescription("Manage torrents: start, stop, reannounce, verify, remove, or remove_data (also deletes downloaded files)"),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action: start, stop, reannounce, verify, remove, remove_data")),
			mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated torrent IDs (e.g. \"1,2,3\")")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			action := mcp.ParseString(req, "action", "")
			ids, err := transmission.ParseIDs(mcp.ParseString(req, "ids", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			var resp *transmission.Response
			switch action {
			case "start":
				resp, err = client.TorrentStart(ctx, ids)
			case "stop":
				resp, err = client.TorrentStop(ctx, ids)
			case "reannounce":
				resp, err = client.TorrentReannounce(ctx, ids)
			case "verify":
				resp, err = client.TorrentVerify(ctx, ids)
			case "remove":
				resp, err = client.TorrentRemove(ctx, ids, false)
			case "remove_data":
				if !allowDestructive {
					return mcp.NewToolResultError("remove_data is disabled; set allow_destructive: true in the config"), nil
				}
				resp, err = client.TorrentRemove(ctx, ids, true)
			default:
				return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (use: start, stop, reannounce, verify, remove, remove_data)", action)), nil
			}

			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("action %s failed: %v", action, err)), nil
			}
			if !resp.Success() {
				return mcp.NewToolResultError(fmt.Sprintf("action %s rejected by daemon: %s", action, resp.Result)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Successfully executed %s on torrent(s) %v", action, ids)), nil
		},
	)

	// transmission_move_torrent
	s.AddTool(
		mcp.NewTool("transmission_move_torrent",
			mcp.WithDescription("Relocate torrent content to a new directory"),
			mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated torrent IDs")),
			mcp.WithString("location", mcp.Required(), mcp.Description("New download directory on the daemon host")),
			mcp.WithString("move", mcp.Description("\"true\" (default) moves existing data, \"false\" looks for the data at location")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ids, err := transmission.ParseIDs(mcp.ParseString(req, "ids", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			location := mcp.ParseString(req, "location", "")
			if location == "" {
				return mcp.NewToolResultError("location is required"), nil
			}
			move, err := parseBool(mcp.ParseString(req, "move", ""), true)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			resp, err := client.TorrentMove(ctx, ids, location, move)
			return rpcResult("torrent-set-location", resp, err)
		},
	)

	// transmission_set_torrent
	s.AddTool(
		mcp.NewTool("transmission_set_torrent",
			mcp.WithDescription("Set torrent properties (torrent-set), e.g. {\"downloadLimit\": 500, \"downloadLimited\": true, \"files-wanted\": [0, 2]}"),
			mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated torrent IDs")),
			mcp.WithString("properties", mcp.Required(), mcp.Description("JSON object of torrent-set arguments")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ids, err := transmission.ParseIDs(mcp.ParseString(req, "ids", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			props, err := parseObject(mcp.ParseString(req, "properties", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			resp, err := client.TorrentSet(ctx, ids, props)
			return rpcResult("torrent-set", resp, err)
		},
	)

	// transmission_session
	s.AddTool(
		mcp.NewTool("transmission_session",
			mcp.WithDescription("Daemon session: get settings, set settings, transfer stats, or free space at a path"),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action: get, set, stats, free_space")),
			mcp.WithString("properties", mcp.Description("JSON object of session-set arguments (action=set)")),
			mcp.WithString("path", mcp.Description("Path to check (action=free_space, defaults to /data/downloads)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			action := mcp.ParseString(req, "action", "")
			switch action {
			case "get":
				resp, err := client.SessionGet(ctx)
				return rpcResult("session-get", resp, err)
			case "stats":
				resp, err := client.SessionStats(ctx)
				return rpcResult("session-stats", resp, err)
			case "set":
				props, err := parseObject(mcp.ParseString(req, "properties", ""))
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				resp, err := client.SessionSet(ctx, props)
				return rpcResult("session-set", resp, err)
			case "free_space":
				path := mcp.ParseString(req, "path", "/data/downloads")
				bytes, err := client.FreeSpace(ctx, path)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("failed to check free space: %v", err)), nil
				}
				gb := float64(bytes) / (1024 * 1024 * 1024)
				return mcp.NewToolResultText(fmt.Sprintf("Free space at %s: %.2f GB (%d bytes)", path, gb, bytes)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (use: get, set, stats, free_space)", action)), nil
		},
	)
}

func rpcResult(method string, resp *transmission.Response, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", method, err)), nil
	}
	if !resp.Success() {
		return mcp.NewToolResultError(fmt.Sprintf("%s rejected by daemon: %s", method, resp.Result)), nil
	}
	data, _ := json.MarshalIndent(resp.Arguments, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func parseCriteria(req mcp.CallToolRequest) (*transmission.Criteria, error) {
	c := &transmission.Criteria{}
	if s := mcp.ParseString(req, "running", ""); s != "" {
		running, err := parseBool(s, false)
		if err != nil {
			return nil, err
		}
		c.Running = &running
	}
	if s := mcp.ParseString(req, "status", ""); s != "" {
		status, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid status %q", s)
		}
		c.Status = &status
	}
	for name, dst := range map[string]*bool{"speed_up": &c.SpeedUp, "speed_down": &c.SpeedDown, "speed": &c.Speed} {
		v, err := parseBool(mcp.ParseString(req, name, ""), false)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return c, nil
}

func parseBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return v, nil
}

func parseObject(s string) (map[string]any, error) {
	if s == "" {
		return nil, fmt.Errorf("properties is required")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("invalid properties JSON: %v", err)
	}
	return obj, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
