package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakenesler/trctl/transmission"
)

type torrentAction func(*transmission.Client, context.Context, []int) (*transmission.Response, error)

func newListCmd(a *app) *cobra.Command {
	var (
		idsStr    string
		running   bool
		status    int
		speedUp   bool
		speedDown bool
		speed     bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List torrents with status, progress and speeds",
		Long:  "List torrents keyed by info hash. Filters are checked in the order --running, --status, --speed-up, --speed-down, --speed and the last one given decides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := optionalIDs(idsStr)
			if err != nil {
				return err
			}

			criteria := &transmission.Criteria{SpeedUp: speedUp, SpeedDown: speedDown, Speed: speed}
			if cmd.Flags().Changed("running") {
				criteria.Running = &running
			}
			if cmd.Flags().Changed("status") {
				criteria.Status = &status
			}

			torrents, err := a.client.FetchFiltered(cmd.Context(), ids, criteria)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, torrents)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTorrents(torrents, a.client.KBytes()))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&idsStr, "ids", "", "comma-separated torrent IDs (default: all)")
	f.BoolVar(&running, "running", false, "keep only running (true) or stopped (false) torrents")
	f.IntVar(&status, "status", 0, "keep only this status code (1,2,4,5,8,9,16)")
	f.BoolVar(&speedUp, "speed-up", false, "keep only uploading torrents")
	f.BoolVar(&speedDown, "speed-down", false, "keep only downloading torrents")
	f.BoolVar(&speed, "speed", false, "keep only torrents transferring in either direction")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var idsStr, fieldsStr string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print raw torrent-get fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := optionalIDs(idsStr)
			if err != nil {
				return err
			}
			var fields []string
			for _, f := range strings.Split(fieldsStr, ",") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
			resp, err := a.client.TorrentGet(cmd.Context(), ids, fields)
			return writeResponse(cmd, "torrent-get", resp, err)
		},
	}
	cmd.Flags().StringVar(&idsStr, "ids", "", "comma-separated torrent IDs (default: all)")
	cmd.Flags().StringVar(&fieldsStr, "fields", "", "comma-separated RPC fields (default: id,name,status,doneDate,haveValid,totalSize)")
	return cmd
}

func newActionCmd(a *app, name, short string, action torrentAction) *cobra.Command {
	return &cobra.Command{
		Use:   name + " IDS",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := transmission.ParseIDs(args[0])
			if err != nil {
				return err
			}
			resp, err := action(a.client, cmd.Context(), ids)
			return writeResult(cmd, "torrent-"+name, ids, resp, err)
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var (
		dir     string
		paused  bool
		isFile  bool
		options string
	)

	cmd := &cobra.Command{
		Use:   "add SOURCE",
		Short: "Add a torrent from a magnet link, URL, daemon-side path or local .torrent file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if isFile {
				resp, err := a.client.TorrentAddFile(cmd.Context(), source, dir, paused)
				return writeResponse(cmd, "torrent-add", resp, err)
			}

			var extra map[string]any
			if options != "" {
				if err := json.Unmarshal([]byte(options), &extra); err != nil {
					return fmt.Errorf("invalid --options JSON: %w", err)
				}
			}
			resp, err := a.client.TorrentAdd(cmd.Context(), transmission.AddRequest{
				Filename:    source,
				DownloadDir: dir,
				Paused:      paused,
				Options:     extra,
			})
			return writeResponse(cmd, "torrent-add", resp, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "download directory")
	f.BoolVar(&paused, "paused", false, "add without starting")
	f.BoolVar(&isFile, "file", false, "SOURCE is a local .torrent file, sent inline")
	f.StringVar(&options, "options", "", "extra torrent-add arguments as a JSON object")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var deleteData bool

	cmd := &cobra.Command{
		Use:   "remove IDS",
		Short: "Remove torrents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := transmission.ParseIDs(args[0])
			if err != nil {
				return err
			}
			resp, err := a.client.TorrentRemove(cmd.Context(), ids, deleteData)
			return writeResult(cmd, "torrent-remove", ids, resp, err)
		},
	}
	cmd.Flags().BoolVar(&deleteData, "delete-data", false, "also delete downloaded data")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "move IDS LOCATION",
		Short: "Move torrent content to a new location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := transmission.ParseIDs(args[0])
			if err != nil {
				return err
			}
			resp, err := a.client.TorrentMove(cmd.Context(), ids, args[1], !scan)
			return writeResult(cmd, "torrent-set-location", ids, resp, err)
		},
	}
	cmd.Flags().BoolVar(&scan, "scan", false, "do not move data, look for it at LOCATION instead")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set IDS PROPERTIES",
		Short: "Set torrent properties from a JSON object, e.g. '{\"downloadLimit\":500,\"downloadLimited\":true}'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := transmission.ParseIDs(args[0])
			if err != nil {
				return err
			}
			var props map[string]any
			if err := json.Unmarshal([]byte(args[1]), &props); err != nil {
				return fmt.Errorf("invalid properties JSON: %w", err)
			}
			resp, err := a.client.TorrentSet(cmd.Context(), ids, props)
			return writeResult(cmd, "torrent-set", ids, resp, err)
		},
	}
}

func optionalIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return transmission.ParseIDs(s)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResponse prints the arguments of a successful response.
func writeResponse(cmd *cobra.Command, method string, resp *transmission.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("%s: %s", method, resp.Result)
	}
	return writeJSON(cmd, resp.Arguments)
}

// writeResult prints a one-line confirmation for calls without useful output.
func writeResult(cmd *cobra.Command, method string, ids []int, resp *transmission.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("%s: %s", method, resp.Result)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s ok: %v\n", method, ids)
	return err
}
