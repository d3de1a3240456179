package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change daemon session settings",
	}

	var fields []string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print session settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.client.SessionGet(cmd.Context(), fields...)
			return writeResponse(cmd, "session-get", resp, err)
		},
	}
	getCmd.Flags().StringSliceVar(&fields, "fields", nil, "only these settings (e.g. version,download-dir)")

	setCmd := &cobra.Command{
		Use:   "set PROPERTIES",
		Short: "Change session settings from a JSON object, e.g. '{\"speed-limit-down\":500}'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var props map[string]any
			if err := json.Unmarshal([]byte(args[0]), &props); err != nil {
				return fmt.Errorf("invalid properties JSON: %w", err)
			}
			resp, err := a.client.SessionSet(cmd.Context(), props)
			return writeResponse(cmd, "session-set", resp, err)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print transfer statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.client.SessionStats(cmd.Context())
			return writeResponse(cmd, "session-stats", resp, err)
		},
	}

	freeCmd := &cobra.Command{
		Use:   "free-space PATH",
		Short: "Print free space at a path on the daemon host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.client.FreeSpace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s free\n", args[0], formatBytes(n, a.client.KBytes()))
			return err
		},
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.client.IsRunning(cmd.Context()) {
				return fmt.Errorf("transmission at %s is not answering", a.client.URL())
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "transmission at %s is running\n", a.client.URL())
			return err
		},
	}

	cmd.AddCommand(getCmd, setCmd, statsCmd, freeCmd, pingCmd)
	return cmd
}
