package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakenesler/trctl/config"
	"github.com/jakenesler/trctl/internal"
	"github.com/jakenesler/trctl/transmission"
)

// Version is set at build time.
var Version = "dev"

func Execute() error {
	defer internal.Sync()
	return newRootCmd().Execute()
}

type app struct {
	cfg    *config.Config
	client *transmission.Client
}

type rootFlags struct {
	configPath string
	url        string
	username   string
	password   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "trctl",
		Short:         "Control a Transmission daemon over its RPC interface",
		Long:          "trctl talks to transmission-daemon's JSON RPC endpoint: list, add, start, stop, verify, move and remove torrents, inspect the session, or serve the same operations as MCP tools over stdio.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.wire(flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config.yaml (default: ~/.config/trctl/config.yaml)")
	pf.StringVar(&flags.url, "url", "", "RPC endpoint, overrides transmission.url")
	pf.StringVar(&flags.username, "username", "", "RPC username, overrides transmission.username")
	pf.StringVar(&flags.password, "password", "", "RPC password, overrides transmission.password")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newActionCmd(a, "start", "Start torrents", (*transmission.Client).TorrentStart),
		newActionCmd(a, "stop", "Stop torrents", (*transmission.Client).TorrentStop),
		newActionCmd(a, "verify", "Verify local data of torrents", (*transmission.Client).TorrentVerify),
		newActionCmd(a, "reannounce", "Ask trackers for more peers", (*transmission.Client).TorrentReannounce),
		newAddCmd(a),
		newRemoveCmd(a),
		newMoveCmd(a),
		newSetCmd(a),
		newSessionCmd(a),
	)

	return rootCmd
}

func (a *app) wire(flags *rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.url != "" {
		cfg.Transmission.URL = flags.url
	}
	if flags.username != "" {
		cfg.Transmission.Username = flags.username
	}
	if flags.password != "" {
		cfg.Transmission.Password = flags.password
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	internal.SetupLogging(cfg.Log.LogOptions())

	opts, err := cfg.Transmission.ClientOptions()
	if err != nil {
		return fmt.Errorf("transmission config: %w", err)
	}
	a.cfg = cfg
	a.client = transmission.NewClient(opts)
	internal.Debugf("transmission client configured: %s", opts.URL)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}
