package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jakenesler/trctl/internal"
	"github.com/jakenesler/trctl/tools"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve Transmission tools to an MCP client over stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			s := tools.NewServer(Version, a.cfg, a.client)
			internal.Logf("starting trctl MCP server (stdio) for %s", a.client.URL())
			return server.ServeStdio(s)
		},
	}
}
