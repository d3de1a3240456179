package tools

import (
	"github.com/jakenesler/trctl/config"
	"github.com/jakenesler/trctl/transmission"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterAll registers all tools with the MCP server.
func RegisterAll(s *server.MCPServer, cfg *config.Config, txClient *transmission.Client) {
	if txClient != nil {
		registerTransmissionTools(s, txClient, cfg.AllowDestructive)
	}
}

// NewServer builds the MCP server with every tool registered.
func NewServer(version string, cfg *config.Config, txClient *transmission.Client) *server.MCPServer {
	s := server.NewMCPServer(
		"trctl",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("trctl manages a Transmission daemon. Use transmission_list_torrents to see torrents keyed by info hash (with optional running/status/speed filters), transmission_manage_torrent to start, stop, verify, reannounce or remove them, transmission_add_torrent to add new ones, and transmission_session for daemon settings and free space."),
	)
	RegisterAll(s, cfg, txClient)
	return s
}
