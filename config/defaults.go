package config

import "time"

const (
	// DefaultHost and DefaultPort match transmission-daemon's stock settings.
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 9091
	DefaultRPCPath = "/transmission/rpc"

	DefaultConnectTimeout = time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultLogMaxSizeMB   = 10
	DefaultLogMaxBackups  = 3
)
