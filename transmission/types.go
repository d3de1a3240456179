package transmission

// RPC request/response types per the Transmission RPC spec.

type rpcRequest struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Tag       int64          `json:"tag,omitempty"`
}

// Response is a decoded RPC reply. Arguments has already been through
// CleanIncoming, so member names use underscores instead of hyphens.
type Response struct {
	Result    string `json:"result"`
	Arguments Value  `json:"arguments"`
	Tag       int64  `json:"tag,omitempty"`
}

// Success reports whether the daemon accepted the call.
func (r *Response) Success() bool {
	return r != nil && r.Result == resultSuccess
}

const resultSuccess = "success"

// Torrent is a torrent-get record flattened into the field names callers
// work with. Status is always in the legacy numbering.
type Torrent struct {
	RPCID          int64   `json:"rpcid"`
	Hash           string  `json:"hash"`
	Name           string  `json:"name"`
	Status         int     `json:"status"`
	StatusText     string  `json:"status_text"`
	Running        bool    `json:"running"`
	Size           int64   `json:"size"`
	PercentDone    float64 `json:"percentDone"`
	Sharing        float64 `json:"sharing"`
	Seeds          int     `json:"seeds"`
	Peers          int     `json:"peers"`
	Cons           int     `json:"cons"`
	PeersList      Value   `json:"peersList"`
	Files          Value   `json:"files"`
	Error          int     `json:"error"`
	ErrorString    string  `json:"errorString"`
	DownloadDir    string  `json:"downloadDir"`
	DownTotal      int64   `json:"downTotal"`
	UpTotal        int64   `json:"upTotal"`
	ETA            int64   `json:"eta"`
	SpeedDown      int64   `json:"speedDown"`
	SpeedUp        int64   `json:"speedUp"`
	DRate          int64   `json:"drate"`
	URate          int64   `json:"urate"`
	SeedLimit      int64   `json:"seedlimit"`
	SeedRatioLimit int64   `json:"seedRatioLimit"`
	SeedRatioMode  int     `json:"seedRatioMode"`
	TrackerStats   Value   `json:"trackerStats"`
}

// AddRequest describes a torrent-add call. Exactly one of Filename and
// Metainfo must be set.
type AddRequest struct {
	// Filename is a path on the daemon host, a URL or a magnet link.
	Filename string
	// Metainfo is base64-encoded .torrent content.
	Metainfo    string
	DownloadDir string
	Paused      bool
	// Options carries any other torrent-add argument, keyed by its wire name.
	Options map[string]any
}
