package transmission

import "math"

// torrentFields is everything ToTorrent reads.
var torrentFields = []string{
	"id", "name", "status", "hashString", "totalSize",
	"downloadedEver", "uploadedEver",
	"downloadLimit", "uploadLimit",
	"rateDownload", "rateUpload",
	"peersConnected", "peersGettingFromUs", "peersSendingToUs",
	"percentDone", "uploadRatio",
	"seedRatioLimit", "seedRatioMode",
	"downloadDir",
	"eta", "peers", "files",
	"error", "errorString", "trackerStats",
}

// ToTorrent flattens one torrent-get record. Missing members read as zero,
// which is also what CleanIncoming leaves behind for zero values.
func ToTorrent(raw Value, epoch Epoch) Torrent {
	ratio := raw.Get("uploadRatio").Float()
	if ratio == -1 {
		// daemon reports -1 when no ratio is defined
		ratio = 0
	}

	status := ToCanonicalStatus(int(raw.Get("status").Int()), epoch)
	t := Torrent{
		RPCID:      raw.Get("id").Int(),
		Hash:       raw.Get("hashString").String(),
		Name:       raw.Get("name").String(),
		Status:     status,
		StatusText: StatusName(status),
		Running:    IsRunning(status),

		Size: raw.Get("totalSize").Int(),

		PercentDone: raw.Get("percentDone").Float() * 100.0,
		Sharing:     ratio * 100.0,

		Seeds:     int(raw.Get("peersSendingToUs").Int()),
		Peers:     int(raw.Get("peersGettingFromUs").Int()),
		Cons:      int(raw.Get("peersConnected").Int()),
		PeersList: raw.Get("peers"),
		Files:     raw.Get("files"),

		Error:       int(raw.Get("error").Int()),
		ErrorString: raw.Get("errorString").String(),
		DownloadDir: raw.Get("downloadDir").String(),

		DownTotal: raw.Get("downloadedEver").Int(),
		UpTotal:   raw.Get("uploadedEver").Int(),

		ETA: raw.Get("eta").Int(),

		SpeedDown: raw.Get("rateDownload").Int(),
		SpeedUp:   raw.Get("rateUpload").Int(),

		DRate: raw.Get("downloadLimit").Int(),
		URate: raw.Get("uploadLimit").Int(),

		SeedRatioMode: int(raw.Get("seedRatioMode").Int()),
		TrackerStats:  raw.Get("trackerStats"),
	}
	limit := int64(math.Round(raw.Get("seedRatioLimit").Float() * 100))
	t.SeedLimit = limit
	t.SeedRatioLimit = limit

	// 2.5x daemons report downloadedEver short of totalSize on finished
	// torrents.
	if epoch == EpochRecent && t.PercentDone == 100.0 && t.DownTotal < t.Size {
		t.DownTotal = t.Size
	}
	return t
}
