package transmission

import (
	"regexp"
	"strconv"
)

// Epoch is the status numbering generation spoken by a daemon.
type Epoch int

const (
	// EpochLegacy is the bit-flag numbering used before 2.40.
	EpochLegacy Epoch = iota
	// EpochRecent is the sequential numbering introduced in 2.40.
	EpochRecent
)

func (e Epoch) String() string {
	if e == EpochRecent {
		return "recent"
	}
	return "legacy"
}

// Torrent status codes in the legacy numbering. Everything this package
// hands out uses these values.
const (
	StatusCheckWait    = 1
	StatusChecking     = 2
	StatusDownloading  = 4
	StatusDownloadWait = 5
	StatusSeeding      = 8
	StatusSeedWait     = 9
	StatusStopped      = 16
)

var statusNames = map[int]string{
	StatusCheckWait:    "check_wait",
	StatusChecking:     "checking",
	StatusDownloading:  "downloading",
	StatusDownloadWait: "download_wait",
	StatusSeeding:      "seeding",
	StatusSeedWait:     "seed_wait",
	StatusStopped:      "stopped",
}

// recent code -> legacy code
var recentToLegacy = map[int]int{
	3: StatusDownloadWait,
	6: StatusSeeding,
	5: StatusSeedWait,
	0: StatusStopped,
}

// ToCanonicalStatus translates a status reported by the daemon into the
// legacy numbering. Codes without a counterpart pass through unchanged.
func ToCanonicalStatus(raw int, epoch Epoch) int {
	if epoch != EpochRecent {
		return raw
	}
	if legacy, ok := recentToLegacy[raw]; ok {
		return legacy
	}
	return raw
}

// IsRunning reports whether a canonical status counts as active.
func IsRunning(status int) bool {
	switch status {
	case StatusCheckWait, StatusChecking, StatusDownloading, StatusDownloadWait,
		StatusSeeding, StatusSeedWait:
		return true
	}
	return false
}

func StatusName(status int) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "unknown"
}

var versionPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// EpochForVersion picks the numbering from a daemon version string such as
// "2.94 (d8e60ee44f)". Unparseable versions are treated as legacy.
func EpochForVersion(version string) Epoch {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return EpochLegacy
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 2.40 {
		return EpochLegacy
	}
	return EpochRecent
}
