package transmission

import "github.com/samber/lo"

// Criteria selects torrents. Each set field is a predicate; they are checked
// in field order and the last one that is set decides whether a torrent is
// kept. Setting several does not AND them together.
type Criteria struct {
	Running   *bool
	Status    *int
	SpeedUp   bool
	SpeedDown bool
	// Speed keeps torrents moving data in either direction.
	Speed bool
}

// Empty reports whether no predicate is set.
func (c *Criteria) Empty() bool {
	return c == nil || (c.Running == nil && c.Status == nil && !c.SpeedUp && !c.SpeedDown && !c.Speed)
}

func (c *Criteria) drop(t Torrent) bool {
	drop := false
	if c.Running != nil {
		drop = t.Running != *c.Running
	}
	if c.Status != nil {
		drop = t.Status != *c.Status
	}
	if c.SpeedUp {
		drop = t.SpeedUp == 0
	}
	if c.SpeedDown {
		drop = t.SpeedDown == 0
	}
	if c.Speed {
		drop = t.SpeedUp == 0 && t.SpeedDown == 0
	}
	return drop
}

// Filter returns the torrents matching c. Without criteria the input map
// itself is returned.
func Filter(torrents map[string]Torrent, c *Criteria) map[string]Torrent {
	if c.Empty() {
		return torrents
	}
	return lo.PickBy(torrents, func(_ string, t Torrent) bool {
		return !c.drop(t)
	})
}
