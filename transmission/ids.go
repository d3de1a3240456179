package transmission

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ParseIDs accepts a JSON array ("[1,2]") or a comma-separated list
// ("1, 2") of torrent IDs.
func ParseIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalidArgument("ids is required")
	}

	var ids []int
	if err := json.Unmarshal([]byte(s), &ids); err == nil {
		if len(ids) == 0 {
			return nil, invalidArgument("no valid IDs provided")
		}
		return ids, nil
	}

	parts := lo.Compact(lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, invalidArgument("invalid ID %q", p)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, invalidArgument("no valid IDs provided")
	}
	return ids, nil
}
