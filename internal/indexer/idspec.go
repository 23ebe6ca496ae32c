package indexer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// maxRangeSpan bounds a single range token so a typo cannot expand into
// millions of ids.
const maxRangeSpan = 100000

// ParseIDSpec parses a bulk-delete specification such as "5,8,12" or
// "1-10,15,20-25". Ranges are inclusive and may be written high to low.
// Malformed tokens are skipped and reported in warnings. The result is
// deduplicated and sorted. A specification without any valid token returns
// ErrNoValidIDs.
func ParseIDSpec(spec string) (ids []int64, warnings []string, err error) {
	seen := make(map[int64]bool)
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		parts := strings.Split(token, "-")
		switch len(parts) {
		case 1:
			id, ok := parseID(parts[0])
			if !ok {
				warnings = append(warnings, fmt.Sprintf("skipping %q: not a valid id", token))
				continue
			}
			add(id)
		case 2:
			lo, okLo := parseID(parts[0])
			hi, okHi := parseID(parts[1])
			if !okLo || !okHi {
				warnings = append(warnings, fmt.Sprintf("skipping %q: range bounds must be positive integers", token))
				continue
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			if hi-lo >= maxRangeSpan {
				warnings = append(warnings, fmt.Sprintf("skipping %q: range spans more than %d ids", token, maxRangeSpan))
				continue
			}
			for id := lo; id <= hi; id++ {
				add(id)
			}
		default:
			warnings = append(warnings, fmt.Sprintf("skipping %q: more than one dash", token))
		}
	}

	if len(ids) == 0 {
		return nil, warnings, ErrNoValidIDs
	}
	slices.Sort(ids)
	return ids, warnings, nil
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
