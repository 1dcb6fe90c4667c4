// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Parser for the kernel cpulist format ("0-3,8,10-11").

package concurrency

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseCPUList parses a kernel cpulist into sorted, de-duplicated CPU indices.
// An empty or whitespace-only list yields an empty set.
func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	seen := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil || first < 0 {
			return nil, errors.Errorf("cpulist %q: bad cpu %q", s, lo)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil || last < first {
				return nil, errors.Errorf("cpulist %q: bad range %q", s, part)
			}
		}
		for c := first; c <= last; c++ {
			seen[c] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out, nil
}
