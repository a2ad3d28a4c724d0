package collector

import (
	"strconv"
	"strings"
)

// ownerFilter keeps lines attributed to one process. The zero value keeps
// everything.
type ownerFilter struct {
	token string
}

// newOwnerFilter returns a filter on "<pid>):" when filtering is requested
// and the pid is known.
func newOwnerFilter(enabled bool, pid int) ownerFilter {
	if !enabled || pid <= 0 {
		return ownerFilter{}
	}
	return ownerFilter{token: strconv.Itoa(pid) + "):"}
}

// Keep reports whether line passes the filter. Matching is plain substring
// containment anywhere in the line.
func (f ownerFilter) Keep(line string) bool {
	return f.token == "" || strings.Contains(line, f.token)
}
