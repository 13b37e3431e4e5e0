package filter

import (
	"strings"

	"github.com/amishk599/jobfeed/internal/model"
)

// CompanyDenyList excludes jobs posted by blacklisted companies.
// A company matches only when its whole name equals a listed entry,
// compared case-insensitively. Substrings and whitespace variants never match.
type CompanyDenyList struct {
	names map[string]struct{}
}

// NewCompanyDenyList builds a deny-list from the configured company names.
// Empty entries are ignored.
func NewCompanyDenyList(companies []string) *CompanyDenyList {
	names := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		c = strings.ToLower(c)
		if c == "" {
			continue
		}
		names[c] = struct{}{}
	}
	return &CompanyDenyList{names: names}
}

// Len returns the number of distinct entries.
func (d *CompanyDenyList) Len() int {
	return len(d.names)
}

// Excludes reports whether job's company is on the deny-list.
func (d *CompanyDenyList) Excludes(job model.Job) bool {
	if len(d.names) == 0 {
		return false
	}
	_, ok := d.names[strings.ToLower(job.CompanyName)]
	return ok
}
