// Package guard implements the pre-checks that can halt a run without error.
//
// ArXiv publishes no new listings on Saturdays and Sundays, so a weekend run
// would only re-scrape Friday's page. The weekday is computed in the
// configured timezone, not the host's. The second gate from the original
// deployment, "has the source updated since the last success", is the diff
// against the seen-set and lives with the orchestrator.
package guard

import "time"

// Weekend halts runs that land on a Saturday or Sunday.
type Weekend struct {
	loc *time.Location
}

// NewWeekend builds the gate for the given timezone.
func NewWeekend(loc *time.Location) Weekend {
	return Weekend{loc: loc}
}

// Blocked reports whether now falls on a weekend in the gate's timezone.
func (g Weekend) Blocked(now time.Time) bool {
	wd := now.In(g.loc).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
