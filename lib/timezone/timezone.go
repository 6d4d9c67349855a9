package timezone

import "time"

// Every date in the pipeline is a calendar date (auction days, received
// dates, partition directories). Anchoring all of them to UTC keeps
// comparisons stable no matter which coast the scraper host lands on.
var Location = time.UTC

func Now() time.Time {
	return time.Now().In(Location)
}
