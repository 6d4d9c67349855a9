package filings

import (
	"fmt"
	"strings"

	"auctionwatch-backend/internal/civil"
)

// A notice of sale is published shortly before the auction; anything
// older than this many days belongs to a previous cycle.
const noticeOfSaleWindowDays = 90

// evaluateCandidate applies the date-window acceptance rules. A case with
// no known auction date accepts any candidate. The returned reason is
// only meaningful on rejection.
func evaluateCandidate(f FilingType, c Candidate, auctionDate civil.Date) (accept bool, reason string) {
	if auctionDate.IsZero() {
		return true, ""
	}

	switch f {
	case SurplusMoneyForm:
		// a surplus money form can only be filed after the sale happened
		if c.Received.Before(auctionDate) {
			return false, fmt.Sprintf(
				"received %s before %s auction date", c.Received, auctionDate)
		}
	case NoticeOfSale:
		earliest := auctionDate.AddDays(-noticeOfSaleWindowDays)
		if c.Received.Before(earliest) || c.Received.After(auctionDate) {
			return false, fmt.Sprintf(
				"received %s, either after or more than %d days before %s auction date",
				c.Received, noticeOfSaleWindowDays, auctionDate)
		}
		if strings.Contains(strings.ToLower(c.Subtitle), "cancellation") {
			return false, "subtitle indicates cancellation"
		}
	}
	return true, ""
}
