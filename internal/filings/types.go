// Package filings drives the court case-search form to acquire the
// filings attached to a foreclosure case: the Notice of Sale and the
// Surplus Money Form.
package filings

import (
	"fmt"

	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/internal/docstore"
)

// FilingType is the closed set of court document types the pipeline
// acquires. Each carries the court system's document-type dropdown value
// and the storage subdirectory it lands in.
type FilingType int

const (
	NoticeOfSale FilingType = iota
	SurplusMoneyForm
)

var AllFilingTypes = []FilingType{NoticeOfSale, SurplusMoneyForm}

func (f FilingType) DocumentID() string {
	switch f {
	case NoticeOfSale:
		return "1163"
	case SurplusMoneyForm:
		return "1741"
	}
	return ""
}

func (f FilingType) Dir() string {
	switch f {
	case NoticeOfSale:
		return "noticeofsale"
	case SurplusMoneyForm:
		return "surplusmoney"
	}
	return ""
}

func (f FilingType) String() string {
	return f.Dir()
}

// FilingTypeFromDir resolves a storage subdirectory name back to its
// filing type; unknown names report false.
func FilingTypeFromDir(dir string) (FilingType, bool) {
	for _, f := range AllFilingTypes {
		if f.Dir() == dir {
			return f, true
		}
	}
	return 0, false
}

// The document-type id of a motion to discontinue. Its presence in the
// dropdown means the foreclosure was called off and no further filings
// will ever appear.
const discontinueDocumentID = "3664"

// DefaultCounties maps the five boroughs to the case-search form's
// internal county codes. Constructed once and injected; an index number
// in any other county is a hard error.
func DefaultCounties() map[string]string {
	return map[string]string{
		"Manhattan":     "31",
		"Queens":        "41",
		"Bronx":         "62",
		"Brooklyn":      "24",
		"Staten Island": "43",
	}
}

// Request is one unit of work: acquire the still-missing filings of one
// case.
type Request struct {
	CaseNumber  string
	County      string
	AuctionDate civil.Date
	Missing     []FilingType
}

// StoragePath places a filing under the document store. Notice-of-sale
// documents with a known auction date are partitioned by it, since a
// case can recur across auction cycles; everything else is flat.
func StoragePath(store docstore.Store, f FilingType, caseNumber string, auctionDate civil.Date) string {
	if f == NoticeOfSale && !auctionDate.IsZero() {
		return store.PartitionedPath(f.Dir(), caseNumber, auctionDate)
	}
	return store.FlatPath(f.Dir(), caseNumber)
}

// MissingFilings reports which filing types have no stored document yet
// for the case.
func MissingFilings(store docstore.Store, caseNumber string, auctionDate civil.Date) []FilingType {
	var out []FilingType
	for _, f := range AllFilingTypes {
		if !store.Has(StoragePath(store, f, caseNumber, auctionDate)) {
			out = append(out, f)
		}
	}
	return out
}

func (r Request) String() string {
	return fmt.Sprintf("%s (%s)", r.CaseNumber, r.County)
}
