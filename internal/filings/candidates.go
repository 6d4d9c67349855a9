package filings

import (
	"log/slog"
	"strings"

	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is one row of the filing-listing table.
type Candidate struct {
	DownloadURL string
	Received    civil.Date
	Subtitle    string
}

// parseCandidates reads the narrowed results table out of the page HTML.
// The court lists documents most-recent-first; rows are reversed so the
// first element is the earliest-received filing, which is the
// representative candidate evaluated against the date window.
func parseCandidates(pageHTML string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	var out []Candidate
	doc.Find("table.NewSearchResults > tbody > tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td:nth-child(2) a").First()
		received := row.Find("td:nth-child(3) span").First()
		if link.Length() == 0 || received.Length() == 0 {
			return
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		// the received cell reads "Received 01/01/2025"
		fields := strings.Fields(htmlutil.CleanText(htmlutil.GetText(received.Nodes[0])))
		if len(fields) < 2 {
			return
		}
		date, err := civil.ParseUS(fields[1])
		if err != nil {
			slog.Warn("unparsable received date in filing row", "raw", fields[1], "err", err)
			return
		}

		subtitle := ""
		if span := row.Find("td:nth-child(2) span").First(); span.Length() > 0 {
			subtitle = htmlutil.CleanText(htmlutil.GetText(span.Nodes[0]))
		}

		out = append(out, Candidate{
			DownloadURL: href,
			Received:    date,
			Subtitle:    subtitle,
		})
	})

	// most-recent-first -> chronological
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// parseDocumentTypeOptions collects the values of the document-type
// dropdown on the case page.
func parseDocumentTypeOptions(pageHTML string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	var out []string
	doc.Find("select#selDocumentType > option").Each(func(_ int, opt *goquery.Selection) {
		if v, ok := opt.Attr("value"); ok {
			out = append(out, v)
		}
	})
	return out, nil
}
