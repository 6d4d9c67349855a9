package filings

import (
	"testing"
	"time"

	"auctionwatch-backend/internal/civil"

	"github.com/stretchr/testify/require"
)

const filingListPage = `
<html><body>
<table class="NewSearchResults">
<tbody>
<tr>
  <td>3</td>
  <td><a href="https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=333">NOTICE OF SALE</a>
      <span>Notice of Sale (Affirmation)</span></td>
  <td><span>Received 03/01/2025</span></td>
</tr>
<tr>
  <td>2</td>
  <td><a href="https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=222">NOTICE OF SALE</a>
      <span>Notice of Cancellation of Sale</span></td>
  <td><span>Received 02/01/2025</span></td>
</tr>
<tr>
  <td>1</td>
  <td><a href="https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=111">NOTICE OF SALE</a></td>
  <td><span>Received 01/15/2025</span></td>
</tr>
<tr>
  <td>header-ish row without a link</td>
  <td>no documents</td>
  <td></td>
</tr>
</tbody>
</table>
</body></html>`

func TestParseCandidates(t *testing.T) {
	candidates, err := parseCandidates(filingListPage)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, candidates, 3)

	// reversed into chronological order
	require.Equal(t, Candidate{
		DownloadURL: "https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=111",
		Received:    civil.Date{Year: 2025, Month: time.January, Day: 15},
	}, candidates[0])
	require.Equal(t, "Notice of Cancellation of Sale", candidates[1].Subtitle)
	require.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 1}, candidates[2].Received)
}

func TestParseCandidatesEmptyPage(t *testing.T) {
	candidates, err := parseCandidates(`<html><body><p>No documents found.</p></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, candidates, 0)
}

func TestEarliestCandidateRepresentsFilingType(t *testing.T) {
	page := `
<table class="NewSearchResults"><tbody>
<tr><td>2</td>
  <td><a href="https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=2">NOTICE OF SALE</a></td>
  <td><span>Received 01/01/2025</span></td></tr>
<tr><td>1</td>
  <td><a href="https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=1">NOTICE OF SALE</a></td>
  <td><span>Received 12/20/2024</span></td></tr>
</tbody></table>`

	candidates, err := parseCandidates(page)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, candidates, 2)
	require.Equal(t, civil.Date{Year: 2024, Month: time.December, Day: 20}, candidates[0].Received)

	// within the 90-day window and before the auction, so it's accepted
	auction := civil.Date{Year: 2025, Month: time.March, Day: 1}
	accept, _ := evaluateCandidate(NoticeOfSale, candidates[0], auction)
	require.True(t, accept)
}

const casePage = `
<html><body>
<select id="selDocumentType">
  <option value="">-- select --</option>
  <option value="1163">NOTICE OF SALE</option>
  <option value="3664">DISCONTINUE</option>
</select>
</body></html>`

func TestParseDocumentTypeOptions(t *testing.T) {
	options, err := parseDocumentTypeOptions(casePage)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, []string{"", "1163", "3664"}, options)
}
