package filings

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/internal/docstore"

	"github.com/stretchr/testify/require"
)

type fakePage struct {
	// successive Content() results; the last one repeats once exhausted
	contents []string
	exists   map[string]bool
	filled   map[string]string
	selected map[string]string
	clicked  []string
	closed   bool
	// narrowNavErr fails the navigation wait that follows the narrow
	// filter; selectorErr fails the table fallback wait
	narrowNavErr error
	selectorErr  error
}

func (p *fakePage) Goto(ctx context.Context, url string, opts browser.NavigateOptions) error {
	return nil
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[selector] = value
	return nil
}

func (p *fakePage) Select(ctx context.Context, selector, value string) error {
	if p.selected == nil {
		p.selected = map[string]string{}
	}
	p.selected[selector] = value
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.clicked = append(p.clicked, selector)
	return nil
}

func (p *fakePage) WaitForNavigation(ctx context.Context, opts browser.NavigateOptions) error {
	if p.narrowNavErr != nil && len(p.clicked) > 0 && p.clicked[len(p.clicked)-1] == "input[name='btnNarrow']" {
		return p.narrowNavErr
	}
	return nil
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return p.selectorErr
}

func (p *fakePage) Exists(ctx context.Context, selector string) (bool, error) {
	return p.exists[selector], nil
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	if len(p.contents) == 0 {
		return "", nil
	}
	content := p.contents[0]
	if len(p.contents) > 1 {
		p.contents = p.contents[1:]
	}
	return content, nil
}

func (p *fakePage) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	return nil, nil
}

func (p *fakePage) WaitForCaptchaSolve(ctx context.Context, detectTimeout time.Duration) (browser.CaptchaStatus, error) {
	return browser.CaptchaNotDetected, nil
}

func (p *fakePage) InterceptDocument(ctx context.Context, url string, timeout time.Duration) (browser.DocumentStream, error) {
	return nil, nil
}

func (p *fakePage) Close(ctx context.Context) error {
	p.closed = true
	return nil
}

type fakeBrowser struct {
	page         *fakePage
	disconnected bool
}

func (b *fakeBrowser) NewPage(ctx context.Context) (browser.Page, error) {
	return b.page, nil
}

func (b *fakeBrowser) Disconnect() error {
	b.disconnected = true
	return nil
}

type fakeFetcher struct {
	urls []string
}

func (f *fakeFetcher) FromPage(ctx context.Context, page browser.Page, url, dest string) error {
	f.urls = append(f.urls, url)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("%PDF-1.4 fake"), 0o644)
}

func newTestAcquirer(t *testing.T, page *fakePage) (Acquirer, *fakeBrowser, *fakeFetcher) {
	b := &fakeBrowser{page: page}
	fetcher := &fakeFetcher{}
	root := t.TempDir()
	acquirer := Acquirer{
		Connect: func(ctx context.Context, endpoint string) (browser.Browser, error) {
			return b, nil
		},
		Endpoint: "ws://localhost:9222",
		Counties: DefaultCounties(),
		Store: docstore.Store{
			Root:   filepath.Join(root, "saledocs"),
			LogDir: filepath.Join(root, "foreclosures"),
		},
		Fetcher: fetcher,
	}
	return acquirer, b, fetcher
}

const caseResultsPage = `<html><body><table class="NewSearchResults"><tbody></tbody></table></body></html>`

const caseDetailPage = `<html><body>
<select id="selDocumentType">
  <option value="1163">NOTICE OF SALE</option>
  <option value="1741">SURPLUS MONEY FORM</option>
</select>
</body></html>`

const discontinuedDetailPage = `<html><body>
<select id="selDocumentType">
  <option value="1163">NOTICE OF SALE</option>
  <option value="3664">DISCONTINUE</option>
</select>
</body></html>`

const noticeListPage = `<html><body>
<table class="NewSearchResults"><tbody>
<tr>
  <td>1</td>
  <td><a href="https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=111">NOTICE OF SALE</a></td>
  <td><span>Received 02/20/2025</span></td>
</tr>
</tbody></table>
</body></html>`

func TestAcquireFetchesMissingNotice(t *testing.T) {
	page := &fakePage{
		contents: []string{caseResultsPage, caseDetailPage, noticeListPage},
		exists:   map[string]bool{"table.NewSearchResults": true},
	}
	acquirer, b, fetcher := newTestAcquirer(t, page)

	req := Request{
		CaseNumber:  "12345/2020",
		County:      "Queens",
		AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 15},
		Missing:     []FilingType{NoticeOfSale},
	}
	result, err := acquirer.Acquire(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, StatusFetched, result.Status)
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, StatusFetched, result.Outcomes[0].Status)
	require.FileExists(t, result.Outcomes[0].Path)
	require.Contains(t, result.Outcomes[0].Path, "2025-03-15")

	require.Equal(t, []string{"https://iapps.courts.state.ny.us/nyscef/ViewDocument?docIndex=111"}, fetcher.urls)
	require.Equal(t, "12345/2020", page.filled["#txtCaseIdentifierNumber"])
	require.Equal(t, "41", page.selected["select#txtCounty"])
	require.True(t, page.closed)
	require.True(t, b.disconnected)

	audit, err := os.ReadFile(filepath.Join(acquirer.Store.LogDir, "download.csv"))
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, string(audit), "docIndex=111")
}

func TestAcquireNoCaseFound(t *testing.T) {
	page := &fakePage{
		contents: []string{`<html><body>No cases found.</body></html>`},
		exists:   map[string]bool{},
	}
	acquirer, _, fetcher := newTestAcquirer(t, page)

	result, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber: "99999/2020",
		County:     "Bronx",
		Missing:    []FilingType{NoticeOfSale},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, StatusNoCase, result.Status)
	require.Empty(t, fetcher.urls)
}

func TestAcquireDiscontinuedCase(t *testing.T) {
	page := &fakePage{
		contents: []string{caseResultsPage, discontinuedDetailPage},
		exists:   map[string]bool{"table.NewSearchResults": true},
	}
	acquirer, _, fetcher := newTestAcquirer(t, page)

	result, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber: "12345/2020",
		County:     "Queens",
		Missing:    []FilingType{NoticeOfSale, SurplusMoneyForm},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, StatusDiscontinued, result.Status)
	require.Empty(t, result.Outcomes)
	require.Empty(t, fetcher.urls)

	log, err := os.ReadFile(filepath.Join(acquirer.Store.LogDir, "cases.log"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "12345/2020 Discontinued\n", string(log))
}

func TestAcquireFilingTypeNotOffered(t *testing.T) {
	onlyNotice := `<html><body>
<select id="selDocumentType"><option value="1163">NOTICE OF SALE</option></select>
</body></html>`
	page := &fakePage{
		contents: []string{caseResultsPage, onlyNotice},
		exists:   map[string]bool{"table.NewSearchResults": true},
	}
	acquirer, _, fetcher := newTestAcquirer(t, page)

	result, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber: "12345/2020",
		County:     "Queens",
		Missing:    []FilingType{SurplusMoneyForm},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, StatusFetched, result.Status)
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, StatusNotOffered, result.Outcomes[0].Status)
	require.Empty(t, fetcher.urls)
}

func TestAcquireRejectsStaleNotice(t *testing.T) {
	staleList := strings.ReplaceAll(noticeListPage, "02/20/2025", "06/01/2024")
	page := &fakePage{
		contents: []string{caseResultsPage, caseDetailPage, staleList},
		exists:   map[string]bool{"table.NewSearchResults": true},
	}
	acquirer, _, fetcher := newTestAcquirer(t, page)

	result, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber:  "12345/2020",
		County:      "Queens",
		AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 15},
		Missing:     []FilingType{NoticeOfSale},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, StatusRejected, result.Outcomes[0].Status)
	require.NotEmpty(t, result.Outcomes[0].Reason)
	require.Empty(t, fetcher.urls)
}

func TestAcquireUnknownCounty(t *testing.T) {
	acquirer, _, _ := newTestAcquirer(t, &fakePage{})

	_, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber: "12345/2020",
		County:     "Albany",
		Missing:    []FilingType{NoticeOfSale},
	})
	require.ErrorIs(t, err, ErrUnknownCounty)
}

func TestAcquireCaptchaTimeout(t *testing.T) {
	captchaPage := `<html><body>Having CAPTCHA trouble? Please solve the challenge below.</body></html>`
	page := &fakePage{
		contents: []string{captchaPage},
		exists:   map[string]bool{"table.NewSearchResults": true},
	}
	acquirer, b, fetcher := newTestAcquirer(t, page)
	acquirer.CaptchaPollBudget = 20 * time.Millisecond
	acquirer.CaptchaPollStep = 5 * time.Millisecond

	_, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber: "12345/2020",
		County:     "Queens",
		Missing:    []FilingType{NoticeOfSale},
	})
	require.ErrorIs(t, err, ErrCaptchaTimeout)
	require.Empty(t, fetcher.urls)

	// the session is still released on the timeout path
	require.True(t, page.closed)
	require.True(t, b.disconnected)
}

func TestAcquireNarrowFallsBackToTableWait(t *testing.T) {
	page := &fakePage{
		contents:     []string{caseResultsPage, caseDetailPage, noticeListPage},
		exists:       map[string]bool{"table.NewSearchResults": true},
		narrowNavErr: errors.New("navigation timeout"),
	}
	acquirer, _, fetcher := newTestAcquirer(t, page)

	// the narrow filter updated the table via partial reload; waiting for
	// the table directly still finds the filing
	result, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber:  "12345/2020",
		County:      "Queens",
		AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 15},
		Missing:     []FilingType{NoticeOfSale},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, StatusFetched, result.Outcomes[0].Status)
	require.Len(t, fetcher.urls, 1)
}

func TestAcquireNarrowFallbackExhausted(t *testing.T) {
	page := &fakePage{
		contents:     []string{caseResultsPage, caseDetailPage},
		exists:       map[string]bool{"table.NewSearchResults": true},
		narrowNavErr: errors.New("navigation timeout"),
		selectorErr:  errors.New("selector timeout"),
	}
	acquirer, b, fetcher := newTestAcquirer(t, page)

	_, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber:  "12345/2020",
		County:      "Queens",
		AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 15},
		Missing:     []FilingType{NoticeOfSale},
	})
	require.ErrorContains(t, err, "narrow filter results")
	require.Empty(t, fetcher.urls)
	require.True(t, page.closed)
	require.True(t, b.disconnected)
}

func TestAcquireAlreadyStored(t *testing.T) {
	page := &fakePage{
		contents: []string{caseResultsPage, caseDetailPage},
		exists:   map[string]bool{"table.NewSearchResults": true},
	}
	acquirer, _, fetcher := newTestAcquirer(t, page)

	dest := acquirer.Store.FlatPath(SurplusMoneyForm.Dir(), "12345/2020")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("%PDF-1.4"), 0o644))

	result, err := acquirer.Acquire(context.Background(), Request{
		CaseNumber: "12345/2020",
		County:     "Queens",
		Missing:    []FilingType{SurplusMoneyForm},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, StatusAlreadyHave, result.Outcomes[0].Status)
	require.Empty(t, fetcher.urls)
}
