// Package calendar scrapes the per-borough foreclosure auction calendars
// and reconciles the sightings into the case registry.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/caseregistry"
	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/lib/htmlutil"
	"auctionwatch-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

const calendarSearchURL = "https://iapps.courts.state.ny.us/webcivil/FCASCalendarSearch"

const navigateTimeout = 2 * time.Minute
const captchaDetectTimeout = 10 * time.Second

const captchaMarker = "having captcha trouble?"

// Manual-solve wait for endpoints without a captcha-solving provider; a
// human watching the session gets this long to clear the challenge.
const manualSolveBudget = 10 * time.Second
const manualSolvePollStep = 2 * time.Second

// The court recalendars cases constantly; only near-term entries are
// trustworthy snapshots worth persisting.
const lookAheadDays = 21

type BoroughConfig struct {
	CourtID    string
	CalendarID string
}

// DefaultBoroughs maps each borough to its court and foreclosure-auction
// calendar part identifiers.
func DefaultBoroughs() map[string]BoroughConfig {
	return map[string]BoroughConfig{
		"Queens":        {CourtID: "80", CalendarID: "38968"},
		"Manhattan":     {CourtID: "60", CalendarID: "38272"},
		"Bronx":         {CourtID: "124", CalendarID: "38936"},
		"Brooklyn":      {CourtID: "46", CalendarID: "26915"},
		"Staten Island": {CourtID: "84", CalendarID: "45221"},
	}
}

type Sweeper struct {
	Connect  browser.Connector
	Endpoint string
	Boroughs map[string]BoroughConfig
	// ManualSolveBudget and ManualSolvePollStep bound the captcha wait on
	// endpoints without a solving provider; zero values use the defaults.
	ManualSolveBudget   time.Duration
	ManualSolvePollStep time.Duration
}

// Sweep scrapes every configured borough sequentially (one browser
// session at a time, respecting the provider's concurrency limits) and
// returns the auction sightings inside the look-ahead horizon. A borough
// failing is logged and skipped; partial success is the normal outcome.
func (s Sweeper) Sweep(ctx context.Context) []caseregistry.Case {
	horizon := civil.Today().AddDays(lookAheadDays)

	names := make([]string, 0, len(s.Boroughs))
	for name := range s.Boroughs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sightings []caseregistry.Case
	for _, name := range names {
		lots, err := s.scrapeBorough(ctx, name, s.Boroughs[name], horizon)
		if err != nil {
			slog.WarnContext(ctx, "borough scrape failed", "borough", name, "err", err)
			continue
		}
		slog.InfoContext(ctx, "scraped foreclosure calendar", "borough", name, "cases", len(lots))
		sightings = append(sightings, lots...)
	}
	return sightings
}

func (s Sweeper) scrapeBorough(
	ctx context.Context,
	borough string,
	cfg BoroughConfig,
	horizon civil.Date,
) ([]caseregistry.Case, error) {
	b, err := s.Connect(ctx, s.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if err := b.Disconnect(); err != nil {
			slog.WarnContext(ctx, "failed to disconnect calendar browser", "borough", borough, "err", err)
		}
	}()

	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(ctx); err != nil {
			slog.WarnContext(ctx, "failed to close calendar page", "borough", borough, "err", err)
		}
	}()

	err = page.Goto(ctx, calendarSearchURL, browser.NavigateOptions{
		WaitUntil: browser.WaitNetworkIdle2,
		Timeout:   navigateTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open calendar search: %w", err)
	}

	if err := page.Select(ctx, "select#cboCourt", cfg.CourtID); err != nil {
		return nil, fmt.Errorf("select court: %w", err)
	}
	if err := page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle2}); err != nil {
		return nil, fmt.Errorf("select court: %w", err)
	}

	if err := page.Select(ctx, "select#cboCourtPart", cfg.CalendarID); err != nil {
		return nil, fmt.Errorf("select calendar part: %w", err)
	}
	if err := page.Click(ctx, "input#btnFindCalendar"); err != nil {
		return nil, fmt.Errorf("find calendar: %w", err)
	}
	if err := page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle2}); err != nil {
		return nil, fmt.Errorf("find calendar: %w", err)
	}

	if browser.IsManagedEndpoint(s.Endpoint) {
		status, err := page.WaitForCaptchaSolve(ctx, captchaDetectTimeout)
		if err != nil {
			return nil, fmt.Errorf("captcha solve: %w", err)
		}
		slog.DebugContext(ctx, "captcha status", "borough", borough, "status", status)
		if status == browser.CaptchaSolveFailed {
			return nil, fmt.Errorf("captcha solve failed")
		}
	} else if err := s.awaitManualSolve(ctx, page, borough); err != nil {
		return nil, err
	}

	// some boroughs interpose a filter form before the calendar renders
	hasFilter, err := page.Exists(ctx, "input#btnApply")
	if err != nil {
		return nil, fmt.Errorf("probe filter form: %w", err)
	}
	if hasFilter {
		if err := page.Click(ctx, "#showForm > tbody > tr:nth-child(6) > td > input:nth-child(1)"); err != nil {
			return nil, fmt.Errorf("select filter option: %w", err)
		}
		if err := page.Click(ctx, "input#btnApply"); err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
		if err := page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle2}); err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
	}

	content, err := page.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("read calendar page: %w", err)
	}
	entries, err := parseAuctionEntries(content, borough)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	slog.DebugContext(ctx, "parsed calendar entries", "borough", borough, "total", len(entries))

	var out []caseregistry.Case
	for _, e := range entries {
		if e.AuctionDate.Before(horizon) {
			out = append(out, e)
		}
	}
	return out, nil
}

// awaitManualSolve polls the page for the captcha interstitial so a
// calendar is never parsed out of the challenge page itself.
func (s Sweeper) awaitManualSolve(ctx context.Context, page browser.Page, borough string) error {
	budget, step := s.ManualSolveBudget, s.ManualSolvePollStep
	if budget <= 0 {
		budget = manualSolveBudget
	}
	if step <= 0 {
		step = manualSolvePollStep
	}

	remaining := budget
	for remaining > 0 {
		content, err := page.Content(ctx)
		if err != nil {
			return fmt.Errorf("probe captcha: %w", err)
		}
		if !strings.Contains(strings.ToLower(content), captchaMarker) {
			return nil
		}

		slog.InfoContext(ctx, "captcha detected, waiting for manual solve", "borough", borough)
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		remaining -= step
	}
	return fmt.Errorf("captcha not solved within %s", budget)
}

// parseAuctionEntries walks the calendar's <dt> list. Each entry's anchor
// carries an onclick handler whose arguments encode the raw auction date;
// the dt's loose leading text carries the index number.
func parseAuctionEntries(pageHTML, borough string) ([]caseregistry.Case, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	var out []caseregistry.Case
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		anchor := dt.Find("a").First()
		if anchor.Length() == 0 {
			return
		}
		onclick, ok := anchor.Attr("onclick")
		if !ok {
			return
		}

		date, err := parseOnclickDate(onclick)
		if err != nil {
			slog.Warn("unparsable calendar entry date", "onclick", onclick, "err", err)
			return
		}

		// the dt's own text reads "Index Number: NNNNN/YYYY" before the
		// anchor
		fields := strings.Fields(htmlutil.FirstText(dt.Nodes[0]))
		if len(fields) < 3 {
			return
		}

		out = append(out, caseregistry.Case{
			CaseNumber:  fields[2],
			Borough:     borough,
			AuctionDate: date,
			CaseName:    htmlutil.CleanText(htmlutil.GetText(anchor.Nodes[0])),
		})
	})
	return out, nil
}

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// parseOnclickDate digs the raw date string out of the handler's argument
// list (arguments 6 and 7 rejoined, since the date itself contains a
// comma), strips its quoting and weekday token, and parses the rest.
func parseOnclickDate(onclick string) (civil.Date, error) {
	parts := strings.Split(onclick, ",")
	if len(parts) < 8 {
		return civil.Date{}, fmt.Errorf("onclick has %d arguments, want at least 8", len(parts))
	}
	raw := strings.Join(parts[6:8], ",")

	raw = strings.ReplaceAll(raw, "'", "")
	raw = strings.TrimSpace(raw)

	// "Friday November 15, 2024" -> "November 15, 2024"
	if first, rest, found := strings.Cut(raw, " "); found {
		if weekdays[strings.ToLower(strings.TrimSuffix(first, ","))] {
			raw = strings.TrimSpace(rest)
		}
	}

	t, err := time.ParseInLocation("January 2, 2006", raw, timezone.Location)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.Of(t), nil
}

// Reconcile merges a sweep's sightings into the persisted registry.
func Reconcile(ctx context.Context, store caseregistry.Store, sightings []caseregistry.Case) error {
	return store.Merge(ctx, sightings)
}
