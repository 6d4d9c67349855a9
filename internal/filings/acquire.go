package filings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/docstore"
)

const caseSearchURL = "https://iapps.courts.state.ny.us/nyscef/CaseSearch"

const (
	navigateTimeout      = 2 * time.Minute
	captchaDetectTimeout = 10 * time.Second
	captchaPollBudget    = 60 * time.Second
	captchaPollStep      = 5 * time.Second
	narrowFallbackWait   = 15 * time.Second
)

const captchaMarker = "having captcha trouble?"

// Fatal-per-unit conditions. They abort the current case only; sibling
// units in a batch keep running.
var (
	ErrUnknownCounty      = errors.New("unknown county")
	ErrFormFill           = errors.New("failed to fill case search form")
	ErrCaptchaTimeout     = errors.New("captcha timeout")
	ErrCaptchaSolveFailed = errors.New("captcha solve failed")
	ErrDownloadFailed     = errors.New("document download failed")
)

// Status is the closed set of benign terminal outcomes for a case or a
// single filing type. None of these are failures.
type Status string

const (
	StatusFetched      Status = "fetched"
	StatusNoCase       Status = "no case found"
	StatusDiscontinued Status = "case discontinued"
	StatusAlreadyHave  Status = "already stored"
	StatusNotOffered   Status = "filing type not offered"
	StatusNoDocuments  Status = "no documents listed"
	StatusRejected     Status = "rejected by date window"
)

type FilingOutcome struct {
	Type   FilingType
	Status Status
	// Path is set when Status is StatusFetched or StatusAlreadyHave.
	Path string
	// Reason elaborates a StatusRejected outcome.
	Reason string
}

type Result struct {
	CaseNumber string
	// Status is StatusFetched when the case was opened and processed,
	// otherwise StatusNoCase or StatusDiscontinued.
	Status   Status
	Outcomes []FilingOutcome
}

// DocumentFetcher is the downloader dependency; satisfied by
// download.Downloader.
type DocumentFetcher interface {
	FromPage(ctx context.Context, page browser.Page, url, dest string) error
}

type Acquirer struct {
	Connect  browser.Connector
	Endpoint string
	Counties map[string]string
	Store    docstore.Store
	Fetcher  DocumentFetcher
	// CaptchaPollBudget and CaptchaPollStep bound the manual-solve wait;
	// zero values use the defaults.
	CaptchaPollBudget time.Duration
	CaptchaPollStep   time.Duration
}

// releaser guarantees the page and browser session are released exactly
// once no matter which exit path runs.
type releaser struct {
	once sync.Once
	fn   func()
}

func (r *releaser) release() {
	r.once.Do(r.fn)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire runs the case-search form for one case and downloads its
// still-missing filings. Benign terminal outcomes (no case, discontinued,
// nothing acceptable to download) come back as a Result; only
// fatal-per-unit conditions return an error.
func (a Acquirer) Acquire(ctx context.Context, req Request) (Result, error) {
	result := Result{CaseNumber: req.CaseNumber, Status: StatusFetched}

	countyCode, ok := a.Counties[req.County]
	if !ok {
		return result, fmt.Errorf("%w: %q", ErrUnknownCounty, req.County)
	}

	b, err := a.Connect(ctx, a.Endpoint)
	if err != nil {
		return result, fmt.Errorf("connect browser: %w", err)
	}
	page, err := b.NewPage(ctx)
	if err != nil {
		b.Disconnect()
		return result, fmt.Errorf("open page: %w", err)
	}
	cleanup := &releaser{fn: func() {
		if err := page.Close(ctx); err != nil {
			slog.WarnContext(ctx, "failed to close case page", "case", req.CaseNumber, "err", err)
		}
		if err := b.Disconnect(); err != nil {
			slog.WarnContext(ctx, "failed to disconnect browser", "case", req.CaseNumber, "err", err)
		}
	}}
	defer cleanup.release()

	err = page.Goto(ctx, caseSearchURL, browser.NavigateOptions{
		WaitUntil: browser.WaitNetworkIdle0,
		Timeout:   navigateTimeout,
	})
	if err != nil {
		return result, fmt.Errorf("open case search: %w", err)
	}

	if err := page.Fill(ctx, "#txtCaseIdentifierNumber", req.CaseNumber); err != nil {
		return result, fmt.Errorf("%w: %v", ErrFormFill, err)
	}
	if err := page.Select(ctx, "select#txtCounty", countyCode); err != nil {
		return result, fmt.Errorf("%w: %v", ErrFormFill, err)
	}

	if err := page.Click(ctx, "button[name='btnSubmit']"); err != nil {
		return result, fmt.Errorf("submit case search: %w", err)
	}
	if err := page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle2}); err != nil {
		return result, fmt.Errorf("submit case search: %w", err)
	}

	if err := a.awaitCaptcha(ctx, page, req.CaseNumber); err != nil {
		return result, err
	}

	hasResults, err := page.Exists(ctx, "table.NewSearchResults")
	if err != nil {
		return result, fmt.Errorf("probe results table: %w", err)
	}
	if !hasResults {
		slog.InfoContext(ctx, "no case found for index number", "case", req.CaseNumber)
		result.Status = StatusNoCase
		return result, nil
	}

	if err := page.Click(ctx, "table.NewSearchResults > tbody > tr > td > a"); err != nil {
		slog.WarnContext(ctx, "could not open case from results", "case", req.CaseNumber, "err", err)
		result.Status = StatusNoCase
		return result, nil
	}
	if err := page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle0}); err != nil {
		slog.WarnContext(ctx, "could not open case from results", "case", req.CaseNumber, "err", err)
		result.Status = StatusNoCase
		return result, nil
	}

	if browser.IsManagedEndpoint(a.Endpoint) {
		status, err := page.WaitForCaptchaSolve(ctx, captchaDetectTimeout)
		if err != nil {
			return result, fmt.Errorf("captcha solve: %w", err)
		}
		slog.DebugContext(ctx, "captcha status", "case", req.CaseNumber, "status", status)
		if status == browser.CaptchaSolveFailed {
			return result, ErrCaptchaSolveFailed
		}
	}

	content, err := page.Content(ctx)
	if err != nil {
		return result, fmt.Errorf("read case page: %w", err)
	}
	available, err := parseDocumentTypeOptions(content)
	if err != nil {
		return result, fmt.Errorf("parse document types: %w", err)
	}

	if slices.Contains(available, discontinueDocumentID) {
		slog.InfoContext(ctx, "motion to discontinue detected", "case", req.CaseNumber)
		if err := a.Store.NoteDiscontinued(req.CaseNumber); err != nil {
			slog.WarnContext(ctx, "failed to append discontinuance log", "case", req.CaseNumber, "err", err)
		}
		result.Status = StatusDiscontinued
		return result, nil
	}

	for _, filing := range req.Missing {
		outcome, err := a.acquireFiling(ctx, page, req, filing, available)
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil {
			return result, err
		}
		if outcome.Status == StatusAlreadyHave || outcome.Status == StatusNotOffered {
			// nothing touched the form, no reset needed
			continue
		}

		// the form must be cleared before the next filing type; when the
		// reset control is gone, remaining types are skipped but the
		// filings already fetched stand
		if err := a.clearForm(ctx, page); err != nil {
			slog.WarnContext(ctx, "failed to reset narrow form, skipping remaining filing types",
				"case", req.CaseNumber, "err", err)
			break
		}
	}

	return result, nil
}

func (a Acquirer) awaitCaptcha(ctx context.Context, page browser.Page, caseNumber string) error {
	budget, step := a.CaptchaPollBudget, a.CaptchaPollStep
	if budget <= 0 {
		budget = captchaPollBudget
	}
	if step <= 0 {
		step = captchaPollStep
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

		slog.InfoContext(ctx, "captcha detected, waiting for manual solve", "case", caseNumber)
		if err := sleepCtx(ctx, step); err != nil {
			return err
		}
		remaining -= step
	}
	return fmt.Errorf("%w: %s", ErrCaptchaTimeout, caseNumber)
}

func (a Acquirer) acquireFiling(
	ctx context.Context,
	page browser.Page,
	req Request,
	filing FilingType,
	available []string,
) (FilingOutcome, error) {
	outcome := FilingOutcome{Type: filing}

	dest := StoragePath(a.Store, filing, req.CaseNumber, req.AuctionDate)
	if a.Store.Has(dest) {
		outcome.Status = StatusAlreadyHave
		outcome.Path = dest
		return outcome, nil
	}
	if !slices.Contains(available, filing.DocumentID()) {
		outcome.Status = StatusNotOffered
		return outcome, nil
	}

	if err := page.Select(ctx, "select#selDocumentType", filing.DocumentID()); err != nil {
		return outcome, fmt.Errorf("select document type: %w", err)
	}
	if err := page.Click(ctx, "input[name='btnNarrow']"); err != nil {
		return outcome, fmt.Errorf("narrow filter: %w", err)
	}
	if err := page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle0}); err != nil {
		// the narrow filter sometimes updates the table via partial
		// reload without a full navigation
		slog.DebugContext(ctx, "narrow filter navigation timed out, waiting for table",
			"case", req.CaseNumber, "err", err)
		if err := page.WaitForSelector(ctx, "table.NewSearchResults", narrowFallbackWait); err != nil {
			return outcome, fmt.Errorf("narrow filter results: %w", err)
		}
	}

	content, err := page.Content(ctx)
	if err != nil {
		return outcome, fmt.Errorf("read filing list: %w", err)
	}
	candidates, err := parseCandidates(content)
	if err != nil {
		return outcome, fmt.Errorf("parse filing list: %w", err)
	}
	if len(candidates) == 0 {
		slog.InfoContext(ctx, "no documents listed", "case", req.CaseNumber, "filing", filing)
		outcome.Status = StatusNoDocuments
		return outcome, nil
	}

	// earliest-received candidate represents this filing type
	candidate := candidates[0]
	accept, reason := evaluateCandidate(filing, candidate, req.AuctionDate)
	if !accept {
		slog.InfoContext(ctx, "candidate rejected", "case", req.CaseNumber, "filing", filing, "reason", reason)
		outcome.Status = StatusRejected
		outcome.Reason = reason
		return outcome, nil
	}

	if err := a.Store.NoteDownload(a.Store.RelPath(dest), candidate.DownloadURL); err != nil {
		slog.WarnContext(ctx, "failed to append download audit", "case", req.CaseNumber, "err", err)
	}
	if err := a.Fetcher.FromPage(ctx, page, candidate.DownloadURL, dest); err != nil {
		return outcome, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	outcome.Status = StatusFetched
	outcome.Path = dest
	return outcome, nil
}

func (a Acquirer) clearForm(ctx context.Context, page browser.Page) error {
	if err := page.Click(ctx, "input[name='btnClear']"); err != nil {
		return err
	}
	return page.WaitForNavigation(ctx, browser.NavigateOptions{WaitUntil: browser.WaitNetworkIdle0})
}
