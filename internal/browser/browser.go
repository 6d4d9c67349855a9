// Package browser declares the remote scraping-browser capability the
// pipeline drives. The engine itself (puppeteer-style, reached over a
// websocket endpoint) lives outside this codebase; everything here is
// the surface the acquisition and calendar components depend on, so they
// can be exercised against fakes in tests.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type WaitUntil string

const (
	WaitLoad         WaitUntil = "load"
	WaitNetworkIdle0 WaitUntil = "networkidle0"
	WaitNetworkIdle2 WaitUntil = "networkidle2"
)

type NavigateOptions struct {
	WaitUntil WaitUntil
	Timeout   time.Duration
}

// CaptchaStatus mirrors the managed provider's Captcha.waitForSolve CDP
// extension.
type CaptchaStatus string

const (
	CaptchaSolveFinished CaptchaStatus = "solve_finished"
	CaptchaSolveFailed   CaptchaStatus = "solve_failed"
	CaptchaNotDetected   CaptchaStatus = "not_detected"
)

// DocumentStream is one intercepted document response: the CDP
// Fetch.takeResponseBodyAsStream / IO.read loop surfaced as a reader.
// Closing the stream acknowledges the intercepted request so the
// underlying page does not hang.
type DocumentStream interface {
	io.ReadCloser
	// ContentType reports the intercepted response's content-type header.
	ContentType() string
	// SuggestedFilename reports the filename carried by the
	// Content-Disposition header, or "" when absent.
	SuggestedFilename() string
}

type Page interface {
	Goto(ctx context.Context, url string, opts NavigateOptions) error
	Fill(ctx context.Context, selector, value string) error
	Select(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	WaitForNavigation(ctx context.Context, opts NavigateOptions) error
	// WaitForSelector blocks until the selector appears or the timeout
	// elapses.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// Exists reports whether the selector currently matches an element.
	Exists(ctx context.Context, selector string) (bool, error)
	// Content returns the page's current rendered HTML.
	Content(ctx context.Context) (string, error)
	// Cookies exports the page's session cookies so a sibling HTTP client
	// can reuse the authenticated session.
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	// WaitForCaptchaSolve asks the managed provider's anti-bot layer to
	// resolve any active challenge. Providers without the capability
	// return CaptchaNotDetected.
	WaitForCaptchaSolve(ctx context.Context, detectTimeout time.Duration) (CaptchaStatus, error)
	// InterceptDocument navigates to url and resolves with the first
	// document-typed response. First relevant response wins; later ones
	// are acknowledged and ignored by the engine.
	InterceptDocument(ctx context.Context, url string, timeout time.Duration) (DocumentStream, error)
	Close(ctx context.Context) error
}

type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Disconnect() error
}

// Connector dials a scraping-browser endpoint. The production
// implementation lives with the deployment; tests install fakes.
type Connector func(ctx context.Context, endpoint string) (Browser, error)

const managedEndpointFormat = "wss://%s@brd.superproxy.io:9222"

var ErrNoEndpoint = errors.New(
	"no browser endpoint: pass --browser, set WSS, or set BRIGHTDATA_AUTH for the managed endpoint")

// ResolveEndpoint picks the scraping-browser endpoint: an explicit flag
// wins, then the WSS environment override, then the managed provider
// endpoint built from its auth credential.
func ResolveEndpoint(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if wss := os.Getenv("WSS"); wss != "" {
		return wss, nil
	}
	if auth := os.Getenv("BRIGHTDATA_AUTH"); auth != "" {
		return fmt.Sprintf(managedEndpointFormat, auth), nil
	}
	return "", ErrNoEndpoint
}

// IsManagedEndpoint reports whether the endpoint is the managed scraping
// provider, whose CDP session carries the captcha-solving extension.
func IsManagedEndpoint(endpoint string) bool {
	auth := os.Getenv("BRIGHTDATA_AUTH")
	return auth != "" && endpoint == fmt.Sprintf(managedEndpointFormat, auth)
}
