// Package download materializes court documents to disk. Two modes:
// reusing an already-authenticated page's session, or intercepting the
// raw document response stream over a fresh browser connection.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strings"
	"time"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/pdftext"
	"auctionwatch-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// Court system error pages are small; anything under this is treated as
// corrupted regardless of HTTP status.
const minDocumentBytes = 1000

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const interceptTimeout = 2 * time.Minute

type Error struct {
	Reason string
	URL    string
	Size   int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("download %s: %s (%d bytes)", e.URL, e.Reason, e.Size)
}

type Downloader struct {
	Connect  browser.Connector
	Endpoint string
}

func ensureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func validatePDF(ctx context.Context, path string) {
	if err := pdftext.Validate(path); err != nil {
		slog.WarnContext(ctx, "downloaded document failed pdf validation", "path", path, "err", err)
	}
}

// FromPage fetches url through the session the page already
// authenticated: its cookies are exported into an HTTP client so the
// court system sees the same visitor, the body is buffered in full, and
// written only once the integrity checks pass.
func (d Downloader) FromPage(ctx context.Context, page browser.Page, url, dest string) error {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("export page cookies: %w", err)
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	client.SetCookieJar(jar)
	client.SetCookies(cookies)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(interceptTimeout)
	telemetry.InstrumentResty(client, "download/http")

	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}
	if res.IsError() {
		return &Error{Reason: fmt.Sprintf("status %s", res.Status()), URL: url}
	}
	if strings.Contains(res.Header().Get("Content-Type"), "text/html") {
		return &Error{Reason: "html response received instead of document", URL: url}
	}

	body := res.Body()
	if len(body) < minDocumentBytes {
		return &Error{Reason: "content too small, might be corrupted", URL: url, Size: int64(len(body))}
	}

	if err := ensureParent(dest); err != nil {
		return err
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return err
	}
	validatePDF(ctx, dest)

	slog.InfoContext(ctx, "document downloaded", "path", dest, "bytes", len(body))
	return nil
}

// FromStream opens a fresh browser connection, intercepts the first
// document-typed response for url and drains it chunk by chunk to dest.
// When dest is empty the Content-Disposition filename is used, falling
// back to "download.pdf". Returns the final path written.
//
// Every exit path releases the stream, page, file handle and browser
// session; cleanup failures are logged, never propagated.
func (d Downloader) FromStream(ctx context.Context, url, dest string) (string, error) {
	b, err := d.Connect(ctx, d.Endpoint)
	if err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if err := b.Disconnect(); err != nil {
			slog.WarnContext(ctx, "failed to disconnect download browser", "err", err)
		}
	}()

	page, err := b.NewPage(ctx)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(ctx); err != nil {
			slog.WarnContext(ctx, "failed to close download page", "err", err)
		}
	}()

	stream, err := page.InterceptDocument(ctx, url, interceptTimeout)
	if err != nil {
		return "", fmt.Errorf("intercept document: %w", err)
	}
	defer func() {
		// closing acknowledges the intercepted request so the page
		// does not hang
		if err := stream.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close document stream", "err", err)
		}
	}()

	if strings.Contains(stream.ContentType(), "text/html") {
		return "", &Error{Reason: "html response received instead of document", URL: url}
	}

	if dest == "" {
		dest = stream.SuggestedFilename()
		if dest == "" {
			dest = "download.pdf"
		}
	}
	if err := ensureParent(dest); err != nil {
		return "", err
	}
	file, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close document file", "path", dest, "err", err)
		}
	}()

	total, err := io.Copy(file, stream)
	if err != nil {
		// a partial file must not satisfy the missing-filings check on
		// the next run
		if err := os.Remove(dest); err != nil {
			slog.WarnContext(ctx, "failed to remove partial document", "path", dest, "err", err)
		}
		return "", fmt.Errorf("drain document stream: %w", err)
	}
	slog.DebugContext(ctx, "document stream drained", "path", dest, "bytes", total)

	if total < minDocumentBytes {
		// an undersized file must not satisfy the missing-filings check
		// on the next run
		if err := os.Remove(dest); err != nil {
			slog.WarnContext(ctx, "failed to remove undersized document", "path", dest, "err", err)
		}
		return "", &Error{Reason: "content too small, might be corrupted", URL: url, Size: total}
	}
	validatePDF(ctx, dest)

	slog.InfoContext(ctx, "document downloaded", "path", dest, "bytes", total)
	return dest, nil
}
