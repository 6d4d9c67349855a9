// Package pdftext wraps the external pdftotext collaborator and pdfcpu's
// structural validation.
package pdftext

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Extract shells out to pdftotext with layout preservation. Extraction
// failure is an expected outcome for scanned or malformed documents, so
// it returns "" rather than an error.
func Extract(ctx context.Context, path string) string {
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-q", path, "-").Output()
	if err != nil {
		slog.WarnContext(ctx, "failed to extract pdf text", "path", path, "err", err)
		return ""
	}
	return string(out)
}

// Validate checks the file parses as a PDF at all. Court documents are
// frequently sloppy, so callers treat a failure as a warning signal, not
// a hard error.
func Validate(path string) error {
	return api.ValidateFile(path, nil)
}
