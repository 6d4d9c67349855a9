// Package docstore owns the on-disk layout of downloaded court documents
// and the append-only side-effect logs next to them.
//
// The tree is rooted at a configurable base directory with one
// subdirectory per filing type. Notice-of-sale documents are partitioned
// a level deeper by auction date, because a case can come back for
// another auction cycle with a fresh notice; surplus money forms keep a
// single flat copy per case.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"auctionwatch-backend/internal/civil"
)

type Store struct {
	// Root is the document tree base, e.g. web/saledocs.
	Root string
	// LogDir holds the append-only side logs, e.g. web/foreclosures.
	LogDir string
}

// CaseFileName converts an index number like "12345/2020" into the flat
// file name the court documents are stored under.
func CaseFileName(caseNumber string) string {
	return strings.ReplaceAll(caseNumber, "/", "-") + ".pdf"
}

// FlatPath is the unpartitioned location for a filing: <root>/<dir>/<case>.pdf.
func (s Store) FlatPath(dir, caseNumber string) string {
	return filepath.Join(s.Root, dir, CaseFileName(caseNumber))
}

// PartitionedPath is the date-partitioned location:
// <root>/<dir>/<auction-date>/<case>.pdf.
func (s Store) PartitionedPath(dir, caseNumber string, auctionDate civil.Date) string {
	return filepath.Join(s.Root, dir, auctionDate.String(), CaseFileName(caseNumber))
}

// Has reports whether a document already exists at path. Path existence
// doubles as the filing's cache flag.
func (s Store) Has(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RelPath renders a path relative to the store root for the audit log.
func (s Store) RelPath(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return path
	}
	return rel
}

func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// NoteDiscontinued records that a case carries a motion to discontinue,
// meaning no further filings will ever appear for it.
func (s Store) NoteDiscontinued(caseNumber string) error {
	return appendLine(
		filepath.Join(s.LogDir, "cases.log"),
		fmt.Sprintf("%s Discontinued\n", caseNumber),
	)
}

// NoteDownload appends a download-audit line of "<relative_path>,<source_url>".
func (s Store) NoteDownload(relPath, sourceURL string) error {
	return appendLine(
		filepath.Join(s.LogDir, "download.csv"),
		fmt.Sprintf("%s,%s\n", relPath, sourceURL),
	)
}
