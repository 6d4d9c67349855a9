// Package organize retrofits date partitions onto notice-of-sale
// documents that were downloaded before their auction date was known.
// It reads each flat PDF's text layer, extracts the scheduled auction
// date, and moves the file into the matching date subdirectory.
package organize

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/internal/docstore"
	"auctionwatch-backend/internal/filings"
	"auctionwatch-backend/internal/noticedate"
	"auctionwatch-backend/internal/pdftext"
)

type Status string

const (
	// StatusMoved means the file was placed into its date partition.
	StatusMoved Status = "moved"
	// StatusDuplicate means the partition already held a copy; the flat
	// duplicate was removed.
	StatusDuplicate Status = "duplicate"
	// StatusSkipped means no auction date could be extracted and the file
	// stays flat for manual review.
	StatusSkipped Status = "skipped"
)

type FileResult struct {
	Name        string
	Status      Status
	AuctionDate civil.Date
}

// ExtractFunc produces the text layer of a PDF. Injected so tests don't
// need the pdftotext binary.
type ExtractFunc func(ctx context.Context, path string) string

type Organizer struct {
	Store   docstore.Store
	Extract ExtractFunc
}

func New(store docstore.Store) Organizer {
	return Organizer{Store: store, Extract: pdftext.Extract}
}

// Run sweeps the flat (unpartitioned) notice-of-sale documents and sorts
// each into its auction-date partition. Files whose date cannot be read
// are left in place.
func (o Organizer) Run(ctx context.Context) ([]FileResult, error) {
	dir := filepath.Join(o.Store.Root, filings.NoticeOfSale.Dir())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []FileResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		res, err := o.organizeFile(ctx, dir, entry.Name())
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (o Organizer) organizeFile(ctx context.Context, dir, name string) (FileResult, error) {
	path := filepath.Join(dir, name)

	text := o.Extract(ctx, path)
	auctionTime, ok := noticedate.Extract(text)
	if !ok {
		slog.InfoContext(ctx, "no auction date in notice, leaving flat", "file", name)
		return FileResult{Name: name, Status: StatusSkipped}, nil
	}
	date := civil.Of(auctionTime)

	dest := filepath.Join(dir, date.String(), name)
	if o.Store.Has(dest) {
		slog.InfoContext(ctx, "partition already holds a copy, removing flat duplicate",
			"file", name, "auction_date", date)
		if err := os.Remove(path); err != nil {
			return FileResult{}, err
		}
		return FileResult{Name: name, Status: StatusDuplicate, AuctionDate: date}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return FileResult{}, err
	}
	if err := os.Rename(path, dest); err != nil {
		return FileResult{}, err
	}
	slog.InfoContext(ctx, "sorted notice into date partition", "file", name, "auction_date", date)
	return FileResult{Name: name, Status: StatusMoved, AuctionDate: date}, nil
}
