package filings

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// UnitResult pairs one case's outcome with its fatal error, if any.
type UnitResult struct {
	Request Request
	Result  Result
	Err     error
}

// RunBatch fans independent case units out across a bounded worker pool.
// Each unit owns its own browser session; a fatal error in one unit never
// aborts its siblings.
func (a Acquirer) RunBatch(ctx context.Context, reqs []Request, concurrency int) []UnitResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]UnitResult, len(reqs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, req := range reqs {
		i, req := i, req
		group.Go(func() error {
			res, err := a.Acquire(ctx, req)
			if err != nil {
				slog.WarnContext(ctx, "case acquisition failed", "case", req.CaseNumber, "err", err)
			}
			results[i] = UnitResult{Request: req, Result: res, Err: err}
			return nil
		})
	}
	group.Wait()

	return results
}
