package browser

import (
	"context"
	"errors"
)

// The engine adapter registers itself at init time; a deployment links
// exactly one. Keeping the CDP driver out of this module lets the
// pipeline logic stay testable against fakes.

var connector Connector

func Register(c Connector) {
	connector = c
}

// Dial connects through the registered engine adapter.
func Dial(ctx context.Context, endpoint string) (Browser, error) {
	if connector == nil {
		return nil, errors.New("no browser engine linked into this binary")
	}
	return connector(ctx, endpoint)
}
