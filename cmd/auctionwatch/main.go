package main

import (
	"log/slog"

	"auctionwatch-backend/cmd/auctionwatch/commands"
	"auctionwatch-backend/lib/osutil"
	"auctionwatch-backend/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()

	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "auctionwatch")
	if err != nil {
		// telemetry.json5 is optional outside deployments
		slog.Debug("telemetry disabled", "err", err)
	} else {
		defer tel.Shutdown(ctx)
	}

	commands.ExecuteContext(ctx)
}
