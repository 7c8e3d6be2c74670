package main

import (
	"context"

	"hcpresearch-backend/lib/restyutil"
	"hcpresearch-backend/lib/serviceutil"
	"hcpresearch-backend/lib/telemetry"
)

func initTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	err := telemetry.SetupFromEnv(ctx, "hcp-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	if verbose {
		restyutil.SetInstrumentOutput(
			restyutil.NewFilesystemOutput("resty_telemetry"),
		)
	}
}
