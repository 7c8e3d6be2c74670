package main

import (
	"context"
	"log/slog"

	"hcpresearch-backend/cmd/hcp-cli/commands"
	"hcpresearch-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)
	err := telemetry.SetupFromEnv(context.Background(), "hcp-cli")
	if err != nil {
		// the cli still works without exporters
		slog.Warn("failed to set up telemetry", "err", err)
	}
	commands.ExecuteContext(context.Background())
}
