package main

import (
	"rostat-backend/cmd/rostat/commands"
	"rostat-backend/lib/osutil"
	"rostat-backend/lib/serviceutil"
	"rostat-backend/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()
	_, err := telemetry.SetupFromEnv(ctx, "rostat")
	if err != nil {
		serviceutil.Fatal("failed to set up telemetry", err)
	}
	commands.ExecuteContext(ctx)
}
