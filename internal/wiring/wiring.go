// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/relay/internal/adapters/artifact"
	_ "go.trai.ch/relay/internal/adapters/cache"
	_ "go.trai.ch/relay/internal/adapters/config"
	_ "go.trai.ch/relay/internal/adapters/fs"
	_ "go.trai.ch/relay/internal/adapters/gitrev"
	_ "go.trai.ch/relay/internal/adapters/keys"
	_ "go.trai.ch/relay/internal/adapters/logger"
	_ "go.trai.ch/relay/internal/adapters/notify"
	_ "go.trai.ch/relay/internal/adapters/shell"
	_ "go.trai.ch/relay/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/relay/internal/app"
	_ "go.trai.ch/relay/internal/engine/jobs"
	_ "go.trai.ch/relay/internal/engine/scheduler"
	_ "go.trai.ch/relay/internal/engine/units"
)
