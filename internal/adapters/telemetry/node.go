package telemetry

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/relay/internal/adapters/telemetry/progrock"
	"go.trai.ch/relay/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Telemetry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Telemetry, error) {
			// Progress rendering is for humans; CI log collectors get the
			// plain slog stream instead.
			if os.Getenv("CI") != "" {
				return NewNoOp(), nil
			}
			return progrock.New(), nil
		},
	})
}
