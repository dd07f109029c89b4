package jobs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/relay/internal/adapters/artifact"
	"go.trai.ch/relay/internal/adapters/logger"
	"go.trai.ch/relay/internal/adapters/notify"
	"go.trai.ch/relay/internal/adapters/shell"
	"go.trai.ch/relay/internal/adapters/telemetry"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/relay/internal/engine/units"
)

// NodeID is the unique identifier for the job runner Graft node.
const NodeID graft.ID = "engine.job_runner"

func init() {
	graft.Register(graft.Node[*Runner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			units.NodeID,
			shell.NodeID,
			artifact.NodeID,
			notify.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Runner, error) {
			unitRunner, err := graft.Dep[*units.Runner](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			artifacts, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}
			notifier, err := graft.Dep[ports.Notifier](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewRunner(unitRunner, executor, artifacts, notifier, tel, log), nil
		},
	})
}
