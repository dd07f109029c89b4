package units

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/relay/internal/adapters/cache"
	"go.trai.ch/relay/internal/adapters/fs"
	"go.trai.ch/relay/internal/adapters/keys"
	"go.trai.ch/relay/internal/adapters/logger"
	"go.trai.ch/relay/internal/adapters/shell"
	"go.trai.ch/relay/internal/adapters/telemetry"
	"go.trai.ch/relay/internal/core/ports"
)

// NodeID is the unique identifier for the unit runner Graft node.
const NodeID graft.ID = "engine.unit_runner"

func init() {
	graft.Register(graft.Node[*Runner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			keys.NodeID,
			cache.NodeID,
			fs.SyncerNodeID,
			fs.HasherNodeID,
			shell.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Runner, error) {
			deriver, err := graft.Dep[ports.KeyDeriver](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}
			syncer, err := graft.Dep[ports.Syncer](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[*fs.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
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
			return NewRunner(deriver, store, syncer, executor, hasher, tel, log), nil
		},
	})
}
