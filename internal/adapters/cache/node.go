package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/relay/internal/adapters/fs"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
)

// NodeID is the unique identifier for the cache store Graft node.
const NodeID graft.ID = "adapter.cache_store"

func init() {
	graft.Register(graft.Node[ports.CacheStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.SyncerNodeID},
		Run: func(ctx context.Context) (ports.CacheStore, error) {
			syncer, err := graft.Dep[ports.Syncer](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(domain.DefaultCachePath(), syncer), nil
		},
	})
}
