package keys

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/relay/internal/adapters/fs"
	"go.trai.ch/relay/internal/adapters/gitrev"
	"go.trai.ch/relay/internal/core/ports"
)

// NodeID is the unique identifier for the key deriver Graft node.
const NodeID graft.ID = "adapter.key_deriver"

func init() {
	graft.Register(graft.Node[ports.KeyDeriver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID, gitrev.NodeID},
		Run: func(ctx context.Context) (ports.KeyDeriver, error) {
			hasher, err := graft.Dep[*fs.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			revisions, err := graft.Dep[ports.RevisionResolver](ctx)
			if err != nil {
				return nil, err
			}
			return NewDeriver(hasher, revisions), nil
		},
	})
}
