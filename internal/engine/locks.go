package engine

import (
	"hash/fnv"
	"sync"

	id "crest/pkg/domain"
)

const lockStripes = 128

// stripedMutex serializes evaluations per (asset, sender). Striping bounds
// memory for arbitrarily many key pairs; two pairs hashing to the same stripe
// contend but stay correct.
type stripedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (m *stripedMutex) lock(asset id.AssetID, sender id.Identity) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(asset.String()))
	h.Write([]byte{0})
	h.Write([]byte(sender.String()))
	mu := &m.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu
}
