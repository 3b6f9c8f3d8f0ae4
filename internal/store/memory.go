package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is a map-backed DeploymentRepo. It backs the "memory" dev
// driver and the unit tests for everything above the repository.
type MemoryRepo struct {
	mu   sync.RWMutex
	recs map[string]Deployment
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{recs: map[string]Deployment{}}
}

func (m *MemoryRepo) GetExact(_ context.Context, platformID, deploymentID string) (Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.recs[platformID+"/"+deploymentID]
	if !ok {
		return Deployment{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryRepo) ScanPrefix(_ context.Context, platformID string) ([]Deployment, error) {
	lo := platformID + "/"
	hi := platformID + "/~"
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.recs {
		if strings.Compare(k, lo) >= 0 && strings.Compare(k, hi) < 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]Deployment, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.recs[k])
	}
	return out, nil
}

func (m *MemoryRepo) Put(_ context.Context, d Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[d.Key()] = d
	return nil
}
