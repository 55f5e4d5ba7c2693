package store

import (
	"context"
	"sync"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

type memoryMap struct {
	markers  []core.Marker
	revision core.Revision
	options  *core.MapOptions
}

// Memory keeps maps in process memory. It is used for tests and single
// instance deployments without durability requirements.
type Memory struct {
	mu   sync.RWMutex
	maps map[string]*memoryMap
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{maps: make(map[string]*memoryMap)}
}

func (s *Memory) GetMarkers(_ context.Context, mapID string) ([]core.Marker, core.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[mapID]
	if !ok {
		return []core.Marker{}, 0, nil
	}
	return cloneMarkers(m.markers), m.revision, nil
}

func (s *Memory) SetMarkers(_ context.Context, mapID string, markers []core.Marker, expect core.Revision) (core.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.maps[mapID]
	if !ok {
		m = &memoryMap{}
		s.maps[mapID] = m
	}
	if err := checkRevision(expect, m.revision); err != nil {
		return 0, err
	}
	m.markers = cloneMarkers(markers)
	m.revision++
	return m.revision, nil
}

func (s *Memory) GetOptions(_ context.Context, mapID string) (core.MapOptions, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[mapID]
	if !ok || m.options == nil {
		return core.MapOptions{}, false, nil
	}
	return *m.options, true, nil
}

func (s *Memory) SetOptions(_ context.Context, mapID string, opts core.MapOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.maps[mapID]
	if !ok {
		m = &memoryMap{}
		s.maps[mapID] = m
	}
	m.options = &opts
	return nil
}
