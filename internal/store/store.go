// Package store provides the persistence backends for marker lists and map
// options. Every backend implements core.Store and persists a map's marker
// list as a whole together with its revision counter.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Closer is implemented by backends holding external resources.
type Closer interface {
	Close() error
}

// OpenConfig selects and configures a backend.
type OpenConfig struct {
	Backend     string
	BadgerDir   string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32
}

// Open creates the configured backend. The returned close function releases
// its resources and is never nil.
func Open(ctx context.Context, cfg OpenConfig) (core.Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(), noop, nil
	case BackendBadger:
		b, err := OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	case BackendPostgres:
		p, err := OpenPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func cloneMarkers(in []core.Marker) []core.Marker {
	out := make([]core.Marker, len(in))
	for i, m := range in {
		if m.MarkerImage != nil {
			m.MarkerImage = core.StrPtr(*m.MarkerImage)
		}
		if m.TooltipImage != nil {
			m.TooltipImage = core.StrPtr(*m.TooltipImage)
		}
		out[i] = m
	}
	return out
}

func checkRevision(expect, current core.Revision) error {
	if expect != core.AnyRevision && expect != current {
		return core.ErrRevisionConflict
	}
	return nil
}
