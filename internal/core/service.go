package core

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"time"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

// MaxRevisionRetries is how often a compare-and-swap mutation is retried
// after losing a race before ErrRevisionConflict is returned.
const MaxRevisionRetries = 3

// DefaultMaxImportSize bounds uploaded CSV files when no limit is configured.
const DefaultMaxImportSize int64 = 10 << 20

var mapIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ServiceConfig holds the optional collaborators and limits of a Service.
type ServiceConfig struct {
	// CheckRevision makes every mutation a compare-and-swap on the stored
	// revision. When false, concurrent writers to one map race and the last
	// write wins.
	CheckRevision bool

	MaxImportSize        int64
	MaxConcurrentImports int
	ImportWait           time.Duration

	// Assets are the installation-wide default images.
	Assets AssetDefaults
	// MapsAPIKey must be set for RenderMap to succeed.
	MapsAPIKey string

	Archiver  ExportArchiver // optional
	Publisher EventPublisher // optional

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service provides the marker operations of every map.
type Service struct {
	store         Store
	limiter       *ImportLimiter
	archiver      ExportArchiver
	publisher     EventPublisher
	assets        AssetDefaults
	mapsAPIKey    string
	checkRevision bool
	maxImportSize int64
	now           func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: nil store")
	}
	if cfg.MaxImportSize <= 0 {
		cfg.MaxImportSize = DefaultMaxImportSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:         store,
		limiter:       NewImportLimiter(cfg.MaxConcurrentImports, cfg.ImportWait),
		archiver:      cfg.Archiver,
		publisher:     cfg.Publisher,
		assets:        cfg.Assets,
		mapsAPIKey:    cfg.MapsAPIKey,
		checkRevision: cfg.CheckRevision,
		maxImportSize: cfg.MaxImportSize,
		now:           cfg.Now,
	}, nil
}

// ImportLimiter returns the limiter bounding concurrent imports.
func (s *Service) ImportLimiter() *ImportLimiter {
	return s.limiter
}

// AssetDefaults returns the installation-wide default images.
func (s *Service) AssetDefaults() AssetDefaults {
	return s.assets
}

// ValidateMapID checks that id can address a map.
func ValidateMapID(id string) error {
	if !mapIDRegex.MatchString(id) {
		return ErrInvalidMapID
	}
	return nil
}

// loadMarkers reads the marker list of a map, wrapping store failures.
func (s *Service) loadMarkers(ctx context.Context, mapID string) ([]Marker, Revision, error) {
	markers, rev, err := s.store.GetMarkers(ctx, mapID)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "read", MapID: mapID, Err: err}
	}
	if markers == nil {
		markers = []Marker{}
	}
	return markers, rev, nil
}

// mutate applies fn to the current marker list and persists the result as a
// whole. fn receives a copy it may modify. With revision checking enabled a
// lost race re-reads the list and re-applies fn.
func (s *Service) mutate(ctx context.Context, mapID string, fn func([]Marker) ([]Marker, error)) ([]Marker, Revision, error) {
	attempts := 1
	if s.checkRevision {
		attempts = MaxRevisionRetries
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		current, rev, err := s.loadMarkers(ctx, mapID)
		if err != nil {
			return nil, 0, err
		}

		next, err := fn(slices.Clone(current))
		if err != nil {
			return nil, 0, err
		}

		expect := AnyRevision
		if s.checkRevision {
			expect = rev
		}

		newRev, err := s.store.SetMarkers(ctx, mapID, next, expect)
		if errors.Is(err, ErrRevisionConflict) {
			logging.FromContext(ctx).Debug("marker list changed concurrently, retrying",
				"map_id", mapID,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return nil, 0, &PersistenceError{Op: "write", MapID: mapID, Err: err}
		}
		return next, newRev, nil
	}

	return nil, 0, ErrRevisionConflict
}

// publish delivers a change event. Failures are logged and never fail the
// mutation that already succeeded.
func (s *Service) publish(ctx context.Context, typ EventType, mapID string, rev Revision, ids ...string) {
	if s.publisher == nil {
		return
	}
	caller := CallerFromContext(ctx)
	ev := Event{
		Type:      typ,
		MapID:     mapID,
		MarkerIDs: ids,
		Actor:     caller.Actor,
		ClientIP:  caller.ClientIP,
		Revision:  rev,
		At:        s.now().Unix(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("failed to publish marker event",
			"event", typ,
			"map_id", mapID,
			"error", err,
		)
	}
}
