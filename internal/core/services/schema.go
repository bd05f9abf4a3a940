package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driving"
	"github.com/custodia-labs/clipper-core/internal/normalisers"
)

// Ensure SchemaService implements driving.SchemaService
var _ driving.SchemaService = (*SchemaService)(nil)

// maxSearchPages bounds the pages read per credential when rebuilding the index
const maxSearchPages = 50

// SchemaService serves simplified schemas and the collection index from cache.
//
// A missing row is fetched synchronously. A stale row is returned at once and refreshed
// by a detached task whose failure is never observed by the triggering read. A failing
// cache store degrades every read to a miss.
type SchemaService struct {
	credentials driven.CredentialStore
	destination driven.DestinationClient
	schemas     driven.SchemaCacheStore
	index       driven.IndexCacheStore
	lock        driven.DistributedLock
	metrics     driven.Metrics
	logger      *slog.Logger

	schemaTTL      time.Duration
	indexTTL       time.Duration
	lockTTL        time.Duration
	refreshTimeout time.Duration
	now            func() time.Time

	// background tracks detached refreshes
	background sync.WaitGroup
}

// SchemaServiceConfig holds dependencies for SchemaService.
type SchemaServiceConfig struct {
	Credentials driven.CredentialStore
	Destination driven.DestinationClient
	Schemas     driven.SchemaCacheStore
	Index       driven.IndexCacheStore
	Lock        driven.DistributedLock // Optional: single-flight for background refreshes
	Metrics     driven.Metrics         // Optional
	Logger      *slog.Logger

	SchemaTTL      time.Duration // default: domain.SchemaTTL
	IndexTTL       time.Duration // default: domain.IndexTTL
	LockTTL        time.Duration // default: 30s
	RefreshTimeout time.Duration // default: 30s
	Now            func() time.Time
}

// NewSchemaService creates a new schema service.
func NewSchemaService(cfg SchemaServiceConfig) *SchemaService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	s := &SchemaService{
		credentials:    cfg.Credentials,
		destination:    cfg.Destination,
		schemas:        cfg.Schemas,
		index:          cfg.Index,
		lock:           cfg.Lock,
		metrics:        metrics,
		logger:         logger,
		schemaTTL:      cfg.SchemaTTL,
		indexTTL:       cfg.IndexTTL,
		lockTTL:        cfg.LockTTL,
		refreshTimeout: cfg.RefreshTimeout,
		now:            cfg.Now,
	}
	if s.schemaTTL == 0 {
		s.schemaTTL = domain.SchemaTTL
	}
	if s.indexTTL == 0 {
		s.indexTTL = domain.IndexTTL
	}
	if s.lockTTL == 0 {
		s.lockTTL = 30 * time.Second
	}
	if s.refreshTimeout == 0 {
		s.refreshTimeout = 30 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GetSchema returns the cached schema in the requested shape.
func (s *SchemaService) GetSchema(ctx context.Context, userID, collectionID string, shape domain.SchemaShape, ifVersion string) (*domain.SchemaResult, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("%w: collection id required", domain.ErrInvalidInput)
	}

	entry, stale, err := s.cachedSchema(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}

	result := &domain.SchemaResult{
		Version:   entry.Version,
		UpdatedAt: entry.UpdatedAt,
		Stale:     stale,
	}
	if ifVersion != "" && ifVersion == entry.Version {
		result.NotModified = true
		return result, nil
	}
	if shape == domain.SchemaShapeRaw {
		result.Raw = entry.Raw
	} else {
		result.Schema = entry.Schema
	}
	return result, nil
}

// cachedSchema reads the cache row, refreshing synchronously on a miss and in the background when stale.
func (s *SchemaService) cachedSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, bool, error) {
	entry, err := s.schemas.GetSchema(ctx, userID, collectionID)
	if err != nil {
		s.logger.Warn("schema cache read failed, treating as miss",
			"user_id", userID, "collection_id", collectionID, "error", err)
		s.metrics.SchemaCache("error")
		entry = nil
	}

	if entry == nil || entry.Schema == nil {
		if err == nil {
			s.metrics.SchemaCache("miss")
		}
		entry, _, err = s.refreshSchema(ctx, userID, collectionID)
		if err != nil {
			return nil, false, err
		}
		return entry, false, nil
	}

	if entry.IsStale(s.schemaTTL, s.now()) {
		s.metrics.SchemaCache("stale")
		s.refreshInBackground("schema:"+userID+":"+collectionID, func(ctx context.Context) error {
			_, _, err := s.refreshSchema(ctx, userID, collectionID)
			return err
		})
		return entry, true, nil
	}

	s.metrics.SchemaCache("hit")
	return entry, false, nil
}

// RefreshSchema fetches, normalizes and stores the schema now.
func (s *SchemaService) RefreshSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, error) {
	entry, _, err := s.refreshSchema(ctx, userID, collectionID)
	return entry, err
}

func (s *SchemaService) refreshSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, *domain.Credential, error) {
	creds, err := s.credentials.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list credentials: %w", err)
	}

	raw, cred, err := tryCredentials(ctx, creds, func(ctx context.Context, c *domain.Credential) (json.RawMessage, error) {
		return s.destination.GetCollection(ctx, c.AccessToken, collectionID)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch schema %s: %w", collectionID, err)
	}

	schema, err := normalisers.SimplifySchema(collectionID, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize schema %s: %w", collectionID, err)
	}
	schema.UpdatedAt = s.now().UTC()

	entry := &domain.CachedSchema{
		UserID:       userID,
		CollectionID: collectionID,
		Schema:       schema,
		Raw:          raw,
		Version:      schema.Version,
		UpdatedAt:    schema.UpdatedAt,
		CredentialID: cred.ID,
	}
	if err := s.schemas.SaveSchema(ctx, entry); err != nil {
		s.logger.Warn("failed to store schema", "user_id", userID, "collection_id", collectionID, "error", err)
	}
	return entry, cred, nil
}

// Resolve returns the collection's schema together with a credential able to write to it.
func (s *SchemaService) Resolve(ctx context.Context, userID, collectionID string) (*domain.SimplifiedSchema, *domain.Credential, error) {
	entry, _, err := s.cachedSchema(ctx, userID, collectionID)
	if err != nil {
		return nil, nil, err
	}

	if entry.CredentialID != "" {
		cred, err := s.credentials.Get(ctx, entry.CredentialID)
		if err == nil && cred.UserID == userID {
			return entry.Schema, cred, nil
		}
	}

	// The owner credential is unknown or gone; probe again.
	entry, cred, err := s.refreshSchema(ctx, userID, collectionID)
	if err != nil {
		return nil, nil, err
	}
	return entry.Schema, cred, nil
}

// Invalidate drops the cached schema so the next read refetches it.
func (s *SchemaService) Invalidate(ctx context.Context, userID, collectionID string) {
	if err := s.schemas.DeleteSchema(ctx, userID, collectionID); err != nil {
		s.logger.Warn("failed to invalidate schema", "user_id", userID, "collection_id", collectionID, "error", err)
	}
}

// ListCollections returns the cached collection index.
func (s *SchemaService) ListCollections(ctx context.Context, userID string) (*domain.CollectionIndex, error) {
	idx, err := s.index.GetIndex(ctx, userID)
	if err != nil {
		s.logger.Warn("index cache read failed, treating as miss", "user_id", userID, "error", err)
		idx = nil
	}

	if idx == nil {
		items, err := s.RefreshCollections(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.buildIndex(items), nil
	}

	if s.now().Sub(idx.RefreshedAt) > s.indexTTL {
		idx.Stale = true
		s.refreshInBackground("index:"+userID, func(ctx context.Context) error {
			_, err := s.RefreshCollections(ctx, userID)
			return err
		})
	} else {
		idx.Stale = false
	}
	return idx, nil
}

// RefreshCollections rebuilds the index across every linked credential.
// The first credential to see a collection id wins.
func (s *SchemaService) RefreshCollections(ctx context.Context, userID string) ([]domain.CollectionSummary, error) {
	creds, err := s.credentials.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	if len(creds) == 0 {
		return nil, domain.ErrNoCredentials
	}

	seen := make(map[string]bool)
	items := make([]domain.CollectionSummary, 0)
	var failures int
	var lastErr error

	for _, cred := range creds {
		found, err := s.searchAll(ctx, cred)
		if err != nil {
			failures++
			lastErr = err
			s.logger.Warn("collection search failed", "user_id", userID, "credential_id", cred.ID, "error", err)
			continue
		}
		for _, item := range found {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			items = append(items, item)
		}
	}

	if failures == len(creds) {
		return nil, fmt.Errorf("refresh collections: %w: %v", domain.ErrNotAccessible, lastErr)
	}

	if err := s.index.ReplaceIndex(ctx, userID, s.buildIndex(items)); err != nil {
		s.logger.Warn("failed to store collection index", "user_id", userID, "error", err)
	}
	return items, nil
}

func (s *SchemaService) searchAll(ctx context.Context, cred *domain.Credential) ([]domain.CollectionSummary, error) {
	var all []domain.CollectionSummary
	cursor := ""
	for page := 0; page < maxSearchPages; page++ {
		res, err := s.destination.SearchCollections(ctx, cred.AccessToken, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Items...)
		if !res.HasMore || res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}
	return all, nil
}

func (s *SchemaService) buildIndex(items []domain.CollectionSummary) *domain.CollectionIndex {
	return &domain.CollectionIndex{
		Items:       items,
		Version:     normalisers.IndexVersion(items),
		RefreshedAt: s.now().UTC(),
	}
}

// refreshInBackground runs fn detached from the caller. Errors are logged and swallowed.
// With a lock configured, concurrent stale reads trigger at most one refresh per key.
func (s *SchemaService) refreshInBackground(key string, fn func(ctx context.Context) error) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()

		if s.lock != nil {
			lockName := "refresh:" + key
			acquired, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
			if err != nil {
				s.logger.Debug("refresh lock unavailable", "key", key, "error", err)
				return
			}
			if !acquired {
				return
			}
			defer func() {
				if err := s.lock.Release(context.Background(), lockName); err != nil {
					s.logger.Debug("failed to release refresh lock", "key", key, "error", err)
				}
			}()
		}

		if err := fn(ctx); err != nil {
			s.logger.Warn("background refresh failed", "key", key, "error", err)
		}
	}()
}

// Wait blocks until detached refreshes finish.
func (s *SchemaService) Wait() {
	s.background.Wait()
}
