package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	"github.com/noah-isme/rotation-portal-api/internal/repository"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
)

const (
	// maxResolveAttempts bounds the lookup/create cycle when concurrent batches race on new names.
	maxResolveAttempts = 3

	catalogCacheKey        = "clinical-services:active"
	defaultCatalogCacheTTL = 10 * time.Minute
)

type clinicalServiceStore interface {
	FindByNormalizedNames(ctx context.Context, keys []string) ([]models.ClinicalService, error)
	CreateBatch(ctx context.Context, services []models.ClinicalService) error
	List(ctx context.Context, search string) ([]models.ClinicalService, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CatalogResolution maps normalized service names to catalog ids.
type CatalogResolution struct {
	IDs     map[string]string
	Created int
}

// Lookup returns the catalog id for a free-text name, or nil when the name is blank or unresolved.
func (r *CatalogResolution) Lookup(name string) *string {
	if r == nil {
		return nil
	}
	key := models.NormalizeServiceName(name)
	if key == "" {
		return nil
	}
	id, ok := r.IDs[key]
	if !ok {
		return nil
	}
	return &id
}

// ClinicalServiceCatalog resolves free-text service names against the deduplicated catalog.
type ClinicalServiceCatalog struct {
	store    clinicalServiceStore
	cache    catalogCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// CatalogOption customises the catalog service.
type CatalogOption func(*ClinicalServiceCatalog)

// WithCatalogCache keeps the unfiltered active catalog in cache for ttl.
func WithCatalogCache(cache catalogCache, ttl time.Duration) CatalogOption {
	return func(c *ClinicalServiceCatalog) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// NewClinicalServiceCatalog constructs the catalog service.
func NewClinicalServiceCatalog(store clinicalServiceStore, logger *zap.Logger, opts ...CatalogOption) *ClinicalServiceCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ClinicalServiceCatalog{store: store, cacheTTL: defaultCatalogCacheTTL, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns an id for every non-blank name, creating catalog entries for names that have no
// case-insensitive match. Names differing only by case, accents composition or surrounding
// whitespace share one entry. Re-running with the same names returns the same ids.
func (c *ClinicalServiceCatalog) Resolve(ctx context.Context, names []string) (*CatalogResolution, error) {
	display := make(map[string]string, len(names))
	keys := make([]string, 0, len(names))
	for _, name := range names {
		key := models.NormalizeServiceName(name)
		if key == "" {
			continue
		}
		if _, seen := display[key]; seen {
			continue
		}
		display[key] = strings.TrimSpace(name)
		keys = append(keys, key)
	}

	resolution := &CatalogResolution{IDs: make(map[string]string, len(keys))}
	for attempt := 1; ; attempt++ {
		missing := unresolvedKeys(keys, resolution.IDs)
		if len(missing) == 0 {
			return resolution, nil
		}
		found, err := c.store.FindByNormalizedNames(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, svc := range found {
			resolution.IDs[svc.NormalizedName] = svc.ID
		}

		missing = unresolvedKeys(missing, resolution.IDs)
		if len(missing) == 0 {
			return resolution, nil
		}
		batch := make([]models.ClinicalService, len(missing))
		for i, key := range missing {
			batch[i] = models.ClinicalService{Name: display[key], NormalizedName: key, Active: true}
		}
		err = c.store.CreateBatch(ctx, batch)
		if err == nil {
			for _, svc := range batch {
				resolution.IDs[svc.NormalizedName] = svc.ID
			}
			resolution.Created += len(batch)
			c.invalidate(ctx)
			return resolution, nil
		}
		if !errors.Is(err, repository.ErrDuplicateServiceName) || attempt >= maxResolveAttempts {
			return nil, err
		}
		c.logger.Info("clinical service created concurrently, re-resolving",
			zap.Strings("names", missing),
			zap.Int("attempt", attempt),
		)
	}
}

// List returns the active catalog. Unfiltered listings are served from cache when one is configured.
func (c *ClinicalServiceCatalog) List(ctx context.Context, query dto.ClinicalServiceQuery) ([]models.ClinicalService, error) {
	search := strings.TrimSpace(query.Search)
	cacheable := c.cache != nil && search == ""
	if cacheable {
		var cached []models.ClinicalService
		err := c.cache.Get(ctx, catalogCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			c.logger.Warn("catalog cache get failed", zap.Error(err))
		}
	}

	services, err := c.store.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clinical services")
	}
	if services == nil {
		services = []models.ClinicalService{}
	}
	if cacheable {
		if err := c.cache.Set(ctx, catalogCacheKey, services, c.cacheTTL); err != nil {
			c.logger.Warn("catalog cache set failed", zap.Error(err))
		}
	}
	return services, nil
}

func (c *ClinicalServiceCatalog) invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, catalogCacheKey); err != nil {
		c.logger.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}

func unresolvedKeys(keys []string, resolved map[string]string) []string {
	missing := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := resolved[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
