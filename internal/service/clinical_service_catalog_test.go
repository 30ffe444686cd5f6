package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	"github.com/noah-isme/rotation-portal-api/internal/repository"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
)

// clinicalServiceStoreStub emulates the catalog table. raceOnCreate makes that many CreateBatch
// calls lose to a concurrent writer that inserted the same names first.
type clinicalServiceStoreStub struct {
	byKey        map[string]models.ClinicalService
	findErr      error
	creates      int
	lookups      int
	raceOnCreate int
	alwaysRace   bool
	listSearch   string
}

func newClinicalServiceStoreStub() *clinicalServiceStoreStub {
	return &clinicalServiceStoreStub{byKey: make(map[string]models.ClinicalService)}
}

func (s *clinicalServiceStoreStub) FindByNormalizedNames(ctx context.Context, keys []string) ([]models.ClinicalService, error) {
	s.lookups++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var found []models.ClinicalService
	for _, key := range keys {
		if svc, ok := s.byKey[key]; ok {
			found = append(found, svc)
		}
	}
	return found, nil
}

func (s *clinicalServiceStoreStub) CreateBatch(ctx context.Context, services []models.ClinicalService) error {
	s.creates++
	if s.alwaysRace {
		return fmt.Errorf("create clinical services: %w", repository.ErrDuplicateServiceName)
	}
	if s.raceOnCreate > 0 {
		s.raceOnCreate--
		for _, svc := range services {
			s.insert(svc.Name, svc.NormalizedName)
		}
		return fmt.Errorf("create clinical services: %w", repository.ErrDuplicateServiceName)
	}
	for i := range services {
		services[i].ID = s.insert(services[i].Name, services[i].NormalizedName).ID
	}
	return nil
}

func (s *clinicalServiceStoreStub) List(ctx context.Context, search string) ([]models.ClinicalService, error) {
	s.listSearch = search
	if s.findErr != nil {
		return nil, s.findErr
	}
	result := make([]models.ClinicalService, 0, len(s.byKey))
	for _, svc := range s.byKey {
		result = append(result, svc)
	}
	return result, nil
}

func (s *clinicalServiceStoreStub) insert(name, key string) models.ClinicalService {
	svc := models.ClinicalService{ID: fmt.Sprintf("svc-%d", len(s.byKey)+1), Name: name, NormalizedName: key, Active: true}
	s.byKey[key] = svc
	return svc
}

func TestClinicalServiceCatalogResolveDeduplicatesSpellings(t *testing.T) {
	store := newClinicalServiceStoreStub()
	catalog := NewClinicalServiceCatalog(store, nil)

	names := []string{"Cardiología", " cardiología ", "CARDIOLOGÍA", "Cardiología", "Pediatría"}
	resolution, err := catalog.Resolve(context.Background(), names)
	require.NoError(t, err)
	require.Equal(t, 2, resolution.Created)
	require.Len(t, store.byKey, 2)
	require.Equal(t, 1, store.creates)

	id := resolution.Lookup("Cardiología")
	require.NotNil(t, id)
	for _, name := range names[:4] {
		require.Equal(t, *id, *resolution.Lookup(name), name)
	}
	require.Equal(t, "Cardiología", store.byKey[models.NormalizeServiceName("cardiología")].Name, "first spelling is kept for display")
}

func TestClinicalServiceCatalogResolveIsIdempotent(t *testing.T) {
	store := newClinicalServiceStoreStub()
	catalog := NewClinicalServiceCatalog(store, nil)

	first, err := catalog.Resolve(context.Background(), []string{"Neurología", "Traumatología"})
	require.NoError(t, err)
	second, err := catalog.Resolve(context.Background(), []string{"traumatología", "NEUROLOGÍA"})
	require.NoError(t, err)

	require.Zero(t, second.Created)
	require.Equal(t, first.IDs, second.IDs)
	require.Equal(t, 1, store.creates)
}

func TestClinicalServiceCatalogResolveSkipsBlankNames(t *testing.T) {
	store := newClinicalServiceStoreStub()
	catalog := NewClinicalServiceCatalog(store, nil)

	resolution, err := catalog.Resolve(context.Background(), []string{"", "   ", "\t"})
	require.NoError(t, err)
	require.Zero(t, resolution.Created)
	require.Zero(t, store.lookups)
	require.Nil(t, resolution.Lookup(" "))
	require.Nil(t, resolution.Lookup("Unknown"))
}

func TestClinicalServiceCatalogResolveRetriesAfterConcurrentCreate(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.raceOnCreate = 1
	catalog := NewClinicalServiceCatalog(store, nil)

	resolution, err := catalog.Resolve(context.Background(), []string{"Urgencias"})
	require.NoError(t, err)
	require.Zero(t, resolution.Created, "the concurrent writer's row is reused")
	require.Len(t, store.byKey, 1)
	require.Equal(t, store.byKey["urgencias"].ID, *resolution.Lookup("urgencias"))
	require.Equal(t, 2, store.lookups)
}

func TestClinicalServiceCatalogResolveGivesUpAfterMaxAttempts(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.alwaysRace = true
	catalog := NewClinicalServiceCatalog(store, nil)

	_, err := catalog.Resolve(context.Background(), []string{"Urgencias"})
	require.ErrorIs(t, err, repository.ErrDuplicateServiceName)
	require.Equal(t, maxResolveAttempts, store.creates)
}

func TestClinicalServiceCatalogResolveLookupFailure(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.findErr = errors.New("db down")
	catalog := NewClinicalServiceCatalog(store, nil)

	_, err := catalog.Resolve(context.Background(), []string{"Urgencias"})
	require.ErrorContains(t, err, "db down")
	require.Zero(t, store.creates)
}

func TestClinicalServiceCatalogList(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.insert("Pabellón", "pabellón")
	catalog := NewClinicalServiceCatalog(store, nil)

	services, err := catalog.List(context.Background(), dto.ClinicalServiceQuery{Search: "pab"})
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Equal(t, "pab", store.listSearch)

	store.findErr = errors.New("db down")
	_, err = catalog.List(context.Background(), dto.ClinicalServiceQuery{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

type catalogCacheStub struct {
	entries map[string][]models.ClinicalService
	getErr  error
	sets    int
	deletes int
}

func newCatalogCacheStub() *catalogCacheStub {
	return &catalogCacheStub{entries: make(map[string][]models.ClinicalService)}
}

func (s *catalogCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	cached, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*[]models.ClinicalService)) = cached
	return nil
}

func (s *catalogCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets++
	s.entries[key] = value.([]models.ClinicalService)
	return nil
}

func (s *catalogCacheStub) Delete(ctx context.Context, keys ...string) error {
	s.deletes++
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func TestClinicalServiceCatalogListUsesCache(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.insert("Pabellón", "pabellón")
	cache := newCatalogCacheStub()
	catalog := NewClinicalServiceCatalog(store, nil, WithCatalogCache(cache, time.Minute))

	first, err := catalog.List(context.Background(), dto.ClinicalServiceQuery{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, cache.sets)

	store.findErr = errors.New("db down")
	second, err := catalog.List(context.Background(), dto.ClinicalServiceQuery{})
	require.NoError(t, err, "served from cache")
	require.Equal(t, first, second)

	_, err = catalog.List(context.Background(), dto.ClinicalServiceQuery{Search: "pab"})
	require.Error(t, err, "filtered listings bypass the cache")
}

func TestClinicalServiceCatalogListIgnoresCacheFailure(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.insert("Pabellón", "pabellón")
	cache := newCatalogCacheStub()
	cache.getErr = errors.New("redis down")
	catalog := NewClinicalServiceCatalog(store, nil, WithCatalogCache(cache, 0))

	services, err := catalog.List(context.Background(), dto.ClinicalServiceQuery{})
	require.NoError(t, err)
	require.Len(t, services, 1)
}

func TestClinicalServiceCatalogResolveInvalidatesCache(t *testing.T) {
	store := newClinicalServiceStoreStub()
	store.insert("Pabellón", "pabellón")
	cache := newCatalogCacheStub()
	catalog := NewClinicalServiceCatalog(store, nil, WithCatalogCache(cache, time.Minute))

	_, err := catalog.List(context.Background(), dto.ClinicalServiceQuery{})
	require.NoError(t, err)

	_, err = catalog.Resolve(context.Background(), []string{"pabellón"})
	require.NoError(t, err)
	require.Zero(t, cache.deletes, "no new entries, cache stays")

	_, err = catalog.Resolve(context.Background(), []string{"Oncología"})
	require.NoError(t, err)
	require.Equal(t, 1, cache.deletes)

	services, err := catalog.List(context.Background(), dto.ClinicalServiceQuery{})
	require.NoError(t, err)
	require.Len(t, services, 2)
}
