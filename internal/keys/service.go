package keys

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/store"
)

// cacheTTL bounds how long resolved keys are reused before hitting the
// store again.
const cacheTTL = 5 * time.Minute

// Service resolves rate-limited third-party credentials from the store's
// admin key collection, with env-provided fallbacks. Source adapters get
// resolver funcs from here instead of reading config directly, so keys
// rotated through the admin portal take effect without a restart.
type Service struct {
	store         store.Store
	serpFallback  string
	apifyFallback string

	mu        sync.Mutex
	cache     map[string]string
	fetchedAt time.Time
	now       func() time.Time
}

// NewService creates a key service backed by the given store.
func NewService(st store.Store, serpFallback, apifyFallback string) *Service {
	return &Service{
		store:         st,
		serpFallback:  serpFallback,
		apifyFallback: apifyFallback,
		now:           time.Now,
	}
}

// SerpKey resolves the SerpAPI key, store first, env fallback second.
func (s *Service) SerpKey() (string, error) {
	return s.get("serp", "SERP_API_KEY", s.serpFallback), nil
}

// ApifyToken resolves the Apify token, store first, env fallback second.
func (s *Service) ApifyToken() (string, error) {
	return s.get("apify", "APIFY_API_TOKEN", s.apifyFallback), nil
}

// ClearCache drops the cached keys so the next resolution refetches.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.fetchedAt = time.Time{}
}

func (s *Service) get(serviceName, keyName, fallback string) string {
	keys := s.all()
	if v := keys[serviceName+"_"+keyName]; v != "" {
		return v
	}
	return fallback
}

// all returns the cached key map, refetching when the cache is stale. A
// fetch failure is logged and the stale cache (possibly empty) is kept, so
// the env fallbacks still apply.
func (s *Service) all() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.now().Sub(s.fetchedAt) < cacheTTL {
		return s.cache
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.store.ActiveAPIKeys(ctx)
	if err != nil {
		logrus.Errorf("Failed to fetch API keys from store: %v", err)
		return s.cache
	}

	cache := make(map[string]string, len(rows))
	for _, row := range rows {
		cache[row.ServiceName+"_"+row.KeyName] = row.KeyValue
	}
	s.cache = cache
	s.fetchedAt = s.now()
	return s.cache
}
