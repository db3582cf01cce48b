package ledger

import (
	"sort"
	"sync"

	"github.com/tonermart/backend/internal/models"
)

// accountStore holds customer records. Balances are mutated only by the
// memory ledger while holding that customer's lock.
type accountStore struct {
	mu        sync.RWMutex
	customers map[string]*models.Customer
}

func newAccountStore() *accountStore {
	return &accountStore{customers: make(map[string]*models.Customer)}
}

func (s *accountStore) get(name string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[name]
	if !ok {
		return nil, &models.NotFoundError{Entity: "customer", Name: name}
	}
	return c, nil
}

func (s *accountStore) put(c models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc := c
	s.customers[c.Name] = &cc
}

func (s *accountStore) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.customers))
	for name := range s.customers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// catalogStore holds article records. Populated at bootstrap, immutable
// afterwards.
type catalogStore struct {
	mu       sync.RWMutex
	articles map[string]models.Article
}

func newCatalogStore() *catalogStore {
	return &catalogStore{articles: make(map[string]models.Article)}
}

func (s *catalogStore) get(name string) (models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[name]
	if !ok {
		return models.Article{}, &models.NotFoundError{Entity: "article", Name: name}
	}
	return a, nil
}

func (s *catalogStore) put(a models.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.Name] = a
}

func (s *catalogStore) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.articles))
	for name := range s.articles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
