package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

// memoryStore is an in-memory ListingRepository and FavoriteRepository.
// Every method holds the lock for the whole operation, like a single-document
// atomic update in the real store.
type memoryStore struct {
	mu       sync.Mutex
	seq      int
	listings map[string]*domain.Listing
}

func newMemoryStore() *memoryStore {
	return &memoryStore{listings: make(map[string]*domain.Listing)}
}

func clone(l *domain.Listing) *domain.Listing {
	c := *l
	c.FavoritedBy = append([]string{}, l.FavoritedBy...)
	c.Photos = append([]string{}, l.Photos...)
	return &c
}

func (s *memoryStore) Create(_ context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	l.ID = fmt.Sprintf("listing-%d", s.seq)
	s.listings[l.ID] = clone(l)
	return nil
}

func (s *memoryStore) UpdateFields(_ context.Context, id string, patch domain.ListingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	patch.Apply(l)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(s.listings, id)
	return nil
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return clone(l), nil
}

func (s *memoryStore) FindAll(_ context.Context) ([]*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, clone(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) AddPhoto(_ context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.Photos = append(l.Photos, url)
	return nil
}

func (s *memoryStore) AddFavorite(_ context.Context, listingID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if !l.IsFavoritedBy(userID) {
		l.FavoritedBy = append(l.FavoritedBy, userID)
	}
	return nil
}

func (s *memoryStore) RemoveFavorite(_ context.Context, listingID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return domain.ErrListingNotFound
	}
	kept := l.FavoritedBy[:0]
	for _, id := range l.FavoritedBy {
		if id != userID {
			kept = append(kept, id)
		}
	}
	l.FavoritedBy = kept
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listings)
}

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	return m.Called(ctx, l).Error(0)
}
func (m *MockListingRepository) UpdateFields(ctx context.Context, id string, patch domain.ListingPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}
func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) AddPhoto(ctx context.Context, id, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

type MockFavoriteRepository struct{ mock.Mock }

func (m *MockFavoriteRepository) AddFavorite(ctx context.Context, listingID, userID string) error {
	return m.Called(ctx, listingID, userID).Error(0)
}
func (m *MockFavoriteRepository) RemoveFavorite(ctx context.Context, listingID, userID string) error {
	return m.Called(ctx, listingID, userID).Error(0)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingCache) Generation(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockListingCache) SetListing(ctx context.Context, l *domain.Listing, generation int64) error {
	return m.Called(ctx, l, generation).Error(0)
}
func (m *MockListingCache) DeleteListing(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// memoryCache follows the generation protocol of the Redis cache.
// beforeSet runs inside SetListing, between the fill's store read and its cache write.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Listing
	generations map[string]int64
	beforeSet   func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*domain.Listing), generations: make(map[string]int64)}
}

func (c *memoryCache) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.entries[id]; ok {
		return clone(l), nil
	}
	return nil, nil
}

func (c *memoryCache) Generation(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id], nil
}

func (c *memoryCache) SetListing(_ context.Context, l *domain.Listing, generation int64) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[l.ID] != generation {
		return nil
	}
	c.entries[l.ID] = clone(l)
	return nil
}

func (c *memoryCache) DeleteListing(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[id]++
	delete(c.entries, id)
	return nil
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return m.Called(ctx, subject, data).Error(0)
}

type fakeStorage struct {
	uploaded map[string][]byte
	err      error
}

func (f *fakeStorage) Upload(_ context.Context, fileName string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.uploaded == nil {
		f.uploaded = make(map[string][]byte)
	}
	f.uploaded[fileName] = data
	return "http://photos.local/" + fileName, nil
}
