//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	listingdomain "github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	userdomain "github.com/Abdurahmanit/realestate-listings/internal/user/domain"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	_ = resource.Expire(120)

	var client *mongo.Client
	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))
	if err := pool.Retry(func() error {
		var errRetry error
		client, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if errRetry != nil {
			return errRetry
		}
		return client.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	testDB = client.Database("listings_integration")

	code := m.Run()

	_ = client.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func newTestListingRepo(t *testing.T) *ListingRepository {
	t.Helper()
	require.NoError(t, testDB.Collection(listingCollectionName).Drop(context.Background()))
	repo, err := NewListingRepository(testDB, logger.NewNop())
	require.NoError(t, err)
	return repo
}

func seedListing(t *testing.T, repo *ListingRepository, owner string) *listingdomain.Listing {
	t.Helper()
	l := &listingdomain.Listing{Owner: owner, StreetAddress: "1 Main St", City: "Springfield", Price: 100, Size: 50}
	require.NoError(t, repo.Create(context.Background(), l))
	require.NotEmpty(t, l.ID)
	return l
}

func TestListingRepository_CRUD(t *testing.T) {
	repo := newTestListingRepo(t)
	ctx := context.Background()
	l := seedListing(t, repo, "u1")

	got, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Owner)
	assert.Empty(t, got.FavoritedBy)

	city := "Shelbyville"
	require.NoError(t, repo.UpdateFields(ctx, l.ID, listingdomain.ListingPatch{City: &city}))
	got, err = repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", got.City)
	assert.Equal(t, "1 Main St", got.StreetAddress)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.AddPhoto(ctx, l.ID, "http://minio/photos/a.jpg"))
	got, _ = repo.FindByID(ctx, l.ID)
	assert.Equal(t, []string{"http://minio/photos/a.jpg"}, got.Photos)

	require.NoError(t, repo.Delete(ctx, l.ID))
	_, err = repo.FindByID(ctx, l.ID)
	assert.ErrorIs(t, err, listingdomain.ErrListingNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, l.ID), listingdomain.ErrListingNotFound)
}

func TestListingRepository_MalformedID(t *testing.T) {
	repo := newTestListingRepo(t)
	_, err := repo.FindByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, listingdomain.ErrListingNotFound)
	assert.ErrorIs(t, repo.AddFavorite(context.Background(), "nope", "u1"), listingdomain.ErrListingNotFound)
}

func TestListingRepository_FavoritesAreASet(t *testing.T) {
	repo := newTestListingRepo(t)
	ctx := context.Background()
	l := seedListing(t, repo, "u1")

	require.NoError(t, repo.AddFavorite(ctx, l.ID, "u2"))
	require.NoError(t, repo.AddFavorite(ctx, l.ID, "u2"))
	got, _ := repo.FindByID(ctx, l.ID)
	assert.Equal(t, []string{"u2"}, got.FavoritedBy)

	require.NoError(t, repo.RemoveFavorite(ctx, l.ID, "u3"))
	require.NoError(t, repo.RemoveFavorite(ctx, l.ID, "u2"))
	got, _ = repo.FindByID(ctx, l.ID)
	assert.Empty(t, got.FavoritedBy)
}

func TestListingRepository_ConcurrentFavoritesAndUpdate(t *testing.T) {
	repo := newTestListingRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	l := seedListing(t, repo, "owner")

	const users = 20
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.AddFavorite(ctx, l.ID, fmt.Sprintf("user-%d", i)))
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		price := 999.0
		assert.NoError(t, repo.UpdateFields(ctx, l.ID, listingdomain.ListingPatch{Price: &price}))
	}()
	wg.Wait()

	got, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, got.FavoritedBy, users)
	assert.Equal(t, 999.0, got.Price)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.Collection(userCollectionName).Drop(ctx))
	repo, err := NewUserRepository(testDB, logger.NewNop())
	require.NoError(t, err)

	u := &userdomain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	dup := &userdomain.User{Username: "alice", PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, dup), userdomain.ErrUsernameTaken)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = repo.FindByID(ctx, "bad-id")
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}
