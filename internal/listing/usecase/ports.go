package usecase

import (
	"context"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
)

// ListingCache is a best-effort read-through cache; its errors are logged, never returned.
// Generation must be read before the store: DeleteListing advances it, and SetListing
// stores nothing once the generation has moved past the one the fill started with.
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	Generation(ctx context.Context, id string) (int64, error)
	SetListing(ctx context.Context, listing *domain.Listing, generation int64) error
	DeleteListing(ctx context.Context, id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Metrics interface {
	ListingCreated()
	ListingUpdated()
	ListingDeleted()
	FavoriteChanged(action string)
}

const (
	SubjectListingCreated     = "listing.created"
	SubjectListingUpdated     = "listing.updated"
	SubjectListingDeleted     = "listing.deleted"
	SubjectListingFavorited   = "listing.favorited"
	SubjectListingUnfavorited = "listing.unfavorited"
	SubjectPhotoUploaded      = "listing.photo.uploaded"
)

type noopCache struct{}

func (noopCache) GetListing(context.Context, string) (*domain.Listing, error) { return nil, nil }
func (noopCache) Generation(context.Context, string) (int64, error)           { return 0, nil }
func (noopCache) SetListing(context.Context, *domain.Listing, int64) error    { return nil }
func (noopCache) DeleteListing(context.Context, string) error                 { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ListingCreated()        {}
func (noopMetrics) ListingUpdated()        {}
func (noopMetrics) ListingDeleted()        {}
func (noopMetrics) FavoriteChanged(string) {}

// Deps bundles the optional collaborators shared by the usecases.
// Nil fields are replaced with no-ops.
type Deps struct {
	Cache   ListingCache
	Events  EventPublisher
	Metrics Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = noopCache{}
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = noopMetrics{}
	}
	return d
}
