package domain

import "context"

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	// UpdateFields writes only the supplied fields of patch.
	UpdateFields(ctx context.Context, id string, patch ListingPatch) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindAll(ctx context.Context) ([]*Listing, error)
	AddPhoto(ctx context.Context, id, url string) error
}

// FavoriteRepository mutates a listing's favorite set. Both operations must be
// atomic in the store and return ErrListingNotFound when the listing is absent.
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, listingID, userID string) error
	RemoveFavorite(ctx context.Context, listingID, userID string) error
}

type Storage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}
