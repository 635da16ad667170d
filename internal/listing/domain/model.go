package domain

import "time"

type Listing struct {
	ID            string
	Owner         string // user ID of the creator, never reassigned
	StreetAddress string
	City          string
	Price         float64
	Size          float64
	FavoritedBy   []string // set semantics, maintained by the store
	Photos        []string // URLs to photos
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFavoritedBy reports whether userID is in the listing's favorite set.
func (l *Listing) IsFavoritedBy(userID string) bool {
	if l == nil || userID == "" {
		return false
	}
	for _, id := range l.FavoritedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ListingView is a listing as seen by a particular viewer.
type ListingView struct {
	Listing            *Listing
	ViewerHasFavorited bool
}

// ListingPatch carries the fields of a partial update. Nil means "not supplied".
type ListingPatch struct {
	StreetAddress *string
	City          *string
	Price         *float64
	Size          *float64
}

func (p ListingPatch) IsEmpty() bool {
	return p.StreetAddress == nil && p.City == nil && p.Price == nil && p.Size == nil
}

// Apply merges the supplied fields into l.
func (p ListingPatch) Apply(l *Listing) {
	if p.StreetAddress != nil {
		l.StreetAddress = *p.StreetAddress
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Size != nil {
		l.Size = *p.Size
	}
}
