package mongodb

import (
	"time"

	listingdomain "github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	userdomain "github.com/Abdurahmanit/realestate-listings/internal/user/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Owner         string             `bson:"owner"`
	StreetAddress string             `bson:"street_address"`
	City          string             `bson:"city"`
	Price         float64            `bson:"price"`
	Size          float64            `bson:"size"`
	FavoritedBy   []string           `bson:"favorited_by"`
	Photos        []string           `bson:"photos"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func fromDomainListing(l *listingdomain.Listing) *listingDocument {
	favoritedBy := l.FavoritedBy
	if favoritedBy == nil {
		favoritedBy = []string{}
	}
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return &listingDocument{
		Owner:         l.Owner,
		StreetAddress: l.StreetAddress,
		City:          l.City,
		Price:         l.Price,
		Size:          l.Size,
		FavoritedBy:   favoritedBy,
		Photos:        photos,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func (d *listingDocument) toDomain() *listingdomain.Listing {
	return &listingdomain.Listing{
		ID:            d.ID.Hex(),
		Owner:         d.Owner,
		StreetAddress: d.StreetAddress,
		City:          d.City,
		Price:         d.Price,
		Size:          d.Size,
		FavoritedBy:   d.FavoritedBy,
		Photos:        d.Photos,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (d *userDocument) toDomain() *userdomain.User {
	return &userdomain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}
