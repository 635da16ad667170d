package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const listingCollectionName = "listings"

// ListingRepository implements domain.ListingRepository and domain.FavoriteRepository.
// The favorite set lives on the listing document so every toggle is a single atomic update.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn("Failed to create indexes for listings collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// objectID maps malformed IDs to ErrListingNotFound; they can never match a document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrListingNotFound
	}
	return oid, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc := fromDomainListing(listing)
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert listing", zap.String("owner", listing.Owner), zap.Error(err))
		return fmt.Errorf("%w: insert listing: %v", domain.ErrRepository, err)
	}
	listing.ID = doc.ID.Hex()
	listing.CreatedAt = doc.CreatedAt
	listing.UpdatedAt = doc.UpdatedAt
	r.logger.Debug("Listing inserted", zap.String("listing_id", listing.ID))
	return nil
}

// UpdateFields sets only the supplied fields, leaving favorited_by and photos untouched.
func (r *ListingRepository) UpdateFields(ctx context.Context, id string, patch domain.ListingPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.StreetAddress != nil {
		set["street_address"] = *patch.StreetAddress
	}
	if patch.City != nil {
		set["city"] = *patch.City
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Size != nil {
		set["size"] = *patch.Size
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Failed to update listing", zap.String("listing_id", id), zap.Error(err))
		return fmt.Errorf("%w: update listing: %v", domain.ErrRepository, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Failed to delete listing", zap.String("listing_id", id), zap.Error(err))
		return fmt.Errorf("%w: delete listing: %v", domain.ErrRepository, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("Failed to find listing", zap.String("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: find listing: %v", domain.ErrRepository, err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		r.logger.Error("Failed to query listings", zap.Error(err))
		return nil, fmt.Errorf("%w: find listings: %v", domain.ErrRepository, err)
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode listings", zap.Error(err))
		return nil, fmt.Errorf("%w: decode listings: %v", domain.ErrRepository, err)
	}
	listings := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		listings = append(listings, docs[i].toDomain())
	}
	return listings, nil
}

func (r *ListingRepository) AddPhoto(ctx context.Context, id, url string) error {
	return r.updateOne(ctx, "add photo", id, bson.M{
		"$push": bson.M{"photos": url},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *ListingRepository) AddFavorite(ctx context.Context, listingID, userID string) error {
	return r.updateOne(ctx, "add favorite", listingID, bson.M{"$addToSet": bson.M{"favorited_by": userID}})
}

func (r *ListingRepository) RemoveFavorite(ctx context.Context, listingID, userID string) error {
	return r.updateOne(ctx, "remove favorite", listingID, bson.M{"$pull": bson.M{"favorited_by": userID}})
}

func (r *ListingRepository) updateOne(ctx context.Context, op, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.String("listing_id", id), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", domain.ErrRepository, op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}
