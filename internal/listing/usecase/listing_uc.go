package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("listing-web/usecase")

type ListingUsecase struct {
	repo    domain.ListingRepository
	cache   ListingCache
	events  EventPublisher
	metrics Metrics
	logger  *logger.Logger
}

func NewListingUsecase(repo domain.ListingRepository, deps Deps, log *logger.Logger) *ListingUsecase {
	deps = deps.withDefaults()
	return &ListingUsecase{
		repo:    repo,
		cache:   deps.Cache,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  log.Named("ListingUsecase"),
	}
}

type CreateListingInput struct {
	StreetAddress string
	City          string
	Price         float64
	Size          float64
}

func (in CreateListingInput) validate() error {
	var problems []string
	if strings.TrimSpace(in.StreetAddress) == "" {
		problems = append(problems, "street address is required")
	}
	if strings.TrimSpace(in.City) == "" {
		problems = append(problems, "city is required")
	}
	if !positive(in.Price) {
		problems = append(problems, "price must be a positive number")
	}
	if !positive(in.Size) {
		problems = append(problems, "size must be a positive number")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// positive rejects NaN and infinities along with zero and negatives.
func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func validatePatch(p domain.ListingPatch) error {
	var problems []string
	if p.StreetAddress != nil && strings.TrimSpace(*p.StreetAddress) == "" {
		problems = append(problems, "street address cannot be empty")
	}
	if p.City != nil && strings.TrimSpace(*p.City) == "" {
		problems = append(problems, "city cannot be empty")
	}
	if p.Price != nil && !positive(*p.Price) {
		problems = append(problems, "price must be a positive number")
	}
	if p.Size != nil && !positive(*p.Size) {
		problems = append(problems, "size must be a positive number")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func (uc *ListingUsecase) ListAll(ctx context.Context) ([]*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.ListAll")
	defer span.End()

	listings, err := uc.repo.FindAll(ctx)
	if err != nil {
		uc.logger.Error("failed to list listings", zap.Error(err))
		span.RecordError(err)
		return nil, err
	}
	uc.logger.Debug("listed listings", zap.Int("count", len(listings)))
	return listings, nil
}

// Get returns the listing with id as seen by viewerID.
func (uc *ListingUsecase) Get(ctx context.Context, id, viewerID string) (*domain.ListingView, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.Get", oteltrace.WithAttributes(attribute.String("listing_id", id)))
	defer span.End()

	listing, err := uc.cache.GetListing(ctx, id)
	if err != nil {
		uc.logger.Warn("cache read failed", zap.String("listing_id", id), zap.Error(err))
		listing = nil
	}
	if listing == nil {
		generation, errGen := uc.cache.Generation(ctx, id)
		if errGen != nil {
			uc.logger.Warn("cache generation read failed", zap.String("listing_id", id), zap.Error(errGen))
		}
		listing, err = uc.repo.FindByID(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrListingNotFound) {
				uc.logger.Error("failed to load listing", zap.String("listing_id", id), zap.Error(err))
				span.RecordError(err)
			}
			return nil, err
		}
		if errGen == nil {
			if errCache := uc.cache.SetListing(ctx, listing, generation); errCache != nil {
				uc.logger.Warn("cache write failed", zap.String("listing_id", id), zap.Error(errCache))
			}
		}
	}

	return &domain.ListingView{
		Listing:            listing,
		ViewerHasFavorited: listing.IsFavoritedBy(viewerID),
	}, nil
}

// Create persists a new listing owned by ownerID and returns its ID.
func (uc *ListingUsecase) Create(ctx context.Context, in CreateListingInput, ownerID string) (string, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.Create", oteltrace.WithAttributes(attribute.String("owner_id", ownerID)))
	defer span.End()

	if ownerID == "" {
		return "", fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	if err := in.validate(); err != nil {
		uc.logger.Info("rejected listing", zap.String("owner_id", ownerID), zap.Error(err))
		return "", err
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		Owner:         ownerID,
		StreetAddress: strings.TrimSpace(in.StreetAddress),
		City:          strings.TrimSpace(in.City),
		Price:         in.Price,
		Size:          in.Size,
		FavoritedBy:   []string{},
		Photos:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("failed to create listing", zap.String("owner_id", ownerID), zap.Error(err))
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("listing_id", listing.ID))
	uc.metrics.ListingCreated()

	uc.publish(ctx, SubjectListingCreated, map[string]string{"id": listing.ID, "owner_id": ownerID, "street_address": listing.StreetAddress, "city": listing.City})
	uc.logger.Info("listing created", zap.String("listing_id", listing.ID), zap.String("owner_id", ownerID))
	return listing.ID, nil
}

// Update merges patch into the listing. Only the owner may update.
func (uc *ListingUsecase) Update(ctx context.Context, id string, patch domain.ListingPatch, requesterID string) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUsecase.Update", oteltrace.WithAttributes(
		attribute.String("listing_id", id),
		attribute.String("requester_id", requesterID),
	))
	defer span.End()

	listing, err := uc.loadForMutation(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return listing, nil
	}
	if patch.StreetAddress != nil {
		trimmed := strings.TrimSpace(*patch.StreetAddress)
		patch.StreetAddress = &trimmed
	}
	if patch.City != nil {
		trimmed := strings.TrimSpace(*patch.City)
		patch.City = &trimmed
	}

	if err := uc.repo.UpdateFields(ctx, id, patch); err != nil {
		uc.logger.Error("failed to update listing", zap.String("listing_id", id), zap.Error(err))
		span.RecordError(err)
		return nil, err
	}
	patch.Apply(listing)
	listing.UpdatedAt = time.Now().UTC()
	uc.invalidate(ctx, id)
	uc.metrics.ListingUpdated()

	uc.publish(ctx, SubjectListingUpdated, map[string]string{"id": id, "owner_id": listing.Owner})
	uc.logger.Info("listing updated", zap.String("listing_id", id))
	return listing, nil
}

// Delete permanently removes the listing. Only the owner may delete.
func (uc *ListingUsecase) Delete(ctx context.Context, id, requesterID string) error {
	ctx, span := tracer.Start(ctx, "ListingUsecase.Delete", oteltrace.WithAttributes(
		attribute.String("listing_id", id),
		attribute.String("requester_id", requesterID),
	))
	defer span.End()

	listing, err := uc.loadForMutation(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Error("failed to delete listing", zap.String("listing_id", id), zap.Error(err))
			span.RecordError(err)
		}
		return err
	}
	uc.invalidate(ctx, id)
	uc.metrics.ListingDeleted()

	uc.publish(ctx, SubjectListingDeleted, map[string]string{"id": id, "owner_id": listing.Owner})
	uc.logger.Info("listing deleted", zap.String("listing_id", id))
	return nil
}

// CanEdit loads the listing and checks ownership, for rendering the edit form.
func (uc *ListingUsecase) CanEdit(ctx context.Context, id, requesterID string) (*domain.Listing, error) {
	return uc.loadForMutation(ctx, id, requesterID)
}

func (uc *ListingUsecase) loadForMutation(ctx context.Context, id, requesterID string) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Error("failed to load listing", zap.String("listing_id", id), zap.Error(err))
		}
		return nil, err
	}
	if !domain.CanMutate(requesterID, listing) {
		uc.logger.Warn("forbidden listing mutation",
			zap.String("listing_id", id),
			zap.String("owner_id", listing.Owner),
			zap.String("requester_id", requesterID))
		return nil, domain.ErrForbidden
	}
	return listing, nil
}

func (uc *ListingUsecase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.DeleteListing(ctx, id); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, data interface{}) {
	if err := uc.events.Publish(ctx, subject, data); err != nil {
		uc.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
