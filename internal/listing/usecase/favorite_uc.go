package usecase

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FavoriteUsecase toggles membership in a listing's favorite set.
// Any authenticated user may favorite any listing, including their own.
type FavoriteUsecase struct {
	repo    domain.FavoriteRepository
	cache   ListingCache
	events  EventPublisher
	metrics Metrics
	logger  *logger.Logger
}

func NewFavoriteUsecase(repo domain.FavoriteRepository, deps Deps, log *logger.Logger) *FavoriteUsecase {
	deps = deps.withDefaults()
	return &FavoriteUsecase{
		repo:    repo,
		cache:   deps.Cache,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  log.Named("FavoriteUsecase"),
	}
}

func (uc *FavoriteUsecase) Favorite(ctx context.Context, listingID, userID string) error {
	return uc.change(ctx, "favorite", listingID, userID, uc.repo.AddFavorite, SubjectListingFavorited)
}

func (uc *FavoriteUsecase) Unfavorite(ctx context.Context, listingID, userID string) error {
	return uc.change(ctx, "unfavorite", listingID, userID, uc.repo.RemoveFavorite, SubjectListingUnfavorited)
}

func (uc *FavoriteUsecase) change(
	ctx context.Context,
	action, listingID, userID string,
	apply func(ctx context.Context, listingID, userID string) error,
	subject string,
) error {
	ctx, span := tracer.Start(ctx, "FavoriteUsecase."+action, oteltrace.WithAttributes(
		attribute.String("listing_id", listingID),
		attribute.String("user_id", userID),
	))
	defer span.End()

	if userID == "" {
		return domain.ErrForbidden
	}

	if err := apply(ctx, listingID, userID); err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			// Nothing to toggle on a listing that does not exist.
			uc.logger.Info(action+" on missing listing ignored", zap.String("listing_id", listingID), zap.String("user_id", userID))
			return nil
		}
		uc.logger.Error(action+" failed", zap.String("listing_id", listingID), zap.String("user_id", userID), zap.Error(err))
		span.RecordError(err)
		return err
	}

	if err := uc.cache.DeleteListing(ctx, listingID); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.String("listing_id", listingID), zap.Error(err))
	}
	uc.metrics.FavoriteChanged(action)
	if err := uc.events.Publish(ctx, subject, map[string]string{"id": listingID, "user_id": userID}); err != nil {
		uc.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
	uc.logger.Info(action+" applied", zap.String("listing_id", listingID), zap.String("user_id", userID))
	return nil
}
