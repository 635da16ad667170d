package usecase

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

const MaxPhotoSize = 10 << 20

type PhotoUsecase struct {
	storage  domain.Storage
	listings *ListingUsecase
	logger   *logger.Logger
}

// NewPhotoUsecase accepts a nil storage; uploads then fail with ErrStorageUnavailable.
func NewPhotoUsecase(storage domain.Storage, listings *ListingUsecase, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{storage: storage, listings: listings, logger: log.Named("PhotoUsecase")}
}

func (uc *PhotoUsecase) Enabled() bool { return uc.storage != nil }

// UploadPhoto stores data and attaches its URL to the listing. Owner only.
func (uc *PhotoUsecase) UploadPhoto(ctx context.Context, listingID, requesterID, fileName string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "PhotoUsecase.UploadPhoto")
	defer span.End()

	if uc.storage == nil {
		return "", domain.ErrStorageUnavailable
	}
	if _, err := uc.listings.loadForMutation(ctx, listingID, requesterID); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: photo is empty", domain.ErrValidation)
	}
	if len(data) > MaxPhotoSize {
		return "", fmt.Errorf("%w: photo exceeds %d bytes", domain.ErrValidation, MaxPhotoSize)
	}

	url, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		uc.logger.Error("photo upload failed", zap.String("listing_id", listingID), zap.Error(err))
		span.RecordError(err)
		return "", err
	}
	if err := uc.listings.repo.AddPhoto(ctx, listingID, url); err != nil {
		uc.logger.Error("failed to attach photo", zap.String("listing_id", listingID), zap.String("url", url), zap.Error(err))
		return "", err
	}
	uc.listings.invalidate(ctx, listingID)
	uc.listings.publish(ctx, SubjectPhotoUploaded, map[string]string{"id": listingID, "photo_url": url, "user_id": requesterID})
	uc.logger.Info("photo uploaded", zap.String("listing_id", listingID), zap.String("url", url))
	return url, nil
}
