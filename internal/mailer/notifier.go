package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

type EmailLookup interface {
	EmailByID(ctx context.Context, userID string) (string, error)
}

type listingCreatedEvent struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
}

// ListingCreatedNotifier emails the owner of a newly created listing.
type ListingCreatedNotifier struct {
	users  EmailLookup
	mailer Mailer
	logger *logger.Logger
}

func NewListingCreatedNotifier(users EmailLookup, mailer Mailer, log *logger.Logger) *ListingCreatedNotifier {
	return &ListingCreatedNotifier{users: users, mailer: mailer, logger: log.Named("ListingCreatedNotifier")}
}

// Handle consumes a listing.created payload. Owners without an email are skipped.
func (n *ListingCreatedNotifier) Handle(ctx context.Context, data []byte) error {
	var event listingCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode listing.created: %w", err)
	}
	if event.OwnerID == "" {
		return fmt.Errorf("listing.created %s has no owner", event.ID)
	}

	email, err := n.users.EmailByID(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("look up owner %s: %w", event.OwnerID, err)
	}
	if email == "" {
		n.logger.Debug("owner has no email, skipping", zap.String("owner_id", event.OwnerID))
		return nil
	}

	address := strings.TrimSpace(strings.Join([]string{event.StreetAddress, event.City}, ", "))
	return n.mailer.SendListingCreatedEmail(email, strings.Trim(address, ", "))
}
