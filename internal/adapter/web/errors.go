package web

import (
	"errors"
	"net/http"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

// writeError maps usecase errors to responses. Internal details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrListingNotFound):
		http.Redirect(w, r, "/listings", http.StatusSeeOther)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Forbidden: "+domain.ErrForbidden.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrStorageUnavailable):
		http.Error(w, "Photo uploads are not available", http.StatusServiceUnavailable)
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
