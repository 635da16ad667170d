package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/usecase"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

type ListingService interface {
	ListAll(ctx context.Context) ([]*domain.Listing, error)
	Get(ctx context.Context, id, viewerID string) (*domain.ListingView, error)
	Create(ctx context.Context, in usecase.CreateListingInput, ownerID string) (string, error)
	Update(ctx context.Context, id string, patch domain.ListingPatch, requesterID string) (*domain.Listing, error)
	Delete(ctx context.Context, id, requesterID string) error
	CanEdit(ctx context.Context, id, requesterID string) (*domain.Listing, error)
}

type FavoriteService interface {
	Favorite(ctx context.Context, listingID, userID string) error
	Unfavorite(ctx context.Context, listingID, userID string) error
}

type PhotoService interface {
	Enabled() bool
	UploadPhoto(ctx context.Context, listingID, requesterID, fileName string, data []byte) (string, error)
}

const photoFormField = "photo"

type ListingHandler struct {
	listings  ListingService
	favorites FavoriteService
	photos    PhotoService
	render    *renderer
	logger    *logger.Logger
}

// All handlers run behind RequireSession, so the identity is always present.
func currentUserID(r *http.Request) string {
	return auth.UserIDFrom(r.Context())
}

func (h *ListingHandler) Index(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListAll(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.render.render(w, r, http.StatusOK, "listings/index.html", &viewData{Listings: listings})
}

func (h *ListingHandler) New(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "listings/new.html", nil)
}

func (h *ListingHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	view, err := h.listings.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.render.render(w, r, http.StatusOK, "listings/show.html", &viewData{
		Listing:       view.Listing,
		Favorited:     view.ViewerHasFavorited,
		IsOwner:       domain.CanMutate(userID, view.Listing),
		PhotosEnabled: h.photos != nil && h.photos.Enabled(),
	})
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := usecase.CreateListingInput{
		StreetAddress: r.PostForm.Get("streetAddress"),
		City:          r.PostForm.Get("city"),
	}
	var problems []string
	var err error
	if in.Price, err = parseNumber(r.PostForm.Get("price")); err != nil {
		problems = append(problems, "price must be a number")
	}
	if in.Size, err = parseNumber(r.PostForm.Get("size")); err != nil {
		problems = append(problems, "size must be a number")
	}
	if len(problems) > 0 {
		writeError(w, r, h.logger, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; ")))
		return
	}

	if _, err := h.listings.Create(r.Context(), in, currentUserID(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (h *ListingHandler) Edit(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.CanEdit(r.Context(), chi.URLParam(r, "id"), currentUserID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.render.render(w, r, http.StatusOK, "listings/edit.html", &viewData{Listing: listing, IsOwner: true})
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	patch, err := patchFromForm(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.listings.Update(r.Context(), chi.URLParam(r, "id"), patch, currentUserID(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), chi.URLParam(r, "id"), currentUserID(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (h *ListingHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.favorites.Favorite)
}

func (h *ListingHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.favorites.Unfavorite)
}

// toggleFavorite refuses to act on behalf of a user other than the session user.
func (h *ListingHandler) toggleFavorite(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, listingID, userID string) error) {
	listingID := chi.URLParam(r, "id")
	userID := currentUserID(r)
	if chi.URLParam(r, "userId") != userID {
		http.Error(w, "Forbidden: you may only change your own favorites", http.StatusForbidden)
		return
	}
	if err := apply(r.Context(), listingID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, "/listings/"+listingID, http.StatusSeeOther)
}

func (h *ListingHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if h.photos == nil {
		writeError(w, r, h.logger, domain.ErrStorageUnavailable)
		return
	}

	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "photo is too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, h.logger, fmt.Errorf("%w: a photo file is required", domain.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, usecase.MaxPhotoSize+1))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.photos.UploadPhoto(r.Context(), listingID, currentUserID(r), header.Filename, data); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, "/listings/"+listingID, http.StatusSeeOther)
}

func parseNumber(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return parseFinite(raw)
}

// parseFinite refuses the "NaN" and "Inf" spellings strconv accepts.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}

// patchFromForm treats every submitted field as supplied; absent fields stay untouched.
func patchFromForm(r *http.Request) (domain.ListingPatch, error) {
	var patch domain.ListingPatch
	var problems []string

	if _, ok := r.PostForm["streetAddress"]; ok {
		v := r.PostForm.Get("streetAddress")
		patch.StreetAddress = &v
	}
	if _, ok := r.PostForm["city"]; ok {
		v := r.PostForm.Get("city")
		patch.City = &v
	}
	if _, ok := r.PostForm["price"]; ok {
		v, err := parseFinite(r.PostForm.Get("price"))
		if err != nil {
			problems = append(problems, "price must be a number")
		}
		patch.Price = &v
	}
	if _, ok := r.PostForm["size"]; ok {
		v, err := parseFinite(r.PostForm.Get("size"))
		if err != nil {
			problems = append(problems, "size must be a number")
		}
		patch.Size = &v
	}
	if len(problems) > 0 {
		return patch, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return patch, nil
}
