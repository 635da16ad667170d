package web

import (
	"net/http"

	"github.com/Abdurahmanit/realestate-listings/internal/adapter/web/middleware"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/usecase"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes leaves room for multipart framing around the largest photo.
const maxBodyBytes = usecase.MaxPhotoSize + 1<<20

type Sessions interface {
	middleware.SessionResolver
	SessionService
}

type RouterDeps struct {
	ServiceName  string
	Listings     ListingService
	Favorites    FavoriteService
	Photos       PhotoService
	Users        UserService
	Sessions     Sessions
	Health       HealthCheck
	Metrics      middleware.RequestObserver
	SecureCookie bool
	Logger       *logger.Logger
}

func NewRouter(deps RouterDeps) (http.Handler, error) {
	log := deps.Logger.Named("http")
	rd, err := newRenderer(log)
	if err != nil {
		return nil, err
	}

	listings := &ListingHandler{
		listings:  deps.Listings,
		favorites: deps.Favorites,
		photos:    deps.Photos,
		render:    rd,
		logger:    log,
	}
	authH := &AuthHandler{users: deps.Users, sessions: deps.Sessions, render: rd, logger: log}
	pagesH := &PageHandler{health: deps.Health, render: rd, logger: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing(deps.ServiceName))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.LimitBody(maxBodyBytes))
	r.Use(middleware.MethodOverride)
	r.Use(middleware.CSRF(deps.SecureCookie, log))
	r.Use(middleware.LoadIdentity(deps.Sessions, log))

	r.Get("/", pagesH.Index)
	r.Get("/vip-lounge", pagesH.VIPLounge)
	r.Get("/healthz", pagesH.Healthz)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/sign-up", authH.SignUpForm)
		r.Post("/sign-up", authH.SignUp)
		r.Get("/sign-in", authH.SignInForm)
		r.Post("/sign-in", authH.SignIn)
		r.Get("/sign-out", authH.SignOut)
	})

	r.Route("/listings", func(r chi.Router) {
		r.Use(middleware.RequireSession)

		r.Get("/", listings.Index)
		r.Post("/", listings.Create)
		r.Get("/new", listings.New)
		r.Get("/{id}", listings.Show)
		r.Put("/{id}", listings.Update)
		r.Delete("/{id}", listings.Delete)
		r.Get("/{id}/edit", listings.Edit)
		r.Post("/{id}/favorited-by/{userId}", listings.Favorite)
		r.Delete("/{id}/favorited-by/{userId}", listings.Unfavorite)
		r.Post("/{id}/photos", listings.UploadPhoto)
	})

	return r, nil
}
