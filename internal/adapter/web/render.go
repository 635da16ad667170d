package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/realestate-listings/internal/adapter/web/middleware"
	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

var pages = []string{
	"index.html",
	"listings/index.html",
	"listings/new.html",
	"listings/show.html",
	"listings/edit.html",
	"auth/sign-up.html",
	"auth/sign-in.html",
}

// viewData is what every page template receives. User and CSRFToken are filled per request.
type viewData struct {
	User          *auth.Identity
	CSRFToken     string
	Error         string
	Form          map[string]string
	Listings      []*domain.Listing
	Listing       *domain.Listing
	Favorited     bool
	IsOwner       bool
	PhotosEnabled bool
}

type renderer struct {
	templates map[string]*template.Template
	logger    *logger.Logger
}

func newRenderer(log *logger.Logger) (*renderer, error) {
	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"num":   func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = t
	}
	return &renderer{templates: templates, logger: log}, nil
}

func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data *viewData) {
	t, ok := rd.templates[page]
	if !ok {
		rd.logger.Error("unknown template", zap.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = &viewData{}
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		data.User = id
	}
	data.CSRFToken = middleware.CSRFToken(r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "page", data); err != nil {
		rd.logger.Error("failed to render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
