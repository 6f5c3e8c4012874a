package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/teamleave/leaveapi/internal/view"
)

// routePatterns maps the route names used by redirect responses to
// their chi patterns.
var routePatterns = map[string]string{
	"login":          "/login",
	"logout":         "/logout",
	"home":           "/",
	"forbidden":      "/forbidden",
	"request_new":    "/requests/new",
	"request_edit":   "/requests/{id}/edit",
	"request_delete": "/requests/{id}/delete",
	"users":          "/users",
	"user_new":       "/users/new",
	"user_edit":      "/users/{id}/edit",
	"user_delete":    "/users/{id}/delete",
}

// ResolveRoute turns a named route and its arguments into a URL.
// Unknown routes fall back to home rather than failing the redirect.
func ResolveRoute(route string, args map[string]string) string {
	pattern, ok := routePatterns[route]
	if !ok {
		return "/"
	}
	for key, val := range args {
		pattern = strings.ReplaceAll(pattern, "{"+key+"}", url.PathEscape(val))
	}
	return pattern
}

// RouterOptions controls the construction of the HTTP router. The
// dispatcher and authenticator are required; the rest has defaults.
type RouterOptions struct {
	Dispatcher    *view.Dispatcher
	Auth          Authenticator
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS
// policy, and every view mounted through the dispatcher.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	d := opts.Dispatcher

	mount := func(pattern string, v view.View) {
		h := d.Handle(v)
		r.Get(pattern, h)
		r.Post(pattern, h)
	}

	mount(routePatterns["login"], LoginView{Auth: opts.Auth, Sessions: d.Sessions})
	mount(routePatterns["logout"], LogoutView{Sessions: d.Sessions})
	mount(routePatterns["forbidden"], ForbiddenView{})

	mount(routePatterns["home"], view.Secured(HomeView{}))

	loadRequest := func(c *view.Ctx, id int64) (view.FormModel, error) {
		req, err := c.Requests.GetByID(c.Request.Context(), id)
		if err != nil {
			return nil, err
		}
		if !c.User.Admin && !c.User.Supervisor && req.UserID != c.User.ID {
			return nil, ErrForbidden
		}
		return req, nil
	}
	mount(routePatterns["request_new"], view.Secured(view.CreateView{
		Model:   func() view.FormModel { return &models.LeaveRequest{} },
		Route:   "home",
		Check:   requestStructuralCheck,
		Prepare: prepareRequest,
	}))
	mount(routePatterns["request_edit"], view.Secured(view.EditView{
		Load:  loadRequest,
		Route: "home",
		Check: requestStructuralCheck,
	}))
	mount(routePatterns["request_delete"], view.Secured(view.DeleteView{
		Load:  loadRequest,
		Route: "home",
	}))

	loadUser := func(c *view.Ctx, id int64) (view.FormModel, error) {
		return c.Users.GetByID(c.Request.Context(), id)
	}
	mount(routePatterns["users"], view.Secured(AdminOnly(UsersView{})))
	mount(routePatterns["user_new"], view.Secured(AdminOnly(view.CreateView{
		Model:   func() view.FormModel { return &models.User{} },
		Route:   "users",
		Prepare: prepareUser,
	})))
	mount(routePatterns["user_edit"], view.Secured(AdminOnly(view.EditView{
		Load:  loadUser,
		Route: "users",
	})))
	mount(routePatterns["user_delete"], view.Secured(AdminOnly(view.DeleteView{
		Load:  loadUser,
		Route: "users",
	})))

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/healthz", healthHandler)

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}

// requestStructuralCheck runs the form-level checks that must pass
// before any field is applied to the draft.
func requestStructuralCheck(c *view.Ctx, errs *view.Errors) {
	if c.FormValue("requests.date_from") == "" {
		errs.Addf("date_from is required")
	}
	if c.FormValue("requests.date_to") == "" {
		errs.Addf("date_to is required")
	}
}

// prepareRequest pins a new request to the caller. Only
// administrators may file a request for someone else.
func prepareRequest(c *view.Ctx, m view.FormModel) error {
	req := m.(*models.LeaveRequest)
	if req.UserID == 0 || !c.User.Admin {
		req.UserID = c.User.ID
	}
	if req.Type == "" {
		req.Type = models.TypeLegal
	}
	req.Status = models.StatusPending
	return nil
}

// prepareUser hashes the optional clear-text password submitted with
// a new account. The hash field itself is never form-writable.
func prepareUser(c *view.Ctx, m view.FormModel) error {
	user := m.(*models.User)
	if pw := c.FormValue("users.password"); pw != "" {
		hash, err := HashLocalPassword(pw)
		if err != nil {
			return err
		}
		user.PasswordHash = &hash
	}
	return nil
}
