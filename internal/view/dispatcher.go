package view

import (
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/sirupsen/logrus"
	"github.com/teamleave/leaveapi/internal/repository"
	"github.com/uptrace/bun"
)

// View is the unit of request handling. Render produces either a
// TemplateData payload or a Redirect directive; any error aborts the
// commit and propagates.
type View interface {
	Render(c *Ctx) (Response, error)
}

// ErrorHook lets a view decide whether a render error propagates.
// The default behavior (no hook) always propagates.
type ErrorHook interface {
	// OnError returns true when the error must be logged and
	// propagated, false to suppress it.
	OnError(err error) bool
}

// RouteResolver turns a named route and its arguments into a URL.
type RouteResolver func(route string, args map[string]string) string

// Dispatcher runs the uniform request lifecycle around every view:
// resolve the caller identity, open the relational session, render,
// inject the global template context, then commit, or log and
// propagate on failure.
type Dispatcher struct {
	DB *bun.DB

	// NewUsers and NewRequests build the repositories bound to the
	// request transaction.
	NewUsers    func(db bun.IDB) repository.UserRepository
	NewRequests func(db bun.IDB) repository.LeaveRequestRepository

	Sessions *SessionManager
	Routes   RouteResolver
	Version  string
	Log      logrus.FieldLogger
}

// Handle adapts a view into an http.HandlerFunc driven by the
// dispatch lifecycle.
func (d *Dispatcher) Handle(v View) http.HandlerFunc {
	name := viewName(v)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form data", http.StatusBadRequest)
			return
		}

		c := &Ctx{Request: r, Writer: w, Login: AnonymousLogin}

		tx, err := d.DB.BeginTx(r.Context(), nil)
		if err != nil {
			d.Log.WithError(err).Error("failed to open transaction")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		c.Tx = tx
		c.Users = d.NewUsers(tx)
		c.Requests = d.NewRequests(tx)

		if login, ok := d.Sessions.Resolve(r); ok {
			c.Login = login
			user, err := c.Users.GetByLogin(r.Context(), login)
			if err == nil {
				c.User = user
			}
		}

		d.Log.WithFields(logrus.Fields{"view": name, "login": c.Login}).Info("dispatching view")

		resp, err := v.Render(c)
		if err == nil {
			if data, ok := resp.(TemplateData); ok {
				err = d.postProcess(c, data)
			}
		}
		if err == nil {
			err = tx.Commit()
		}

		if err != nil {
			_ = tx.Rollback()

			propagate := true
			if hook, ok := v.(ErrorHook); ok {
				propagate = hook.OnError(err)
			}
			if propagate {
				d.Log.WithError(err).WithFields(logrus.Fields{
					"view":  name,
					"login": c.Login,
					"path":  r.URL.Path,
				}).Error("view dispatch failed")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		d.write(w, r, resp)
	}
}

// postProcess injects the global template context into payload
// responses. Redirects pass through untouched.
func (d *Dispatcher) postProcess(c *Ctx, data TemplateData) error {
	app := map[string]any{
		"version": d.Version,
		"login":   c.Login,
		"user":    c.User,
	}

	if c.User != nil {
		ctx := c.Request.Context()
		var (
			count int
			err   error
		)
		switch {
		case c.User.Admin:
			count, err = c.Requests.CountPending(ctx)
		case c.User.Supervisor:
			count, err = c.Requests.CountPendingByManager(ctx, c.User.Login)
		default:
			count, err = c.Requests.CountPendingByUser(ctx, c.User.ID)
		}
		if err != nil {
			return err
		}
		app["requests_count"] = count
	}

	data["app"] = app
	return nil
}

func (d *Dispatcher) write(w http.ResponseWriter, r *http.Request, resp Response) {
	switch resp := resp.(type) {
	case Redirect:
		http.Redirect(w, r, d.Routes(resp.Route, resp.Args), http.StatusSeeOther)
	case TemplateData:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			d.Log.WithError(err).Error("failed to encode response payload")
		}
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Secured wraps a view so anonymous callers are sent to the login
// view instead of rendering it.
func Secured(v View) View {
	return secured{inner: v}
}

type secured struct {
	inner View
}

func (s secured) Render(c *Ctx) (Response, error) {
	if c.Anonymous() {
		return Redirect{Route: "login"}, nil
	}
	return s.inner.Render(c)
}

func (s secured) OnError(err error) bool {
	if hook, ok := s.inner.(ErrorHook); ok {
		return hook.OnError(err)
	}
	return true
}

func viewName(v View) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "view"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeOf(secured{}) {
		return "secured " + viewName(v.(secured).inner)
	}
	return t.String()
}
