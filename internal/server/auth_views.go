package server

import (
	"errors"

	"github.com/google/uuid"

	"github.com/teamleave/leaveapi/internal/view"
)

// LoginView displays and processes the login form. Failed attempts
// redisplay the form with the error list; a successful bind issues
// the session cookie and redirects home.
type LoginView struct {
	Auth     Authenticator
	Sessions *view.SessionManager
}

func (v LoginView) Render(c *view.Ctx) (view.Response, error) {
	if !c.HasField(view.SubmittedField) {
		return loginPayload(&view.Errors{}), nil
	}

	login := c.FormValue("login")
	password := c.FormValue("password")

	var errs view.Errors
	if login == "" {
		errs.Addf("login is required")
	}
	if password == "" {
		errs.Addf("password is required")
	}
	if !errs.Empty() {
		return loginPayload(&errs), nil
	}

	user, err := v.Auth.Authenticate(c.Request.Context(), c.Users, login, password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			errs.Addf("unknown login or bad password")
			return loginPayload(&errs), nil
		}
		return nil, err
	}

	if err := v.Sessions.Issue(c.Writer, user.Login); err != nil {
		return nil, err
	}
	return view.Redirect{Route: "home"}, nil
}

func loginPayload(errs *view.Errors) view.TemplateData {
	return view.TemplateData{
		"errors":     errs.List(),
		"csrf_token": uuid.NewString(),
	}
}

// LogoutView clears the session cookie and returns to the login form.
type LogoutView struct {
	Sessions *view.SessionManager
}

func (v LogoutView) Render(c *view.Ctx) (view.Response, error) {
	v.Sessions.Clear(c.Writer)
	return view.Redirect{Route: "login"}, nil
}
