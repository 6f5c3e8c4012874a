package server

import (
	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/teamleave/leaveapi/internal/view"
)

// HomeView lists the vacation requests visible to the caller:
// administrators see everything, supervisors the requests awaiting
// their approval, ordinary users their own.
type HomeView struct{}

func (v HomeView) Render(c *view.Ctx) (view.Response, error) {
	ctx := c.Request.Context()

	var (
		reqs []models.LeaveRequest
		err  error
	)
	switch {
	case c.User.Admin:
		reqs, err = c.Requests.List(ctx)
	case c.User.Supervisor:
		reqs, err = c.Requests.ListByManager(ctx, c.User.Login)
	default:
		reqs, err = c.Requests.ListByUser(ctx, c.User.ID)
	}
	if err != nil {
		return nil, err
	}

	return view.TemplateData{"requests": reqs}, nil
}

// ForbiddenView tells the caller their account lacks the required
// role.
type ForbiddenView struct{}

func (ForbiddenView) Render(c *view.Ctx) (view.Response, error) {
	return view.TemplateData{"message": "insufficient permissions"}, nil
}

// AdminOnly wraps a view so non-administrator callers are sent to the
// forbidden view instead of rendering it.
func AdminOnly(v view.View) view.View {
	return adminOnly{inner: v}
}

type adminOnly struct {
	inner view.View
}

func (a adminOnly) Render(c *view.Ctx) (view.Response, error) {
	if c.User == nil || !c.User.Admin {
		return view.Redirect{Route: "forbidden"}, nil
	}
	return a.inner.Render(c)
}

func (a adminOnly) OnError(err error) bool {
	if hook, ok := a.inner.(view.ErrorHook); ok {
		return hook.OnError(err)
	}
	return true
}
