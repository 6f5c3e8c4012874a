package server

import (
	"github.com/teamleave/leaveapi/internal/view"
)

// UsersView lists every stored account, the administrator directory.
type UsersView struct{}

func (v UsersView) Render(c *view.Ctx) (view.Response, error) {
	users, err := c.Users.List(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return view.TemplateData{"users": users}, nil
}
