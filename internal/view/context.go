package view

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/teamleave/leaveapi/internal/repository"
	"github.com/uptrace/bun"
)

// AnonymousLogin is the caller identity used when no session exists.
const AnonymousLogin = "anonymous"

// Ctx carries the per-request state: the open transaction acting as
// the relational session, and the resolved caller identity. It is
// created at dispatch time, owned by exactly one request and
// discarded with the response.
type Ctx struct {
	Request *http.Request
	Writer  http.ResponseWriter

	// Tx is the relational session for this request. It commits after
	// a successful render and rolls back on error.
	Tx bun.Tx

	// Users and Requests are bound to Tx. The pool serves one
	// connection at a time on SQLite, so every read inside a request
	// must go through the transaction.
	Users    repository.UserRepository
	Requests repository.LeaveRequestRepository

	// Login is the authenticated caller login, or AnonymousLogin.
	Login string

	// User is the caller's stored account, nil when anonymous or not
	// provisioned.
	User *models.User
}

// Param returns a path parameter.
func (c *Ctx) Param(key string) string {
	return chi.URLParam(c.Request, key)
}

// FormValue returns a submitted form field.
func (c *Ctx) FormValue(key string) string {
	return c.Request.Form.Get(key)
}

// HasField reports whether the submission carries the given field.
func (c *Ctx) HasField(key string) bool {
	_, ok := c.Request.Form[key]
	return ok
}

// Anonymous reports whether the caller is unauthenticated.
func (c *Ctx) Anonymous() bool {
	return c.User == nil
}
