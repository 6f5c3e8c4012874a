package models

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// User represents a provisioned account. Authentication normally runs
// against the directory; the PasswordHash field stores a bcrypt hash
// for deployments without a directory.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Login        string    `bun:"login,notnull,unique" mapstructure:"login"`
	Email        string    `bun:"email,notnull" mapstructure:"email"`
	FirstName    string    `bun:"firstname,notnull" mapstructure:"firstname"`
	LastName     string    `bun:"lastname,notnull" mapstructure:"lastname"`
	ManagerLogin string    `bun:"manager_login" mapstructure:"manager"`
	Country      string    `bun:"country,notnull" mapstructure:"country"`
	Admin        bool      `bun:"is_admin,notnull,default:false" mapstructure:"admin"`
	Supervisor   bool      `bun:"is_supervisor,notnull,default:false" mapstructure:"supervisor"`
	PasswordHash *string   `bun:"password_hash"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// FormFields is the allow-list of form-writable fields. Everything
// else (role flags excepted for admin forms, password hash always) is
// never applied from submitted data.
func (u *User) FormFields() []string {
	return []string{"login", "email", "firstname", "lastname", "manager", "country", "admin", "supervisor"}
}

// Name returns the form prefix and payload key for user forms.
func (u *User) Name() string { return "users" }

// FullName returns the display name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validate checks the semantic invariants of the user against the
// store. Failures are collected into a ModelError, not raised one by
// one.
func (u *User) Validate(ctx context.Context, db bun.IDB) error {
	merr := &ModelError{}

	if u.Login == "" {
		merr.Appendf("login is required")
	}
	if u.Email == "" {
		merr.Appendf("email is required")
	} else if !strings.Contains(u.Email, "@") {
		merr.Appendf("email %q is not a valid address", u.Email)
	}
	if u.FirstName == "" {
		merr.Appendf("firstname is required")
	}
	if u.LastName == "" {
		merr.Appendf("lastname is required")
	}

	if u.Login != "" {
		exists, err := db.NewSelect().
			Model((*User)(nil)).
			Where("login = ?", u.Login).
			Where("id != ?", u.ID).
			Exists(ctx)
		if err != nil {
			merr.Appendf("could not check login uniqueness: %v", err)
		} else if exists {
			merr.Appendf("login %q is already taken", u.Login)
		}
	}

	return merr.ErrOrNil()
}
