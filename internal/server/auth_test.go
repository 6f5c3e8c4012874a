package server

import (
	"context"
	"errors"
	"io"
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/teamleave/leaveapi/internal/db/bunx"
	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/teamleave/leaveapi/internal/directory"
	"github.com/teamleave/leaveapi/internal/repository"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { bunx.Close(db) })

	ctx := context.Background()
	require.NoError(t, bunx.CreateSchema(ctx, db))

	_, err = db.NewDelete().Table("requests").Where("1 = 1").Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewDelete().Table("users").Where("1 = 1").Exec(ctx)
	require.NoError(t, err)

	return db
}

func TestLocalAuthenticator(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewBunUserRepository(db)
	ctx := context.Background()

	hash, err := HashLocalPassword("hunter2")
	require.NoError(t, err)

	require.NoError(t, users.Create(ctx, &models.User{
		Login:        "jdoe",
		Email:        "jdoe@example.com",
		FirstName:    "John",
		LastName:     "Doe",
		Country:      "fr",
		PasswordHash: &hash,
	}))
	require.NoError(t, users.Create(ctx, &models.User{
		Login:     "nopass",
		Email:     "nopass@example.com",
		FirstName: "No",
		LastName:  "Pass",
		Country:   "fr",
	}))

	auth := &LocalAuthenticator{}

	t.Run("accepts the stored password", func(t *testing.T) {
		user, err := auth.Authenticate(ctx, users, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Login)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, users, "jdoe", "hunter3")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("rejects an unknown login", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, users, "ghost", "hunter2")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("rejects an account without a hash", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, users, "nopass", "anything")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})
}

// fakeLDAP fakes the directory service behind the Conn interface so
// the directory-backed authenticator can run against it.
type fakeLDAP struct {
	passwords map[string]string
	results   map[string]*goldap.SearchResult
}

func (f *fakeLDAP) dial(url string) (directory.Conn, error) {
	return &fakeLDAPConn{ldap: f}, nil
}

type fakeLDAPConn struct {
	ldap *fakeLDAP
}

func (c *fakeLDAPConn) Bind(username, password string) error {
	if pw, ok := c.ldap.passwords[username]; ok && pw == password {
		return nil
	}
	return goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (c *fakeLDAPConn) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	if res, ok := c.ldap.results[req.Filter]; ok {
		return res, nil
	}
	return &goldap.SearchResult{}, nil
}

func (c *fakeLDAPConn) Add(req *goldap.AddRequest) error       { return nil }
func (c *fakeLDAPConn) Modify(req *goldap.ModifyRequest) error { return nil }
func (c *fakeLDAPConn) Close() error                           { return nil }

func newFakeDirectoryClient(t *testing.T) (*directory.Client, *fakeLDAP) {
	t.Helper()

	fake := &fakeLDAP{
		passwords: map[string]string{"cn=system,dc=example,dc=com": "sys-pass"},
		results: map[string]*goldap.SearchResult{
			"(cn=jdoe)": {Entries: []*goldap.Entry{{
				DN: "cn=jdoe,ou=fr,dc=example,dc=com",
				Attributes: []*goldap.EntryAttribute{
					goldap.NewEntryAttribute("cn", []string{"jdoe"}),
					goldap.NewEntryAttribute("mail", []string{"jdoe@example.com"}),
					goldap.NewEntryAttribute("givenName", []string{"John"}),
					goldap.NewEntryAttribute("sn", []string{"Doe"}),
					goldap.NewEntryAttribute("manager", []string{"cn=boss,ou=fr,dc=example,dc=com"}),
				},
			}}},
		},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	client, err := directory.NewClient(&directory.Config{
		URL:            "ldap://ldap.example.com",
		BaseDN:         "dc=example,dc=com",
		SearchFilter:   "(cn=%s)",
		MailAttr:       "mail",
		FirstnameAttr:  "givenName",
		LastnameAttr:   "sn",
		LoginAttr:      "cn",
		ManagerAttr:    "manager",
		CountryAttr:    "ou",
		AdminDN:        "ou=admins,dc=example,dc=com",
		SystemDN:       "cn=system,dc=example,dc=com",
		SystemPassword: "sys-pass",
	}, directory.WithDialer(fake.dial), directory.WithLogger(log))
	require.NoError(t, err)

	return client, fake
}

func TestDirectoryAuthenticator(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewBunUserRepository(db)
	ctx := context.Background()

	client, fake := newFakeDirectoryClient(t)
	fake.passwords["cn=jdoe,ou=fr,dc=example,dc=com"] = "hunter2"

	auth := &DirectoryAuthenticator{Client: client}

	t.Run("first login provisions the account from the profile", func(t *testing.T) {
		user, err := auth.Authenticate(ctx, users, "jdoe", "hunter2")
		require.NoError(t, err)

		assert.Equal(t, "jdoe", user.Login)
		assert.Equal(t, "jdoe@example.com", user.Email)
		assert.Equal(t, "boss", user.ManagerLogin)
		assert.Equal(t, "fr", user.Country)
		assert.NotZero(t, user.ID)

		stored, err := users.GetByLogin(ctx, "jdoe")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("second login reuses the stored account", func(t *testing.T) {
		first, err := auth.Authenticate(ctx, users, "jdoe", "hunter2")
		require.NoError(t, err)
		second, err := auth.Authenticate(ctx, users, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("rejected bind maps to bad credentials", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, users, "jdoe", "wrong")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("unknown directory user maps to bad credentials", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, users, "ghost", "whatever")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})
}
