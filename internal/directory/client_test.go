package directory

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory simulates the remote service behind the Conn
// interface. Every dial hands out a fresh connection that shares the
// same entry set, matching the one-connection-per-operation contract.
type fakeDirectory struct {
	passwords map[string]string             // dn -> accepted password
	results   map[string]*ldap.SearchResult // filter -> result

	dials    int
	searches []string
	adds     []*ldap.AddRequest
	modifies []*ldap.ModifyRequest
	dialErr  error
}

func (d *fakeDirectory) dial(url string) (Conn, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	d.dials++
	return &fakeConn{dir: d}, nil
}

type fakeConn struct {
	dir    *fakeDirectory
	closed bool
}

func (c *fakeConn) Bind(username, password string) error {
	if pw, ok := c.dir.passwords[username]; ok && pw == password {
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	c.dir.searches = append(c.dir.searches, req.Filter)
	if res, ok := c.dir.results[req.Filter]; ok {
		return res, nil
	}
	return &ldap.SearchResult{}, nil
}

func (c *fakeConn) Add(req *ldap.AddRequest) error {
	c.dir.adds = append(c.dir.adds, req)
	return nil
}

func (c *fakeConn) Modify(req *ldap.ModifyRequest) error {
	c.dir.modifies = append(c.dir.modifies, req)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

const (
	testSystemDN   = "cn=system,dc=example,dc=com"
	testSystemPass = "sys-pass"
	testUserDN     = "cn=jdoe,ou=fr,dc=example,dc=com"
)

func testConfig() *Config {
	return &Config{
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
		SystemDN:       testSystemDN,
		SystemPassword: testSystemPass,
	}
}

func userEntry() *ldap.Entry {
	return &ldap.Entry{
		DN: testUserDN,
		Attributes: []*ldap.EntryAttribute{
			ldap.NewEntryAttribute("cn", []string{"jdoe"}),
			ldap.NewEntryAttribute("mail", []string{"jdoe@example.com"}),
			ldap.NewEntryAttribute("givenName", []string{"John"}),
			ldap.NewEntryAttribute("sn", []string{"Doe"}),
			ldap.NewEntryAttribute("manager", []string{"cn=boss,ou=fr,dc=example,dc=com"}),
		},
	}
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		passwords: map[string]string{testSystemDN: testSystemPass},
		results:   map[string]*ldap.SearchResult{},
	}
}

func newTestClient(t *testing.T, dir *fakeDirectory) *Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	client, err := NewClient(testConfig(), WithDialer(dir.dial), WithLogger(log))
	require.NoError(t, err)
	return client
}

func TestNewClient_ValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SearchFilter = ""

	_, err := NewClient(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SearchFilter is required")
}

func TestNewClient_SystemBindRejected(t *testing.T) {
	dir := newFakeDirectory()
	dir.passwords[testSystemDN] = "other-pass"

	_, err := NewClient(testConfig(), WithDialer(dir.dial))
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
}

func TestNewClient_DialFails(t *testing.T) {
	dir := newFakeDirectory()
	dir.dialErr = errors.New("connection refused")

	_, err := NewClient(testConfig(), WithDialer(dir.dial))
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}

func TestSearchByLogin(t *testing.T) {
	dir := newFakeDirectory()
	dir.results["(cn=jdoe)"] = &ldap.SearchResult{Entries: []*ldap.Entry{userEntry()}}
	client := newTestClient(t, dir)

	profile, err := client.SearchByLogin("jdoe")
	require.NoError(t, err)

	assert.Equal(t, testUserDN, profile.DN)
	assert.Equal(t, "jdoe", profile.Login)
	assert.Equal(t, "jdoe@example.com", profile.Email)
	assert.Equal(t, "John", profile.FirstName)
	assert.Equal(t, "Doe", profile.LastName)
	// The manager attribute holds a DN; the profile exposes the login.
	assert.Equal(t, "boss", profile.Manager)
	// Country comes from the entry's own DN.
	assert.Equal(t, "fr", profile.Country)

	assert.Contains(t, dir.searches, "(cn=jdoe)")
}

func TestSearchByLogin_UnknownUser(t *testing.T) {
	dir := newFakeDirectory()
	client := newTestClient(t, dir)

	_, err := client.SearchByLogin("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Contains(t, err.Error(), "ghost")
}

func TestSearchByLogin_EscapesFilterInput(t *testing.T) {
	dir := newFakeDirectory()
	client := newTestClient(t, dir)

	_, err := client.SearchByLogin("j*doe")
	require.Error(t, err)

	require.NotEmpty(t, dir.searches)
	assert.Equal(t, "(cn=j\\2adoe)", dir.searches[len(dir.searches)-1])
}

func TestSearchByLogin_MissingAttributeFailsDecode(t *testing.T) {
	entry := userEntry()
	entry.Attributes = entry.Attributes[:len(entry.Attributes)-1] // drop manager

	dir := newFakeDirectory()
	dir.results["(cn=jdoe)"] = &ldap.SearchResult{Entries: []*ldap.Entry{entry}}
	client := newTestClient(t, dir)

	_, err := client.SearchByLogin("jdoe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing attribute manager")
}

func TestAuthenticate(t *testing.T) {
	dir := newFakeDirectory()
	dir.results["(cn=jdoe)"] = &ldap.SearchResult{Entries: []*ldap.Entry{userEntry()}}
	dir.passwords[testUserDN] = "hunter2"
	client := newTestClient(t, dir)

	dialsBefore := dir.dials
	profile, err := client.Authenticate("jdoe", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", profile.Login)

	// One connection for the system-bound search, one dedicated to
	// the candidate bind. The system identity never changes.
	assert.Equal(t, dialsBefore+2, dir.dials)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	dir := newFakeDirectory()
	dir.results["(cn=jdoe)"] = &ldap.SearchResult{Entries: []*ldap.Entry{userEntry()}}
	dir.passwords[testUserDN] = "hunter2"
	client := newTestClient(t, dir)

	_, err := client.Authenticate("jdoe", "wrong")
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.False(t, errors.Is(err, ErrUnknownUser))
}

func TestAuthenticate_UnknownLogin(t *testing.T) {
	dir := newFakeDirectory()
	client := newTestClient(t, dir)

	_, err := client.Authenticate("ghost", "whatever")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestAddUser(t *testing.T) {
	dir := newFakeDirectory()
	client := newTestClient(t, dir)

	password, err := client.AddUser(NewUser{
		Login:     "asmith",
		Manager:   "cn=boss,ou=fr,dc=example,dc=com",
		Country:   "fr",
		FirstName: "Anna",
		LastName:  "Smith",
		Email:     "asmith@example.com",
	})
	require.NoError(t, err)

	assert.Len(t, password, DefaultPasswordLength)

	require.Len(t, dir.adds, 1)
	add := dir.adds[0]
	assert.Equal(t, "cn=asmith,ou=fr,dc=example,dc=com", add.DN)

	attrs := map[string][]string{}
	for _, a := range add.Attributes {
		attrs[a.Type] = a.Vals
	}
	assert.Equal(t, []string{"inetOrgPerson", "top"}, attrs["objectClass"])
	assert.Equal(t, []string{"Employee"}, attrs["employeeType"])
	assert.Equal(t, []string{"development"}, attrs["ou"])

	// Only the salted hash goes over the wire, and it verifies
	// against the returned plaintext.
	require.Len(t, attrs["userPassword"], 1)
	hash := attrs["userPassword"][0]
	assert.NotEqual(t, password, hash)
	assert.True(t, VerifyPassword(hash, password))
}

func TestUpdateUser_DifferentialModify(t *testing.T) {
	entry := &ldap.Entry{
		DN: testUserDN,
		Attributes: []*ldap.EntryAttribute{
			ldap.NewEntryAttribute("mail", []string{"jdoe@example.com"}),
			ldap.NewEntryAttribute("ou", []string{"development"}),
			ldap.NewEntryAttribute("employeeType", []string{"Employee"}),
		},
	}

	dir := newFakeDirectory()
	filter := fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(testUserDN))
	dir.results[filter] = &ldap.SearchResult{Entries: []*ldap.Entry{entry}}
	client := newTestClient(t, dir)

	err := client.UpdateUser("jdoe", "fr", map[string][]string{
		"mail":         {"john.doe@example.com"}, // differs, replaced
		"ou":           {"development"},          // unchanged, skipped
		"employeeType": {},                       // emptied, deleted
		"uid":          {"jdoe"},                 // absent, added
	})
	require.NoError(t, err)

	require.Len(t, dir.modifies, 1)
	mod := dir.modifies[0]
	assert.Equal(t, testUserDN, mod.DN)

	ops := map[string]uint{}
	for _, change := range mod.Changes {
		ops[change.Modification.Type] = change.Operation
	}
	assert.Equal(t, uint(ldap.ReplaceAttribute), ops["mail"])
	assert.Equal(t, uint(ldap.DeleteAttribute), ops["employeeType"])
	assert.Equal(t, uint(ldap.AddAttribute), ops["uid"])
	assert.NotContains(t, ops, "ou")
}

func TestUpdateUser_NoChanges(t *testing.T) {
	entry := &ldap.Entry{
		DN: testUserDN,
		Attributes: []*ldap.EntryAttribute{
			ldap.NewEntryAttribute("mail", []string{"jdoe@example.com"}),
		},
	}

	dir := newFakeDirectory()
	filter := fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(testUserDN))
	dir.results[filter] = &ldap.SearchResult{Entries: []*ldap.Entry{entry}}
	client := newTestClient(t, dir)

	err := client.UpdateUser("jdoe", "fr", map[string][]string{
		"mail": {"jdoe@example.com"},
	})
	require.NoError(t, err)
	assert.Empty(t, dir.modifies)
}

func TestUpdateUser_UnknownEntry(t *testing.T) {
	dir := newFakeDirectory()
	client := newTestClient(t, dir)

	err := client.UpdateUser("ghost", "fr", map[string][]string{"mail": {"x@example.com"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestHrContactForCountry_FirstMemberWins(t *testing.T) {
	dir := newFakeDirectory()
	dir.results["(member=*)"] = &ldap.SearchResult{Entries: []*ldap.Entry{
		{
			DN: "cn=hr-fr,ou=admins,dc=example,dc=com",
			Attributes: []*ldap.EntryAttribute{
				ldap.NewEntryAttribute("member", []string{testUserDN}),
			},
		},
		{
			DN: "cn=hr-us,ou=admins,dc=example,dc=com",
			Attributes: []*ldap.EntryAttribute{
				ldap.NewEntryAttribute("member", []string{"cn=other,ou=us,dc=example,dc=com"}),
			},
		},
	}}
	dir.results["(cn=jdoe)"] = &ldap.SearchResult{Entries: []*ldap.Entry{userEntry()}}
	client := newTestClient(t, dir)

	// The member scan is not narrowed by country yet: the first
	// group member resolves for any country argument.
	profile, err := client.HrContactForCountry("us")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", profile.Login)
}

func TestHrContactForCountry_NoMembers(t *testing.T) {
	dir := newFakeDirectory()
	client := newTestClient(t, dir)

	_, err := client.HrContactForCountry("fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownUser)
}
