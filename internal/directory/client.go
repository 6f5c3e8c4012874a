package directory

import (
	"fmt"
	"sort"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
)

// Config holds the static directory connection settings. It is read
// once at startup and immutable afterwards.
type Config struct {
	URL          string
	BaseDN       string
	SearchFilter string // template with one %s placeholder

	MailAttr      string
	FirstnameAttr string
	LastnameAttr  string
	LoginAttr     string
	ManagerAttr   string
	CountryAttr   string

	AdminDN        string // subtree holding the HR admin groups
	SystemDN       string
	SystemPassword string
}

func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"URL", c.URL},
		{"BaseDN", c.BaseDN},
		{"SearchFilter", c.SearchFilter},
		{"MailAttr", c.MailAttr},
		{"FirstnameAttr", c.FirstnameAttr},
		{"LastnameAttr", c.LastnameAttr},
		{"LoginAttr", c.LoginAttr},
		{"ManagerAttr", c.ManagerAttr},
		{"CountryAttr", c.CountryAttr},
		{"AdminDN", c.AdminDN},
		{"SystemDN", c.SystemDN},
		{"SystemPassword", c.SystemPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("directory config: %s is required", r.name)
		}
	}
	return nil
}

// Client performs all interaction with the external directory
// service. Every operation dials a dedicated connection, binds it as
// the system identity (or the candidate identity for Authenticate)
// and closes it afterwards, so no bind state is ever shared.
type Client struct {
	cfg  *Config
	dial DialFunc
	log  logrus.FieldLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the connection dialer. Used by tests and by
// deployments that need custom TLS setup.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

// WithLogger replaces the default logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient validates the configuration and verifies connectivity and
// the system bind against the directory before returning.
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:  cfg,
		dial: dialURL,
		log:  logrus.StandardLogger().WithField("component", "directory"),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := c.systemConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	c.log.WithField("url", cfg.URL).Info("directory client initialized")
	return c, nil
}

// systemConn opens a fresh connection bound as the system identity.
// The caller owns the connection and must close it.
func (c *Client) systemConn() (Conn, error) {
	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		return nil, &Error{Op: "connect", Kind: KindConnection, Err: err}
	}
	if err := conn.Bind(c.cfg.SystemDN, c.cfg.SystemPassword); err != nil {
		conn.Close()
		return nil, &Error{Op: "system bind", Kind: bindErrorKind(err), DN: c.cfg.SystemDN, Err: err}
	}
	return conn, nil
}

// searchByItem substitutes item into the configured filter template,
// searches the base subtree and decodes the first match.
func (c *Client) searchByItem(conn Conn, item string) (*Profile, error) {
	filter := fmt.Sprintf(c.cfg.SearchFilter, item)
	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		profileAttributes,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, &Error{Op: "search", Kind: KindServer, Err: err}
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, item)
	}

	return c.decodeEntry(res.Entries[0])
}

// SearchByLogin resolves a user profile by login.
func (c *Client) SearchByLogin(login string) (*Profile, error) {
	conn, err := c.systemConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return c.searchByItem(conn, ldap.EscapeFilter(login))
}

// SearchByDN resolves a user profile by full distinguished name.
func (c *Client) SearchByDN(dn string) (*Profile, error) {
	conn, err := c.systemConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return c.searchByItem(conn, ldap.EscapeFilter(dn))
}

// Authenticate verifies the given credentials against the directory.
// The candidate bind runs on its own dedicated connection so the
// identity of other connections never changes, which keeps concurrent
// authentication attempts safe.
func (c *Client) Authenticate(login, password string) (*Profile, error) {
	profile, err := c.SearchByLogin(login)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		return nil, &Error{Op: "connect", Kind: KindConnection, Err: err}
	}
	defer conn.Close()

	if err := conn.Bind(profile.DN, password); err != nil {
		c.log.WithFields(logrus.Fields{"login": login, "dn": profile.DN}).
			Warn("directory authentication rejected")
		return nil, &Error{Op: "authenticate", Kind: KindAuthentication, DN: profile.DN, Err: err}
	}

	return profile, nil
}

// NewUser describes a directory account to provision.
type NewUser struct {
	Login     string
	Manager   string // manager DN
	Country   string
	FirstName string
	LastName  string
	Email     string
	Unit      string // organizational unit, defaults to "development"
	UID       string // optional uid attribute
}

// AddUser creates a directory entry for the given user with a random
// initial password and returns that password in plaintext. The caller
// must deliver it out-of-band; only the salted hash is stored.
func (c *Client) AddUser(u NewUser) (string, error) {
	dn := c.userDN(u.Login, u.Country)

	password, err := RandomPassword(DefaultPasswordLength)
	if err != nil {
		return "", err
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	unit := u.Unit
	if unit == "" {
		unit = "development"
	}

	req := ldap.NewAddRequest(dn, nil)
	req.Attribute("objectClass", []string{"inetOrgPerson", "top"})
	req.Attribute("employeeType", []string{"Employee"})
	req.Attribute("cn", []string{u.Login})
	req.Attribute("givenName", []string{u.FirstName})
	req.Attribute("sn", []string{u.LastName})
	if u.UID != "" {
		req.Attribute("uid", []string{u.UID})
	}
	req.Attribute("mail", []string{u.Email})
	req.Attribute("ou", []string{unit})
	req.Attribute("userPassword", []string{hashed})
	req.Attribute("manager", []string{u.Manager})

	conn, err := c.systemConn()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.Add(req); err != nil {
		return "", &Error{Op: "add", Kind: KindServer, DN: dn, Err: err}
	}

	c.log.WithField("dn", dn).Info("directory user created")
	return password, nil
}

// updateAttributes is the attribute list fetched before computing a
// differential modify.
var updateAttributes = []string{
	"objectClass", "employeeType", "cn", "givenName", "sn",
	"manager", "mail", "ou", "uid",
}

// UpdateUser applies the requested attribute changes to an existing
// entry, modifying only the attributes whose values differ.
func (c *Client) UpdateUser(login, country string, fields map[string][]string) error {
	dn := c.userDN(login, country)

	conn, err := c.systemConn()
	if err != nil {
		return err
	}
	defer conn.Close()

	filter := fmt.Sprintf(c.cfg.SearchFilter, ldap.EscapeFilter(dn))
	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		updateAttributes,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return &Error{Op: "search", Kind: KindServer, DN: dn, Err: err}
	}
	if len(res.Entries) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownUser, dn)
	}
	entry := res.Entries[0]

	mod := ldap.NewModifyRequest(entry.DN, nil)
	changed := false

	attrs := make([]string, 0, len(fields))
	for attr := range fields {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		want := fields[attr]
		have := entry.GetAttributeValues(attr)
		switch {
		case len(want) == 0 && len(have) == 0:
			// nothing to do
		case len(want) == 0:
			mod.Delete(attr, nil)
			changed = true
		case len(have) == 0:
			mod.Add(attr, want)
			changed = true
		case !stringSlicesEqual(have, want):
			mod.Replace(attr, want)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	if err := conn.Modify(mod); err != nil {
		return &Error{Op: "modify", Kind: KindServer, DN: entry.DN, Err: err}
	}

	c.log.WithField("dn", entry.DN).Info("directory user updated")
	return nil
}

// HrContactForCountry resolves the HR contact responsible for a
// country by walking the members of the admin group subtree.
//
// TODO: narrow the member scan by country once the admin groups carry
// one entry per region; today the first member found wins regardless
// of the country argument.
func (c *Client) HrContactForCountry(country string) (*Profile, error) {
	conn, err := c.systemConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		c.cfg.AdminDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		"(member=*)",
		nil,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, &Error{Op: "search", Kind: KindServer, DN: c.cfg.AdminDN, Err: err}
	}

	for _, entry := range res.Entries {
		member := entry.GetAttributeValue("member")
		if member == "" {
			continue
		}
		login := rdnValue(member, c.cfg.LoginAttr)
		if login == "" {
			continue
		}
		return c.searchByItem(conn, ldap.EscapeFilter(login))
	}

	return nil, fmt.Errorf("%w: no HR contact for %s", ErrUnknownUser, country)
}

// userDN builds the DN of a user entry from its login and country
// components under the configured base.
func (c *Client) userDN(login, country string) string {
	return fmt.Sprintf("%s=%s,%s=%s,%s",
		c.cfg.LoginAttr, login, c.cfg.CountryAttr, country, c.cfg.BaseDN)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
