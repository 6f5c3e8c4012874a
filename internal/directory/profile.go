package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Profile is the normalized user record extracted from a directory
// entry. It lives for the duration of a single lookup or
// authentication call and is never persisted.
type Profile struct {
	DN        string // distinguished name, unique identifier
	Email     string
	FirstName string
	LastName  string
	Login     string
	Manager   string // manager's login, resolved from the manager DN
	Country   string // taken from the country component of the DN
}

// profileAttributes is the attribute list requested on profile
// searches. An entry missing any of the mapped attributes fails
// decoding.
var profileAttributes = []string{"cn", "mail", "uid", "givenName", "sn", "manager"}

// decodeEntry translates a raw directory entry into a Profile using
// the configured attribute mapping.
func (c *Client) decodeEntry(entry *ldap.Entry) (*Profile, error) {
	if entry == nil || entry.DN == "" {
		return nil, fmt.Errorf("cannot decode empty directory entry")
	}

	p := &Profile{DN: entry.DN}

	for _, field := range []struct {
		attr string
		dst  *string
	}{
		{c.cfg.MailAttr, &p.Email},
		{c.cfg.FirstnameAttr, &p.FirstName},
		{c.cfg.LastnameAttr, &p.LastName},
		{c.cfg.LoginAttr, &p.Login},
		{c.cfg.ManagerAttr, &p.Manager},
	} {
		value := entry.GetAttributeValue(field.attr)
		if value == "" {
			return nil, fmt.Errorf("directory entry %s is missing attribute %s", entry.DN, field.attr)
		}
		*field.dst = value
	}

	// The manager attribute holds a DN; expose the manager's login
	// instead. When the DN carries no login component the raw value
	// stays in place.
	if login := rdnValue(p.Manager, c.cfg.LoginAttr); login != "" {
		p.Manager = login
	}

	p.Country = rdnValue(entry.DN, c.cfg.CountryAttr)

	return p, nil
}

// rdnValue scans the RDN components of a DN for the first attribute
// named attr and returns its value. Duplicate attribute keys are not
// defined behavior; the first match wins.
func rdnValue(dn, attr string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return ""
	}
	for _, rdn := range parsed.RDNs {
		for _, av := range rdn.Attributes {
			if strings.EqualFold(av.Type, attr) {
				return av.Value
			}
		}
	}
	return ""
}
