package directory

import (
	"github.com/go-ldap/ldap/v3"
)

// Conn is the subset of *ldap.Conn the client relies on.
//
// A bind changes the effective identity of the connection it runs on,
// so connections are never shared between operations: every operation
// dials a fresh connection and closes it when done. Tests substitute
// a fake Conn through WithDialer.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Add(req *ldap.AddRequest) error
	Modify(req *ldap.ModifyRequest) error
	Close() error
}

// DialFunc opens a connection to the directory service at the given URL.
type DialFunc func(url string) (Conn, error)

func dialURL(url string) (Conn, error) {
	conn, err := ldap.DialURL(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
