// Package ldapdirectory adapts an LDAP directory server into a
// directory.Gateway. It is read-only: LDAP here is a system of record for
// users and groups, not for the mutable membership rows the coherence layer
// needs to write, so every mutating Gateway method returns
// directory.ErrReadOnly. Callers wire it as the Users and/or Groups
// gateway in a Config where Memberships comes from a writable backend.
package ldapdirectory

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Config mirrors the shape of the teacher's LDAP client configuration,
// extended with the numeric-id attribute names the coherence layer needs
// (spec §4.3's Gateway works in ids, LDAP entries carry uidNumber/gidNumber
// POSIX attributes for exactly this purpose).
type Config struct {
	Server            string
	BaseDN            string
	UserDN            string
	BaseUserDN        string
	GroupDN           string
	BaseGroupDN       string
	UserSearchFilter  string
	GroupSearchFilter string
	UIDNumberAttr     string
	UsernameAttr      string
	GIDNumberAttr     string
	GroupNameAttr     string
	MemberOfAttr      string
}

func (c Config) withDefaults() Config {
	if c.UIDNumberAttr == "" {
		c.UIDNumberAttr = "uidNumber"
	}
	if c.UsernameAttr == "" {
		c.UsernameAttr = "uid"
	}
	if c.GIDNumberAttr == "" {
		c.GIDNumberAttr = "gidNumber"
	}
	if c.GroupNameAttr == "" {
		c.GroupNameAttr = "cn"
	}
	if c.MemberOfAttr == "" {
		c.MemberOfAttr = "memberOf"
	}
	return c
}

// connClient is the narrow surface Gateway needs from an *ldap.Conn, kept
// as an interface so tests can substitute a fake connection.
type connClient interface {
	IsClosing() bool
	Search(*ldap.SearchRequest) (*ldap.SearchResult, error)
	UnauthenticatedBind(username string) error
}

// Gateway is a read-only directory.Gateway backed by LDAP.
type Gateway struct {
	cfg  Config
	conn connClient
}

// New dials server and performs an anonymous bind, the same handshake the
// teacher's InitLdap does.
func New(cfg Config) (*Gateway, error) {
	cfg = cfg.withDefaults()
	conn, err := ldap.DialURL(cfg.Server, ldap.DialWithDialer(&net.Dialer{Timeout: 5 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("ldapdirectory: dial: %w", err)
	}
	if err := conn.UnauthenticatedBind(""); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ldapdirectory: bind: %w", err)
	}
	return &Gateway{cfg: cfg, conn: conn}, nil
}

func (g *Gateway) getConn() connClient {
	if g.conn != nil && g.conn.IsClosing() {
		newConn, err := ldap.DialURL(g.cfg.Server, ldap.DialWithDialer(&net.Dialer{Timeout: 5 * time.Second}))
		if err != nil {
			return nil
		}
		if err := newConn.UnauthenticatedBind(""); err != nil {
			return nil
		}
		g.conn = newConn
	}
	return g.conn
}

var errNoEntries = errors.New("ldapdirectory: no entries found")

func (g *Gateway) search(req *ldap.SearchRequest) (*ldap.Entry, error) {
	conn := g.getConn()
	if conn == nil {
		return nil, fmt.Errorf("ldapdirectory: no connection available")
	}
	resp, err := conn.Search(req)
	if err != nil {
		var ldapErr *ldap.Error
		if errors.As(err, &ldapErr) && ldapErr.ResultCode == ldap.LDAPResultNoSuchObject {
			return nil, errNoEntries
		}
		return nil, err
	}
	if len(resp.Entries) == 0 {
		return nil, errNoEntries
	}
	return resp.Entries[0], nil
}
