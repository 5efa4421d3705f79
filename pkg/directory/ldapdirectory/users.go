package ldapdirectory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-ldap/ldap/v3"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

// GetUserByName resolves a uid to the numeric uidNumber POSIX attribute, the
// stand-in for a relational primary key an LDAP entry has none of.
func (g *Gateway) GetUserByName(ctx context.Context, name string) (*directory.User, error) {
	log := logger.Logger(ctx).WithField("user", name)
	log.Debug("looking up user in ldap")

	filter := fmt.Sprintf("(&%s(%s=%s))", g.cfg.UserSearchFilter, g.cfg.UsernameAttr, ldap.EscapeFilter(name))
	req := ldap.NewSearchRequest(
		g.cfg.BaseUserDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{g.cfg.UIDNumberAttr, g.cfg.UsernameAttr},
		nil,
	)

	entry, err := g.search(req)
	if err != nil {
		if errors.Is(err, errNoEntries) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("ldapdirectory: getUserByName: %w", err)
	}

	id, err := strconv.Atoi(entry.GetAttributeValue(g.cfg.UIDNumberAttr))
	if err != nil {
		return nil, fmt.Errorf("ldapdirectory: user %q missing numeric %s: %w", name, g.cfg.UIDNumberAttr, err)
	}
	return &directory.User{ID: id, Name: name}, nil
}

// GetUserByID looks a user up by its uidNumber attribute.
func (g *Gateway) GetUserByID(ctx context.Context, id int) (*directory.User, error) {
	log := logger.Logger(ctx).WithField("userID", id)
	log.Debug("looking up user by id in ldap")

	filter := fmt.Sprintf("(&%s(%s=%d))", g.cfg.UserSearchFilter, g.cfg.UIDNumberAttr, id)
	req := ldap.NewSearchRequest(
		g.cfg.BaseUserDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{g.cfg.UIDNumberAttr, g.cfg.UsernameAttr},
		nil,
	)

	entry, err := g.search(req)
	if err != nil {
		if errors.Is(err, errNoEntries) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("ldapdirectory: getUserByID: %w", err)
	}
	return &directory.User{ID: id, Name: entry.GetAttributeValue(g.cfg.UsernameAttr)}, nil
}

// AddUser, RemoveUser: LDAP is read-only here.
func (g *Gateway) AddUser(context.Context, string) (*directory.User, error) {
	return nil, directory.ErrReadOnly
}

func (g *Gateway) RemoveUser(context.Context, int) error {
	return directory.ErrReadOnly
}
