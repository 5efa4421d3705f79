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

// GetGroupByName resolves a group cn to its gidNumber, symmetric to
// GetUserByName.
func (g *Gateway) GetGroupByName(ctx context.Context, name string) (*directory.Group, error) {
	log := logger.Logger(ctx).WithField("group", name)
	log.Debug("looking up group in ldap")

	filter := fmt.Sprintf("(&%s(%s=%s))", g.cfg.GroupSearchFilter, g.cfg.GroupNameAttr, ldap.EscapeFilter(name))
	req := ldap.NewSearchRequest(
		g.cfg.BaseGroupDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{g.cfg.GIDNumberAttr, g.cfg.GroupNameAttr},
		nil,
	)

	entry, err := g.search(req)
	if err != nil {
		if errors.Is(err, errNoEntries) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("ldapdirectory: getGroupByName: %w", err)
	}

	id, err := strconv.Atoi(entry.GetAttributeValue(g.cfg.GIDNumberAttr))
	if err != nil {
		return nil, fmt.Errorf("ldapdirectory: group %q missing numeric %s: %w", name, g.cfg.GIDNumberAttr, err)
	}
	return &directory.Group{ID: id, Name: name}, nil
}

// GetGroupByID looks a group up by gidNumber.
func (g *Gateway) GetGroupByID(ctx context.Context, id int) (*directory.Group, error) {
	log := logger.Logger(ctx).WithField("groupID", id)
	log.Debug("looking up group by id in ldap")

	filter := fmt.Sprintf("(&%s(%s=%d))", g.cfg.GroupSearchFilter, g.cfg.GIDNumberAttr, id)
	req := ldap.NewSearchRequest(
		g.cfg.BaseGroupDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{g.cfg.GIDNumberAttr, g.cfg.GroupNameAttr},
		nil,
	)

	entry, err := g.search(req)
	if err != nil {
		if errors.Is(err, errNoEntries) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("ldapdirectory: getGroupByID: %w", err)
	}
	return &directory.Group{ID: id, Name: entry.GetAttributeValue(g.cfg.GroupNameAttr)}, nil
}

// AddGroup, RemoveGroup: LDAP is read-only here.
func (g *Gateway) AddGroup(context.Context, string) (*directory.Group, error) {
	return nil, directory.ErrReadOnly
}

func (g *Gateway) RemoveGroup(context.Context, int) error {
	return directory.ErrReadOnly
}
