package ldapdirectory

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-ldap/ldap/v3"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

var cnFromDN = regexp.MustCompile(`(?i)^cn=([^,]+)`)

// GetGroupsForUser reads the user's memberOf attribute and resolves each
// referenced group DN's cn into a directory.Group by a follow-up
// GetGroupByName lookup, since memberOf carries only the DN.
func (g *Gateway) GetGroupsForUser(ctx context.Context, userID int) ([]directory.Group, error) {
	log := logger.Logger(ctx).WithField("userID", userID)
	log.Debug("looking up group memberships in ldap")

	filter := fmt.Sprintf("(&%s(%s=%d))", g.cfg.UserSearchFilter, g.cfg.UIDNumberAttr, userID)
	req := ldap.NewSearchRequest(
		g.cfg.BaseUserDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{g.cfg.MemberOfAttr},
		nil,
	)

	entry, err := g.search(req)
	if err != nil {
		if errors.Is(err, errNoEntries) {
			return nil, nil
		}
		return nil, fmt.Errorf("ldapdirectory: getGroupsForUser: %w", err)
	}

	dns := entry.GetAttributeValues(g.cfg.MemberOfAttr)
	groups := make([]directory.Group, 0, len(dns))
	for _, dn := range dns {
		m := cnFromDN.FindStringSubmatch(dn)
		if m == nil {
			continue
		}
		group, err := g.GetGroupByName(ctx, m[1])
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				continue
			}
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, nil
}

// AddUserToGroups, RemoveUserFromGroup: LDAP is read-only here.
func (g *Gateway) AddUserToGroups(context.Context, int, []int) error {
	return directory.ErrReadOnly
}

func (g *Gateway) RemoveUserFromGroup(context.Context, int, int) error {
	return directory.ErrReadOnly
}

var _ directory.Gateway = (*Gateway)(nil)
