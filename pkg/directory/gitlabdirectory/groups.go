package gitlabdirectory

import (
	"context"
	"strconv"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

func groupKey(id int) string       { return "gitlab:group:id:" + strconv.Itoa(id) }
func groupNameKey(n string) string { return "gitlab:group:name:" + n }

// GetGroupByName lists the parent group's subgroups and matches by name,
// the way the teacher's FetchAllTeams enumerates subgroups of ParentGroupId.
func (g *Gateway) GetGroupByName(ctx context.Context, name string) (*directory.Group, error) {
	log := logger.Logger(ctx).WithField("group", name)

	if cached, err := g.lookupCache.Get(ctx, groupNameKey(name)); err == nil {
		if id, ok := cached.(string); ok {
			n, _ := strconv.Atoi(id)
			return &directory.Group{ID: n, Name: name}, nil
		}
	}

	log.Debug("looking up gitlab subgroup by name")
	groups, resp, err := g.client.Groups.ListSubGroups(g.parentGroupID, &gitlab.ListSubGroupsOptions{
		Search: &name,
	})
	if err != nil {
		return nil, classify(err, resp)
	}
	for _, group := range groups {
		if group.Name == name {
			g.cacheGroup(ctx, group.ID, group.Name)
			return &directory.Group{ID: group.ID, Name: group.Name}, nil
		}
	}
	return nil, directory.ErrNotFound
}

// GetGroupByID fetches a single subgroup by id.
func (g *Gateway) GetGroupByID(ctx context.Context, id int) (*directory.Group, error) {
	log := logger.Logger(ctx).WithField("groupID", id)

	if cached, err := g.lookupCache.Get(ctx, groupKey(id)); err == nil {
		if name, ok := cached.(string); ok {
			return &directory.Group{ID: id, Name: name}, nil
		}
	}

	log.Debug("looking up gitlab subgroup by id")
	group, resp, err := g.client.Groups.GetGroup(id, &gitlab.GetGroupOptions{})
	if err != nil {
		return nil, classify(err, resp)
	}
	g.cacheGroup(ctx, id, group.Name)
	return &directory.Group{ID: id, Name: group.Name}, nil
}

func (g *Gateway) cacheGroup(ctx context.Context, id int, name string) {
	_ = g.lookupCache.Set(ctx, groupKey(id), name, lookupTTL)
	_ = g.lookupCache.Set(ctx, groupNameKey(name), strconv.Itoa(id), lookupTTL)
}

// AddGroup creates name as a public subgroup of the configured parent
// group, the same CreateGroupOptions shape as the teacher's CreateTeam
// minus the LDAP-sync and project-sharing side effects, which belong to
// usernaut's provisioning workflow rather than this cache's directory.
func (g *Gateway) AddGroup(ctx context.Context, name string) (*directory.Group, error) {
	log := logger.Logger(ctx).WithField("group", name)
	log.Info("creating gitlab subgroup")

	visibility := gitlab.PublicVisibility
	group, resp, err := g.client.Groups.CreateGroup(&gitlab.CreateGroupOptions{
		ParentID:   &g.parentGroupID,
		Name:       &name,
		Path:       &name,
		Visibility: &visibility,
	})
	if err != nil {
		return nil, classify(err, resp)
	}
	g.cacheGroup(ctx, group.ID, group.Name)
	return &directory.Group{ID: group.ID, Name: group.Name}, nil
}

// RemoveGroup deletes a subgroup by id.
func (g *Gateway) RemoveGroup(ctx context.Context, id int) error {
	logger.Logger(ctx).WithField("groupID", id).Info("deleting gitlab subgroup")
	resp, err := g.client.Groups.DeleteGroup(strconv.Itoa(id), &gitlab.DeleteGroupOptions{})
	if err != nil {
		return classify(err, resp)
	}
	return nil
}
