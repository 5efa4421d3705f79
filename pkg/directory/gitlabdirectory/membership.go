package gitlabdirectory

import (
	"context"
	"fmt"
	"net/http"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

const developerAccess = gitlab.DeveloperPermissions

// AddUserToGroups adds userID as a member of every groupID, matching the
// teacher's addGroupAsProjectDeveloper access-level constant for managed
// memberships.
func (g *Gateway) AddUserToGroups(ctx context.Context, userID int, groupIDs []int) error {
	log := logger.Logger(ctx).WithField("userID", userID)
	access := developerAccess
	for _, groupID := range groupIDs {
		log.WithField("groupID", groupID).Info("adding user to gitlab subgroup")
		_, resp, err := g.client.GroupMembers.AddGroupMember(groupID, &gitlab.AddGroupMemberOptions{
			UserID:      &userID,
			AccessLevel: &access,
		})
		if err != nil {
			return classifyMembership(err, resp)
		}
	}
	return nil
}

// RemoveUserFromGroup removes userID's membership from groupID.
func (g *Gateway) RemoveUserFromGroup(ctx context.Context, userID, groupID int) error {
	logger.Logger(ctx).WithFields(map[string]interface{}{
		"userID":  userID,
		"groupID": groupID,
	}).Info("removing user from gitlab subgroup")

	resp, err := g.client.GroupMembers.RemoveGroupMember(groupID, userID, &gitlab.RemoveGroupMemberOptions{})
	if err != nil {
		return classifyMembership(err, resp)
	}
	return nil
}

// GetGroupsForUser enumerates the parent group's subgroups and probes each
// for userID's membership. GitLab has no single "groups for user" endpoint,
// so this mirrors the teacher's own pagination-loop style (FetchAllTeams)
// applied to a membership check instead of a listing.
func (g *Gateway) GetGroupsForUser(ctx context.Context, userID int) ([]directory.Group, error) {
	log := logger.Logger(ctx).WithField("userID", userID)
	log.Debug("enumerating subgroup memberships")

	var groups []directory.Group
	opt := &gitlab.ListSubGroupsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100, Page: 1},
	}
	for {
		subgroups, resp, err := g.client.Groups.ListSubGroups(g.parentGroupID, opt)
		if err != nil {
			return nil, classify(err, resp)
		}
		for _, sg := range subgroups {
			_, memberResp, err := g.client.GroupMembers.GetGroupMember(sg.ID, userID)
			if err != nil {
				if memberResp != nil && memberResp.StatusCode == http.StatusNotFound {
					continue
				}
				return nil, fmt.Errorf("gitlabdirectory: checking membership in group %d: %w", sg.ID, err)
			}
			groups = append(groups, directory.Group{ID: sg.ID, Name: sg.Name})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return groups, nil
}

var _ directory.Gateway = (*Gateway)(nil)
