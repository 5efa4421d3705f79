package redisdirectory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

// AddUserToGroups checks both foreign keys with EXISTS before writing any
// membership row, translating a dangling reference into
// directory.ErrForeignKeyViolation the way the coherence layer's retry-once
// logic expects (spec §7).
func (g *Gateway) AddUserToGroups(ctx context.Context, userID int, groupIDs []int) error {
	userIDStr := strconv.Itoa(userID)

	exists, err := g.client.HExists(ctx, g.usersByIDKey(), userIDStr).Result()
	if err != nil {
		return fmt.Errorf("redisdirectory: addUserToGroups: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: user %d does not exist", directory.ErrForeignKeyViolation, userID)
	}

	for _, gid := range groupIDs {
		gidStr := strconv.Itoa(gid)
		exists, err := g.client.HExists(ctx, g.groupsByIDKey(), gidStr).Result()
		if err != nil {
			return fmt.Errorf("redisdirectory: addUserToGroups: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: group %d does not exist", directory.ErrForeignKeyViolation, gid)
		}
	}

	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, gid := range groupIDs {
			gidStr := strconv.Itoa(gid)
			pipe.SAdd(ctx, g.userGroupsKey(userIDStr), gidStr)
			pipe.SAdd(ctx, g.groupUsersKey(gidStr), userIDStr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisdirectory: addUserToGroups: %w", err)
	}

	g.publish(ctx, Event{Type: EventAddMembership, UserID: userID, GroupIDs: groupIDs})
	return nil
}

// RemoveUserFromGroup removes a single membership row from both sides.
func (g *Gateway) RemoveUserFromGroup(ctx context.Context, userID, groupID int) error {
	userIDStr := strconv.Itoa(userID)
	groupIDStr := strconv.Itoa(groupID)

	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, g.userGroupsKey(userIDStr), groupIDStr)
		pipe.SRem(ctx, g.groupUsersKey(groupIDStr), userIDStr)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisdirectory: removeUserFromGroup: %w", err)
	}

	g.publish(ctx, Event{Type: EventRemoveMembership, UserID: userID, GroupIDs: []int{groupID}})
	return nil
}

// redisCmdable is the slice of redis.Cmdable that GetGroupsForUser needs,
// satisfied both by g.client and by the *redis.Tx handed into a Watch
// callback, so the read can run against either without duplicating logic.
type redisCmdable interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func (g *Gateway) fetchGroupsForUser(ctx context.Context, cmd redisCmdable, userID int) ([]directory.Group, error) {
	log := logger.Logger(ctx).WithField("userID", userID)

	groupIDs, err := cmd.SMembers(ctx, g.userGroupsKey(strconv.Itoa(userID))).Result()
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}

	names, err := cmd.HMGet(ctx, g.groupsByIDKey(), groupIDs...).Result()
	if err != nil {
		return nil, err
	}

	groups := make([]directory.Group, 0, len(groupIDs))
	for i, idStr := range groupIDs {
		name, ok := names[i].(string)
		if !ok {
			log.WithField("groupID", idStr).Warn("membership references a deleted group, skipping")
			continue
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		groups = append(groups, directory.Group{ID: id, Name: name})
	}
	return groups, nil
}

// GetGroupsForUser returns every group userID belongs to. An empty result
// (no membership set, or an empty one) is reported to the caller as an
// empty slice — the coherence layer's loader (internal/cache) is what
// turns that into directory.ErrNotFound, this Gateway just reports what
// storage has (spec §4.1 loader contract for cache (5)).
//
// If ctx already carries a transaction (directory.WithTx), the read joins
// it instead of opening a second one; otherwise this call opens its own
// *redis.Tx with client.Watch on the user's membership key and closes it
// when the read returns. Neither path issues MULTI/EXEC: the reads are plain
// commands on the transaction's connection.
func (g *Gateway) GetGroupsForUser(ctx context.Context, userID int) ([]directory.Group, error) {
	if tx, ok := directory.TxFromContext(ctx); ok {
		redisTx, ok := tx.(*redis.Tx)
		if !ok {
			return nil, fmt.Errorf("redisdirectory: getGroupsForUser: ambient transaction is not a *redis.Tx")
		}
		groups, err := g.fetchGroupsForUser(ctx, redisTx, userID)
		if err != nil {
			return nil, fmt.Errorf("redisdirectory: getGroupsForUser: %w", err)
		}
		return groups, nil
	}

	var groups []directory.Group
	err := g.client.Watch(ctx, func(tx *redis.Tx) error {
		var fetchErr error
		groups, fetchErr = g.fetchGroupsForUser(ctx, tx, userID)
		return fetchErr
	}, g.userGroupsKey(strconv.Itoa(userID)))
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: getGroupsForUser: %w", err)
	}
	return groups, nil
}

var _ directory.Gateway = (*Gateway)(nil)
