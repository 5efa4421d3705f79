package redisdirectory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

// GetGroupByName mirrors GetUserByName over the group hashes.
func (g *Gateway) GetGroupByName(ctx context.Context, name string) (*directory.Group, error) {
	idStr, err := g.client.HGet(ctx, g.groupsByNameKey(), name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: getGroupByName: %w", err)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: corrupt group id for %q: %w", name, err)
	}
	return &directory.Group{ID: id, Name: name}, nil
}

// GetGroupByID mirrors GetUserByID.
func (g *Gateway) GetGroupByID(ctx context.Context, id int) (*directory.Group, error) {
	name, err := g.client.HGet(ctx, g.groupsByIDKey(), strconv.Itoa(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: getGroupByID: %w", err)
	}
	return &directory.Group{ID: id, Name: name}, nil
}

// AddGroup mirrors AddUser's WATCH/MULTI allocation.
func (g *Gateway) AddGroup(ctx context.Context, name string) (*directory.Group, error) {
	log := logger.Logger(ctx).WithField("group", name)

	var group *directory.Group
	txf := func(tx *redis.Tx) error {
		existing, err := tx.HGet(ctx, g.groupsByNameKey(), name).Result()
		if err == nil {
			id, convErr := strconv.Atoi(existing)
			if convErr != nil {
				return fmt.Errorf("redisdirectory: corrupt group id for %q: %w", name, convErr)
			}
			group = &directory.Group{ID: id, Name: name}
			return fmt.Errorf("%w: group %q already exists", directory.ErrUniqueViolation, name)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}

		id, err := tx.Incr(ctx, g.groupsCounterKey()).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, g.groupsByNameKey(), name, id)
			pipe.HSet(ctx, g.groupsByIDKey(), strconv.FormatInt(id, 10), name)
			return nil
		})
		if err != nil {
			return err
		}
		group = &directory.Group{ID: int(id), Name: name}
		return nil
	}

	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = g.client.Watch(ctx, txf, g.groupsByNameKey())
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil && !errors.Is(err, directory.ErrUniqueViolation) {
		log.WithError(err).Error("failed to add group")
		return nil, fmt.Errorf("redisdirectory: addGroup: %w", err)
	}
	if errors.Is(err, directory.ErrUniqueViolation) {
		return group, err
	}
	return group, nil
}

// RemoveGroup deletes id's rows and every membership referencing it.
func (g *Gateway) RemoveGroup(ctx context.Context, id int) error {
	idStr := strconv.Itoa(id)
	name, err := g.client.HGet(ctx, g.groupsByIDKey(), idStr).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redisdirectory: removeGroup: %w", err)
	}

	userIDs, err := g.client.SMembers(ctx, g.groupUsersKey(idStr)).Result()
	if err != nil {
		return fmt.Errorf("redisdirectory: removeGroup: %w", err)
	}

	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, g.groupsByNameKey(), name)
		pipe.HDel(ctx, g.groupsByIDKey(), idStr)
		pipe.Del(ctx, g.groupUsersKey(idStr))
		for _, uid := range userIDs {
			pipe.SRem(ctx, g.userGroupsKey(uid), idStr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisdirectory: removeGroup: %w", err)
	}
	g.publish(ctx, Event{Type: EventRemoveGroup, GroupID: id})
	return nil
}
