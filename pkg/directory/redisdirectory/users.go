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

// GetUserByName looks name up in the byname hash.
func (g *Gateway) GetUserByName(ctx context.Context, name string) (*directory.User, error) {
	idStr, err := g.client.HGet(ctx, g.usersByNameKey(), name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: getUserByName: %w", err)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: corrupt user id for %q: %w", name, err)
	}
	return &directory.User{ID: id, Name: name}, nil
}

// GetUserByID looks id up in the byid hash.
func (g *Gateway) GetUserByID(ctx context.Context, id int) (*directory.User, error) {
	name, err := g.client.HGet(ctx, g.usersByIDKey(), strconv.Itoa(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, directory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisdirectory: getUserByID: %w", err)
	}
	return &directory.User{ID: id, Name: name}, nil
}

// AddUser allocates a new id for name under a WATCH/MULTI transaction, so a
// name that appears mid-transaction on another connection aborts and
// retries rather than allocating two ids for the same name (spec §7's
// unique-key-violation path).
func (g *Gateway) AddUser(ctx context.Context, name string) (*directory.User, error) {
	log := logger.Logger(ctx).WithField("user", name)

	var user *directory.User
	txf := func(tx *redis.Tx) error {
		existing, err := tx.HGet(ctx, g.usersByNameKey(), name).Result()
		if err == nil {
			id, convErr := strconv.Atoi(existing)
			if convErr != nil {
				return fmt.Errorf("redisdirectory: corrupt user id for %q: %w", name, convErr)
			}
			user = &directory.User{ID: id, Name: name}
			return fmt.Errorf("%w: user %q already exists", directory.ErrUniqueViolation, name)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}

		id, err := tx.Incr(ctx, g.usersCounterKey()).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, g.usersByNameKey(), name, id)
			pipe.HSet(ctx, g.usersByIDKey(), strconv.FormatInt(id, 10), name)
			return nil
		})
		if err != nil {
			return err
		}
		user = &directory.User{ID: int(id), Name: name}
		return nil
	}

	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = g.client.Watch(ctx, txf, g.usersByNameKey())
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil && !errors.Is(err, directory.ErrUniqueViolation) {
		log.WithError(err).Error("failed to add user")
		return nil, fmt.Errorf("redisdirectory: addUser: %w", err)
	}
	if errors.Is(err, directory.ErrUniqueViolation) {
		return user, err
	}
	return user, nil
}

// RemoveUser deletes id's rows and every membership referencing it.
func (g *Gateway) RemoveUser(ctx context.Context, id int) error {
	idStr := strconv.Itoa(id)
	name, err := g.client.HGet(ctx, g.usersByIDKey(), idStr).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redisdirectory: removeUser: %w", err)
	}

	groupIDs, err := g.client.SMembers(ctx, g.userGroupsKey(idStr)).Result()
	if err != nil {
		return fmt.Errorf("redisdirectory: removeUser: %w", err)
	}

	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, g.usersByNameKey(), name)
		pipe.HDel(ctx, g.usersByIDKey(), idStr)
		pipe.Del(ctx, g.userGroupsKey(idStr))
		for _, gid := range groupIDs {
			pipe.SRem(ctx, g.groupUsersKey(gid), idStr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisdirectory: removeUser: %w", err)
	}
	g.publish(ctx, Event{Type: EventRemoveUser, UserID: id})
	return nil
}
