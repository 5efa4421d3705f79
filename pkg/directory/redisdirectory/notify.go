package redisdirectory

import (
	"context"
	"encoding/json"

	"github.com/usergroupcache/dircache/pkg/logger"
)

// EventType names the mutation a cross-node cache-repair Event carries.
type EventType string

const (
	EventAddMembership    EventType = "add_membership"
	EventRemoveMembership EventType = "remove_membership"
	EventRemoveUser       EventType = "remove_user"
	EventRemoveGroup      EventType = "remove_group"
)

// Event is published on every membership-affecting write so that other
// cache nodes sharing this Redis instance can repair their local index
// caches without re-querying storage. A subscriber turns an Event into
// calls to DirectoryCache.AddUserGroupTx / RemoveUserGroupTx with
// cacheOnly=true (spec's "an outside notification path").
type Event struct {
	Type     EventType `json:"type"`
	UserID   int       `json:"userId,omitempty"`
	GroupID  int       `json:"groupId,omitempty"`
	GroupIDs []int     `json:"groupIds,omitempty"`
}

func (g *Gateway) publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Logger(ctx).WithError(err).Warn("failed to marshal cache-repair event")
		return
	}
	if err := g.client.Publish(ctx, g.cfg.NotifyChannel, payload).Err(); err != nil {
		logger.Logger(ctx).WithError(err).Warn("failed to publish cache-repair event")
	}
}

// Subscribe returns a channel of decoded Events published to this Gateway's
// NotifyChannel. The caller is responsible for draining it until ctx is
// canceled; the underlying pub/sub connection is closed when ctx is done.
func (g *Gateway) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := g.client.Subscribe(ctx, g.cfg.NotifyChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Logger(ctx).WithError(err).Warn("failed to decode cache-repair event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
