package cache

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/directory/mock"
)

func newTestCache(t *testing.T) (*DirectoryCache, *mock.MockGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mock.NewMockGateway(ctrl)
	dc := New(Config{
		EvictionTTL: time.Minute,
		LRUMax:      100,
		Users:       gw,
		Groups:      gw,
		Memberships: gw,
	})
	return dc, gw
}

func TestNotConfiguredIsNoOp(t *testing.T) {
	dc := New(Config{EvictionTTL: time.Minute, LRUMax: 10})
	assert.False(t, dc.IsConfigured())

	id, err := dc.GetUserID(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	assert.NoError(t, dc.AddUserGroups(context.Background(), "alice", []string{"dev"}))
	dc.Clear() // must not panic
}

func TestGetUserIDLoadsAndBackfillsReverse(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)

	id, err := dc.GetUserID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	// idsToUsers must be back-filled; a second GetUserName call should not
	// hit the gateway again.
	name, err := dc.GetUserName(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestGetUserIDNotFoundReturnsZeroNoError(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "ghost").Return(nil, directory.ErrNotFound)

	id, err := dc.GetUserID(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestGetGroupsLoadsAndBackfillsReverseIndex(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().GetGroupsForUser(ctx, 1).Return([]directory.Group{
		{ID: 10, Name: "dev"},
		{ID: 11, Name: "ops"},
	}, nil)

	groups, err := dc.GetGroups(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dev", "ops"}, groups)

	// groupsToUsers must have been back-filled without any extra gateway call.
	users, ok := dc.groupsToUsers.Peek("dev")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, users)

	// groupsToIds/idsToGroups back-filled too.
	gid, err := dc.GetGroupID(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 11, gid)
}

func TestGetGroupsEmptyResultIsNotFound(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().GetGroupsForUser(ctx, 1).Return(nil, nil)

	groups, err := dc.GetGroups(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, groups)
}

func TestRemoveUserCascadesToMemberships(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().GetGroupsForUser(ctx, 1).Return([]directory.Group{{ID: 10, Name: "dev"}}, nil)

	_, err := dc.GetGroups(ctx, "alice")
	require.NoError(t, err)

	_, ok := dc.groupsToUsers.Peek("dev")
	require.True(t, ok)

	// alice's id is already in usersToIds (filled by the cache-5 loader), so
	// RemoveUser must not look her up in the directory again.
	gw.EXPECT().GetUserByName(ctx, "alice").Times(0)
	gw.EXPECT().RemoveUser(ctx, 1).Return(nil)

	require.NoError(t, dc.RemoveUser(ctx, "alice"))

	_, ok = dc.usersToGroups.Peek("alice")
	assert.False(t, ok)

	// The removal listener on usersToGroups must have pruned alice out of
	// dev's reverse index too.
	users, ok := dc.groupsToUsers.Peek("dev")
	if ok {
		assert.NotContains(t, users, "alice")
	}
}

func TestAddUserGroupsForeignKeyViolationRetriesOnce(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().AddUser(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().AddGroup(ctx, "dev").Return(&directory.Group{ID: 10, Name: "dev"}, nil)
	gw.EXPECT().AddUserToGroups(ctx, 1, []int{10}).Return(directory.ErrForeignKeyViolation)

	// retry
	gw.EXPECT().AddUser(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().AddGroup(ctx, "dev").Return(&directory.Group{ID: 10, Name: "dev"}, nil)
	gw.EXPECT().AddUserToGroups(ctx, 1, []int{10}).Return(nil)

	err := dc.AddUserGroups(ctx, "alice", []string{"dev"})
	require.NoError(t, err)

	groups, ok := dc.usersToGroups.Peek("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"dev"}, groups)
}

func TestAddUserGroupsUniqueViolationIsSwallowed(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().AddUser(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().AddGroup(ctx, "dev").Return(&directory.Group{ID: 10, Name: "dev"}, nil)
	gw.EXPECT().AddUserToGroups(ctx, 1, []int{10}).Return(directory.ErrUniqueViolation)

	err := dc.AddUserGroups(ctx, "alice", []string{"dev"})
	require.NoError(t, err)

	groups, ok := dc.usersToGroups.Peek("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"dev"}, groups)
}

func TestAddUserGroupsSwallowsUniqueViolationCreatingUser(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().AddUser(ctx, "alice").Return(nil, directory.ErrUniqueViolation)

	err := dc.AddUserGroups(ctx, "alice", []string{"dev"})
	require.NoError(t, err)

	_, ok := dc.usersToGroups.Peek("alice")
	assert.False(t, ok)
}

func TestAddUserGroupsSwallowsUniqueViolationCreatingGroup(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().AddUser(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().AddGroup(ctx, "dev").Return(nil, directory.ErrUniqueViolation)

	err := dc.AddUserGroups(ctx, "alice", []string{"dev"})
	require.NoError(t, err)

	id, ok := dc.usersToIds.Peek("alice")
	require.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestAddUserGroupsShortCircuitsWhenAlreadyCached(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().AddUser(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().AddGroup(ctx, "dev").Return(&directory.Group{ID: 10, Name: "dev"}, nil)
	gw.EXPECT().AddUserToGroups(ctx, 1, []int{10}).Return(nil)

	require.NoError(t, dc.AddUserGroups(ctx, "alice", []string{"dev"}))

	// No further gateway calls expected: dev is already in alice's cached set.
	require.NoError(t, dc.AddUserGroups(ctx, "alice", []string{"dev"}))
}

func TestClearInvalidatesEverything(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	_, err := dc.GetUserID(ctx, "alice")
	require.NoError(t, err)

	dc.Clear()

	_, ok := dc.usersToIds.Peek("alice")
	assert.False(t, ok)
	_, ok = dc.idsToUsers.Peek(1)
	assert.False(t, ok)
}

func TestRemoveUserFromGroupPrunesBothIndexes(t *testing.T) {
	dc, gw := newTestCache(t)
	ctx := context.Background()

	gw.EXPECT().GetUserByName(ctx, "alice").Return(&directory.User{ID: 1, Name: "alice"}, nil)
	gw.EXPECT().GetGroupsForUser(ctx, 1).Return([]directory.Group{{ID: 10, Name: "dev"}}, nil)
	_, err := dc.GetGroups(ctx, "alice")
	require.NoError(t, err)

	// Both ids were back-filled by the cache-5 loader, so neither is looked
	// up in the directory again.
	gw.EXPECT().GetUserByName(ctx, "alice").Times(0)
	gw.EXPECT().GetGroupByName(ctx, "dev").Times(0)
	gw.EXPECT().RemoveUserFromGroup(ctx, 1, 10).Return(nil)

	require.NoError(t, dc.RemoveUserFromGroup(ctx, "alice", "dev"))

	_, ok := dc.usersToGroups.Peek("alice")
	assert.False(t, ok)
	_, ok = dc.groupsToUsers.Peek("dev")
	assert.False(t, ok)
}

func TestAddUserGroupTxCacheOnlySkipsGateway(t *testing.T) {
	dc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, dc.AddUserGroupTx(ctx, "alice", "dev", true))

	groups, ok := dc.usersToGroups.Peek("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"dev"}, groups)

	users, ok := dc.groupsToUsers.Peek("dev")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, users)
}

func TestRemoveUserGroupTxCacheOnlySkipsGateway(t *testing.T) {
	dc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, dc.AddUserGroupTx(ctx, "alice", "dev", true))
	require.NoError(t, dc.RemoveUserGroupTx(ctx, "alice", "dev", true))

	_, ok := dc.usersToGroups.Peek("alice")
	assert.False(t, ok)
	_, ok = dc.groupsToUsers.Peek("dev")
	assert.False(t, ok)
}
