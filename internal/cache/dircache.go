package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

// DirectoryCache is the coherence layer: the six index caches plus the
// orchestrated public operations of spec §4.2. A DirectoryCache built with
// any nil Gateway in Config is "not configured" and every operation becomes
// a sentinel-returning no-op (spec §4.4).
type DirectoryCache struct {
	configured bool

	users       directory.Gateway
	groups      directory.Gateway
	memberships directory.Gateway

	usersToIds    *Index[string, int]
	idsToUsers    *Index[int, string]
	groupsToIds   *Index[string, int]
	idsToGroups   *Index[int, string]
	usersToGroups *Index[string, []string]
	groupsToUsers *Index[string, []string]
}

// New builds a DirectoryCache. cfg.EvictionTTL and cfg.LRUMax bound all six
// index caches identically (spec §4.1 table).
func New(cfg Config) *DirectoryCache {
	d := &DirectoryCache{
		configured:  cfg.Users != nil && cfg.Groups != nil && cfg.Memberships != nil,
		users:       cfg.Users,
		groups:      cfg.Groups,
		memberships: cfg.Memberships,
	}
	if !d.configured {
		return d
	}

	d.usersToIds = NewIndex(cfg.LRUMax, cfg.EvictionTTL, d.loadUserID, d.onUsersToIdsEvict)
	d.idsToUsers = NewIndex(cfg.LRUMax, cfg.EvictionTTL, d.loadUserName, d.onIdsToUsersEvict)
	d.groupsToIds = NewIndex(cfg.LRUMax, cfg.EvictionTTL, d.loadGroupID, d.onGroupsToIdsEvict)
	d.idsToGroups = NewIndex(cfg.LRUMax, cfg.EvictionTTL, d.loadGroupName, d.onIdsToGroupsEvict)
	d.usersToGroups = NewIndex(cfg.LRUMax, cfg.EvictionTTL, d.loadUserGroups, d.onUsersToGroupsEvict)
	// Cache 6 has no loader: a miss means "not yet materialized", not "not
	// found" (spec §4.1 row 6, §9).
	d.groupsToUsers = NewIndex[string, []string](cfg.LRUMax, cfg.EvictionTTL, nil, d.onGroupsToUsersEvict)

	return d
}

// IsConfigured reports whether every directory interface was wired.
func (d *DirectoryCache) IsConfigured() bool {
	return d.configured
}

// ---- loaders (read-through, back-fill siblings before returning) ----

func (d *DirectoryCache) loadUserID(ctx context.Context, name string) (int, error) {
	logger.Logger(ctx).WithField("user", name).Debug("loading user id from directory")
	user, err := d.users.GetUserByName(ctx, name)
	if err != nil {
		if directory.Classify(err) == directory.KindNotFound {
			return 0, directory.ErrNotFound
		}
		return 0, err
	}
	d.idsToUsers.Put(user.ID, user.Name)
	return user.ID, nil
}

func (d *DirectoryCache) loadUserName(ctx context.Context, id int) (string, error) {
	logger.Logger(ctx).WithField("userID", id).Debug("loading user name from directory")
	user, err := d.users.GetUserByID(ctx, id)
	if err != nil {
		if directory.Classify(err) == directory.KindNotFound {
			return "", directory.ErrNotFound
		}
		return "", err
	}
	d.usersToIds.Put(user.Name, user.ID)
	return user.Name, nil
}

func (d *DirectoryCache) loadGroupID(ctx context.Context, name string) (int, error) {
	logger.Logger(ctx).WithField("group", name).Debug("loading group id from directory")
	group, err := d.groups.GetGroupByName(ctx, name)
	if err != nil {
		if directory.Classify(err) == directory.KindNotFound {
			return 0, directory.ErrNotFound
		}
		return 0, err
	}
	d.idsToGroups.Put(group.ID, group.Name)
	return group.ID, nil
}

func (d *DirectoryCache) loadGroupName(ctx context.Context, id int) (string, error) {
	logger.Logger(ctx).WithField("groupID", id).Debug("loading group name from directory")
	group, err := d.groups.GetGroupByID(ctx, id)
	if err != nil {
		if directory.Classify(err) == directory.KindNotFound {
			return "", directory.ErrNotFound
		}
		return "", err
	}
	d.groupsToIds.Put(group.Name, group.ID)
	return group.Name, nil
}

// loadUserGroups is cache (5)'s loader: it resolves the user's id (through
// cache (1), loading it if necessary), fetches memberships, and back-fills
// (3), (4) and the reverse index (6) for each group before returning (spec
// §4.1 loader contract for (5)).
func (d *DirectoryCache) loadUserGroups(ctx context.Context, user string) ([]string, error) {
	log := logger.Logger(ctx).WithField("user", user)
	log.Debug("loading user's groups from directory")

	userID, err := d.usersToIds.Get(ctx, user)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}

	groups, err := d.memberships.GetGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, directory.ErrNotFound
	}

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
		d.groupsToIds.Put(g.Name, g.ID)
		d.idsToGroups.Put(g.ID, g.Name)

		users, _ := d.groupsToUsers.Peek(g.Name)
		if !contains(users, user) {
			d.groupsToUsers.Put(g.Name, appendCopy(users, user))
		}
	}
	return names, nil
}

// ---- removal listeners (invalidate siblings, never re-insert) ----

func (d *DirectoryCache) onUsersToIdsEvict(_ string, id int) {
	d.idsToUsers.Invalidate(id)
}

func (d *DirectoryCache) onIdsToUsersEvict(_ int, name string) {
	d.usersToIds.Invalidate(name)
}

func (d *DirectoryCache) onGroupsToIdsEvict(_ string, id int) {
	d.idsToGroups.Invalidate(id)
}

func (d *DirectoryCache) onIdsToGroupsEvict(_ int, name string) {
	d.groupsToIds.Invalidate(name)
}

func (d *DirectoryCache) onUsersToGroupsEvict(user string, groups []string) {
	for _, g := range groups {
		users, ok := d.groupsToUsers.Peek(g)
		if !ok {
			continue
		}
		remaining := removeItem(users, user)
		if len(remaining) == 0 {
			d.groupsToUsers.Invalidate(g)
		} else {
			d.groupsToUsers.Put(g, remaining)
		}
	}
}

func (d *DirectoryCache) onGroupsToUsersEvict(group string, users []string) {
	for _, u := range users {
		groups, ok := d.usersToGroups.Peek(u)
		if !ok {
			continue
		}
		remaining := removeItem(groups, group)
		if len(remaining) == 0 {
			d.usersToGroups.Invalidate(u)
		} else {
			d.usersToGroups.Put(u, remaining)
		}
	}
}

// ---- public operations (spec §4.2) ----

// AddUser writes name to the directory and installs it in caches (1)/(2).
func (d *DirectoryCache) AddUser(ctx context.Context, name string) (int, error) {
	if !d.configured || name == "" {
		return 0, nil
	}
	user, err := d.users.AddUser(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("dircache: addUser: %w", err)
	}
	d.usersToIds.Put(user.Name, user.ID)
	d.idsToUsers.Put(user.ID, user.Name)
	return user.ID, nil
}

func (d *DirectoryCache) addUserIfNotInCache(ctx context.Context, name string) (int, error) {
	if id, ok := d.usersToIds.Peek(name); ok {
		return id, nil
	}
	return d.AddUser(ctx, name)
}

// RemoveUser deletes name from the directory and invalidates it from the
// caches; the removal listener on (5) cleans up the reverse memberships.
func (d *DirectoryCache) RemoveUser(ctx context.Context, name string) error {
	if !d.configured || name == "" {
		return nil
	}
	id, err := d.GetUserID(ctx, name)
	if err != nil {
		return err
	}
	if id != 0 {
		if err := d.users.RemoveUser(ctx, id); err != nil {
			return fmt.Errorf("dircache: removeUser: %w", err)
		}
	}
	d.removeUserFromCache(id, name)
	return nil
}

// RemoveUserFromCache is the cache-only variant used to repair local state
// after an upstream mutation, without a directory call.
func (d *DirectoryCache) RemoveUserFromCache(name string) {
	if !d.configured {
		return
	}
	id, _ := d.usersToIds.Peek(name)
	d.removeUserFromCache(id, name)
}

func (d *DirectoryCache) removeUserFromCache(id int, name string) {
	if id != 0 {
		d.idsToUsers.Invalidate(id)
	}
	d.usersToIds.Invalidate(name)
	d.usersToGroups.Invalidate(name)
}

// AddGroup mirrors AddUser over caches (3)/(4).
func (d *DirectoryCache) AddGroup(ctx context.Context, name string) (int, error) {
	if !d.configured || name == "" {
		return 0, nil
	}
	group, err := d.groups.AddGroup(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("dircache: addGroup: %w", err)
	}
	d.groupsToIds.Put(group.Name, group.ID)
	d.idsToGroups.Put(group.ID, group.Name)
	return group.ID, nil
}

func (d *DirectoryCache) addGroupIfNotInCache(ctx context.Context, name string) (int, error) {
	if id, ok := d.groupsToIds.Peek(name); ok {
		return id, nil
	}
	return d.AddGroup(ctx, name)
}

// RemoveGroup mirrors RemoveUser over caches (3)/(4)/(6).
func (d *DirectoryCache) RemoveGroup(ctx context.Context, name string) error {
	if !d.configured || name == "" {
		return nil
	}
	id, err := d.GetGroupID(ctx, name)
	if err != nil {
		return err
	}
	if id != 0 {
		if err := d.groups.RemoveGroup(ctx, id); err != nil {
			return fmt.Errorf("dircache: removeGroup: %w", err)
		}
	}
	d.removeGroupFromCache(id, name)
	return nil
}

// RemoveGroupFromCache is the cache-only variant of RemoveGroup.
func (d *DirectoryCache) RemoveGroupFromCache(name string) {
	if !d.configured {
		return
	}
	id, _ := d.groupsToIds.Peek(name)
	d.removeGroupFromCache(id, name)
}

func (d *DirectoryCache) removeGroupFromCache(id int, name string) {
	if id != 0 {
		d.idsToGroups.Invalidate(id)
	}
	d.groupsToIds.Invalidate(name)
	d.groupsToUsers.Invalidate(name)
}

// GetUserID is a read-through on cache (1). Not-found returns 0, nil.
func (d *DirectoryCache) GetUserID(ctx context.Context, name string) (int, error) {
	if !d.configured || name == "" {
		return 0, nil
	}
	id, err := d.usersToIds.Get(ctx, name)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("dircache: getUserID: %w", err)
	}
	return id, nil
}

// GetUserName is a read-through on cache (2). Not-found returns "", nil.
func (d *DirectoryCache) GetUserName(ctx context.Context, id int) (string, error) {
	if !d.configured || id <= 0 {
		return "", nil
	}
	name, err := d.idsToUsers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("dircache: getUserName: %w", err)
	}
	return name, nil
}

// GetGroupID is a read-through on cache (3). Not-found returns 0, nil.
func (d *DirectoryCache) GetGroupID(ctx context.Context, name string) (int, error) {
	if !d.configured || name == "" {
		return 0, nil
	}
	id, err := d.groupsToIds.Get(ctx, name)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("dircache: getGroupID: %w", err)
	}
	return id, nil
}

// GetGroupName is a read-through on cache (4). Not-found returns "", nil.
func (d *DirectoryCache) GetGroupName(ctx context.Context, id int) (string, error) {
	if !d.configured || id <= 0 {
		return "", nil
	}
	name, err := d.idsToGroups.Get(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("dircache: getGroupName: %w", err)
	}
	return name, nil
}

// GetGroups is a read-through on cache (5). Not-found returns nil, nil.
func (d *DirectoryCache) GetGroups(ctx context.Context, user string) ([]string, error) {
	if !d.configured || user == "" {
		return nil, nil
	}
	groups, err := d.usersToGroups.Get(ctx, user)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("dircache: getGroups: %w", err)
	}
	return groups, nil
}

// AddUserGroups is the central multi-index write (spec §4.2). Note the
// intentional short-circuit: it consults usersToGroups via Peek (no loader),
// so a user cached with a partial group set from a prior load can cause a
// later AddUserGroups asking for a subset of that set to no-op even though
// the directory has never seen the caller's exact request — this mirrors
// the original source and is documented, not accidental (spec §9 Open
// Question).
//
// A unique-key violation anywhere in the operation — creating the user,
// creating a group, or the final membership write — is swallowed as
// "already added", not just the membership write: the original's
// addUserGroupsTx wraps the whole thing in one
// UniqueKeyConstraintViolationException catch, so a racing concurrent
// AddUserGroups that lost the create-user or create-group race must not
// surface that race as a hard error here either.
func (d *DirectoryCache) AddUserGroups(ctx context.Context, user string, groups []string) error {
	return d.addUserGroups(ctx, user, groups, false)
}

func (d *DirectoryCache) addUserGroups(ctx context.Context, user string, groups []string, retried bool) error {
	if !d.configured {
		return nil
	}
	filtered := filterEmpty(groups)

	if cur, ok := d.usersToGroups.Peek(user); ok && len(filtered) > 0 && containsAll(cur, filtered) {
		logger.Logger(ctx).WithField("user", user).Debug("groups already available in cache, skipping directory write")
		return nil
	}

	var userID int
	var err error
	if user != "" {
		userID, err = d.addUserIfNotInCache(ctx, user)
		if err != nil {
			if directory.Classify(err) == directory.KindUniqueViolation {
				logger.Logger(ctx).WithError(err).Debug("user/group was already added")
				return nil
			}
			return err
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	groupIDs := make([]int, 0, len(filtered))
	for _, g := range filtered {
		gid, err := d.addGroupIfNotInCache(ctx, g)
		if err != nil {
			if directory.Classify(err) == directory.KindUniqueViolation {
				logger.Logger(ctx).WithError(err).Debug("user/group was already added")
				return nil
			}
			return err
		}
		groupIDs = append(groupIDs, gid)
	}

	if userID == 0 {
		return nil
	}

	err = d.memberships.AddUserToGroups(ctx, userID, groupIDs)
	if err != nil {
		switch directory.Classify(err) {
		case directory.KindUniqueViolation:
			logger.Logger(ctx).WithError(err).Debug("membership already existed, treating as success")
		case directory.KindForeignKeyViolation:
			if retried {
				return fmt.Errorf("dircache: addUserGroups: %w", err)
			}
			logger.Logger(ctx).WithError(err).Warn("foreign key violation, invalidating and retrying")
			d.RemoveUserFromCache(user)
			for _, g := range filtered {
				d.RemoveGroupFromCache(g)
			}
			return d.addUserGroups(ctx, user, groups, true)
		default:
			return fmt.Errorf("dircache: addUserGroups: %w", err)
		}
	}

	d.addUserToGroupsInCache(user, filtered)
	return nil
}

func (d *DirectoryCache) addUserToGroupsInCache(user string, groups []string) {
	cur, _ := d.usersToGroups.Peek(user)
	newly := make([]string, 0, len(groups))
	for _, g := range groups {
		if !contains(cur, g) {
			newly = append(newly, g)
		}
	}
	if len(newly) == 0 {
		if len(cur) == 0 {
			d.usersToGroups.Put(user, append([]string{}, groups...))
		}
		return
	}
	d.usersToGroups.Put(user, append(append([]string{}, cur...), newly...))

	for _, g := range newly {
		users, _ := d.groupsToUsers.Peek(g)
		if !contains(users, user) {
			d.groupsToUsers.Put(g, appendCopy(users, user))
		}
	}
}

// RemoveUserFromGroup deletes the membership row and repairs both reverse
// indexes, evicting either key if its list empties.
func (d *DirectoryCache) RemoveUserFromGroup(ctx context.Context, user, group string) error {
	if !d.configured {
		return nil
	}
	userID, err := d.GetUserID(ctx, user)
	if err != nil {
		return err
	}
	groupID, err := d.GetGroupID(ctx, group)
	if err != nil {
		return err
	}
	if err := d.memberships.RemoveUserFromGroup(ctx, userID, groupID); err != nil {
		return fmt.Errorf("dircache: removeUserFromGroup: %w", err)
	}
	d.removeUserFromGroupInCache(user, group)
	return nil
}

func (d *DirectoryCache) removeUserFromGroupInCache(user, group string) {
	if cur, ok := d.usersToGroups.Peek(user); ok {
		remaining := removeItem(cur, group)
		if len(remaining) == 0 {
			d.usersToGroups.Invalidate(user)
		} else {
			d.usersToGroups.Put(user, remaining)
		}
	}
	if cur, ok := d.groupsToUsers.Peek(group); ok {
		remaining := removeItem(cur, user)
		if len(remaining) == 0 {
			d.groupsToUsers.Invalidate(group)
		} else {
			d.groupsToUsers.Put(group, remaining)
		}
	}
}

// AddUserGroupTx wraps AddUserGroups for a single group; cacheOnly performs
// only the cache-side merge, used by an outside notification path repairing
// local state after another node's write (spec §4.2).
func (d *DirectoryCache) AddUserGroupTx(ctx context.Context, user, group string, cacheOnly bool) error {
	if !d.configured {
		return nil
	}
	if cacheOnly {
		if user != "" && group != "" {
			d.addUserToGroupsInCache(user, []string{group})
		}
		return nil
	}
	return d.AddUserGroups(ctx, user, []string{group})
}

// RemoveUserGroupTx wraps the three removal shapes (user only, group only,
// or a specific membership); cacheOnly skips the directory call entirely.
func (d *DirectoryCache) RemoveUserGroupTx(ctx context.Context, user, group string, cacheOnly bool) error {
	if !d.configured {
		return nil
	}
	if cacheOnly {
		switch {
		case user != "" && group == "":
			d.RemoveUserFromCache(user)
		case user == "" && group != "":
			d.RemoveGroupFromCache(group)
		case user != "" && group != "":
			d.removeUserFromGroupInCache(user, group)
		}
		return nil
	}
	switch {
	case user != "" && group == "":
		return d.RemoveUser(ctx, user)
	case user == "" && group != "":
		return d.RemoveGroup(ctx, group)
	case user != "" && group != "":
		return d.RemoveUserFromGroup(ctx, user, group)
	}
	return nil
}

// Clear invalidates all six caches. The resulting removal-listener cascade
// converges because listeners only invalidate, never insert (spec §4.2).
func (d *DirectoryCache) Clear() {
	if !d.configured {
		return
	}
	d.usersToIds.InvalidateAll()
	d.idsToUsers.InvalidateAll()
	d.groupsToIds.InvalidateAll()
	d.idsToGroups.InvalidateAll()
	d.usersToGroups.InvalidateAll()
	d.groupsToUsers.InvalidateAll()
}

// ---- small slice helpers (cache 5/6 values are treated as immutable —
// mutated by replacing the whole value under a key, spec §9's preferred
// option (a), never by appending in place) ----

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsAll(s []string, vs []string) bool {
	for _, v := range vs {
		if !contains(s, v) {
			return false
		}
	}
	return true
}

func removeItem(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func appendCopy(s []string, v string) []string {
	out := make([]string, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func filterEmpty(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
