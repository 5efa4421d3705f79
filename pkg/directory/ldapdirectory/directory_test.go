package ldapdirectory

import (
	"context"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usergroupcache/dircache/pkg/directory"
)

// fakeConn is a hand-written stand-in for the teacher's mockgen'd
// LDAPConnClient, scripted with a fixed response queue.
type fakeConn struct {
	results []*ldap.SearchResult
	errs    []error
	calls   int
}

func (f *fakeConn) IsClosing() bool { return false }

func (f *fakeConn) UnauthenticatedBind(string) error { return nil }

func (f *fakeConn) Search(*ldap.SearchRequest) (*ldap.SearchResult, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		return &ldap.SearchResult{}, nil
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.results[i], err
}

func testGateway(conn connClient) *Gateway {
	return &Gateway{
		cfg: Config{
			BaseUserDN:        "ou=users,dc=example,dc=com",
			BaseGroupDN:       "ou=groups,dc=example,dc=com",
			UserSearchFilter:  "(objectClass=posixAccount)",
			GroupSearchFilter: "(objectClass=posixGroup)",
		}.withDefaults(),
		conn: conn,
	}
}

func entryWith(attrs map[string]string) *ldap.Entry {
	e := &ldap.Entry{}
	for name, val := range attrs {
		e.Attributes = append(e.Attributes, &ldap.EntryAttribute{Name: name, Values: []string{val}})
	}
	return e
}

func TestGetUserByNameResolvesUIDNumber(t *testing.T) {
	conn := &fakeConn{results: []*ldap.SearchResult{
		{Entries: []*ldap.Entry{entryWith(map[string]string{"uidNumber": "1001", "uid": "alice"})}},
	}}
	g := testGateway(conn)

	user, err := g.GetUserByName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1001, user.ID)
	assert.Equal(t, "alice", user.Name)
}

func TestGetUserByNameNotFound(t *testing.T) {
	conn := &fakeConn{results: []*ldap.SearchResult{{Entries: nil}}}
	g := testGateway(conn)

	_, err := g.GetUserByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestGetGroupByIDResolvesName(t *testing.T) {
	conn := &fakeConn{results: []*ldap.SearchResult{
		{Entries: []*ldap.Entry{entryWith(map[string]string{"gidNumber": "42", "cn": "dev"})}},
	}}
	g := testGateway(conn)

	group, err := g.GetGroupByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "dev", group.Name)
}

func TestGetGroupsForUserParsesMemberOfDNs(t *testing.T) {
	userEntry := &ldap.Entry{Attributes: []*ldap.EntryAttribute{
		{Name: "memberOf", Values: []string{
			"cn=dev,ou=groups,dc=example,dc=com",
			"cn=ops,ou=groups,dc=example,dc=com",
		}},
	}}
	devEntry := entryWith(map[string]string{"gidNumber": "10", "cn": "dev"})
	opsEntry := entryWith(map[string]string{"gidNumber": "11", "cn": "ops"})

	conn := &fakeConn{results: []*ldap.SearchResult{
		{Entries: []*ldap.Entry{userEntry}},
		{Entries: []*ldap.Entry{devEntry}},
		{Entries: []*ldap.Entry{opsEntry}},
	}}
	g := testGateway(conn)

	groups, err := g.GetGroupsForUser(context.Background(), 1001)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "dev", groups[0].Name)
	assert.Equal(t, "ops", groups[1].Name)
}

func TestMutatingCallsAreReadOnly(t *testing.T) {
	g := testGateway(&fakeConn{})
	ctx := context.Background()

	_, err := g.AddUser(ctx, "alice")
	assert.ErrorIs(t, err, directory.ErrReadOnly)

	assert.ErrorIs(t, g.RemoveUser(ctx, 1), directory.ErrReadOnly)

	_, err = g.AddGroup(ctx, "dev")
	assert.ErrorIs(t, err, directory.ErrReadOnly)

	assert.ErrorIs(t, g.RemoveGroup(ctx, 1), directory.ErrReadOnly)
	assert.ErrorIs(t, g.AddUserToGroups(ctx, 1, []int{2}), directory.ErrReadOnly)
	assert.ErrorIs(t, g.RemoveUserFromGroup(ctx, 1, 2), directory.ErrReadOnly)
}
