package gitlabdirectory

import (
	"context"
	"strconv"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/usergroupcache/dircache/pkg/directory"
	"github.com/usergroupcache/dircache/pkg/logger"
)

func userKey(id int) string       { return "gitlab:user:id:" + strconv.Itoa(id) }
func userNameKey(n string) string { return "gitlab:user:name:" + n }

// GetUserByName lists GitLab users filtered by username, the same call the
// teacher's FetchUserDetails falls back to for a non-numeric identifier.
func (g *Gateway) GetUserByName(ctx context.Context, name string) (*directory.User, error) {
	log := logger.Logger(ctx).WithField("user", name)

	if cached, err := g.lookupCache.Get(ctx, userNameKey(name)); err == nil {
		if id, ok := cached.(string); ok {
			n, _ := strconv.Atoi(id)
			return &directory.User{ID: n, Name: name}, nil
		}
	}

	log.Debug("looking up gitlab user by username")
	users, resp, err := g.client.Users.ListUsers(&gitlab.ListUsersOptions{Username: &name})
	if err != nil {
		return nil, classify(err, resp)
	}
	if len(users) == 0 {
		return nil, directory.ErrNotFound
	}

	user := users[0]
	_ = g.lookupCache.Set(ctx, userNameKey(name), strconv.Itoa(user.ID), lookupTTL)
	_ = g.lookupCache.Set(ctx, userKey(user.ID), name, lookupTTL)
	return &directory.User{ID: user.ID, Name: user.Username}, nil
}

// GetUserByID fetches a single GitLab user by numeric id.
func (g *Gateway) GetUserByID(ctx context.Context, id int) (*directory.User, error) {
	log := logger.Logger(ctx).WithField("userID", id)

	if cached, err := g.lookupCache.Get(ctx, userKey(id)); err == nil {
		if name, ok := cached.(string); ok {
			return &directory.User{ID: id, Name: name}, nil
		}
	}

	log.Debug("looking up gitlab user by id")
	user, resp, err := g.client.Users.GetUser(id, gitlab.GetUsersOptions{})
	if err != nil {
		return nil, classify(err, resp)
	}

	_ = g.lookupCache.Set(ctx, userKey(id), user.Username, lookupTTL)
	_ = g.lookupCache.Set(ctx, userNameKey(user.Username), strconv.Itoa(id), lookupTTL)
	return &directory.User{ID: id, Name: user.Username}, nil
}

// AddUser provisions a GitLab user, mirroring the teacher's CreateUser
// (password reset required by the API, actual auth deferred to LDAP/SSO).
func (g *Gateway) AddUser(ctx context.Context, name string) (*directory.User, error) {
	log := logger.Logger(ctx).WithField("user", name)
	log.Info("creating gitlab user")

	resetPassword := true
	email := name + "@users.noreply"
	user, resp, err := g.client.Users.CreateUser(&gitlab.CreateUserOptions{
		Email:         &email,
		Username:      &name,
		Name:          &name,
		ResetPassword: &resetPassword,
	})
	if err != nil {
		return nil, classify(err, resp)
	}
	return &directory.User{ID: user.ID, Name: user.Username}, nil
}

// RemoveUser deletes a GitLab user by id.
func (g *Gateway) RemoveUser(ctx context.Context, id int) error {
	logger.Logger(ctx).WithField("userID", id).Info("deleting gitlab user")
	resp, err := g.client.Users.DeleteUser(id)
	if err != nil {
		return classify(err, resp)
	}
	return nil
}
