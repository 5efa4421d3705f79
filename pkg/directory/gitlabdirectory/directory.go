// Package gitlabdirectory adapts a GitLab instance's users and subgroups
// into a directory.Gateway: users map 1:1 to GitLab users, groups to
// subgroups of a configured parent group, and memberships to subgroup
// membership. It layers a small pkg/cache/inmemory memoization cache over
// the client-go SDK so repeated id/name lookups within a load burst don't
// each cost an API round trip.
package gitlabdirectory

import (
	"fmt"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/usergroupcache/dircache/pkg/cache/inmemory"
)

// Config parameterizes the GitLab connection and the parent group under
// which every managed team is created as a subgroup.
type Config struct {
	BaseURL       string
	Token         string
	ParentGroupID int
	LookupCache   *inmemory.Config
}

// Gateway is a directory.Gateway backed by the GitLab REST API.
type Gateway struct {
	client        *gitlab.Client
	parentGroupID int
	lookupCache   *inmemory.Cache
}

// New builds a Gateway from Config, dialing the GitLab client the way
// client-go's constructor expects (base URL + personal/service token).
func New(cfg Config) (*Gateway, error) {
	opts := []gitlab.ClientOptionFunc{}
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(cfg.BaseURL))
	}
	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("gitlabdirectory: new client: %w", err)
	}

	lookupCache, err := inmemory.NewCache(cfg.LookupCache)
	if err != nil {
		return nil, fmt.Errorf("gitlabdirectory: lookup cache: %w", err)
	}

	return &Gateway{
		client:        client,
		parentGroupID: cfg.ParentGroupID,
		lookupCache:   lookupCache,
	}, nil
}

const lookupTTL = 30 * time.Second
