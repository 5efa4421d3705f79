package cache

import (
	"time"

	"github.com/usergroupcache/dircache/pkg/directory"
)

// Config parameterizes DirectoryCache construction (spec §6). Users, Groups
// and Memberships may all be the same Gateway value (the common case, one
// backend serving every relation) or three different ones (e.g. users read
// from LDAP, groups provisioned in GitLab, membership rows in Redis). Any of
// them being nil puts the cache in not-configured mode (spec §4.4).
type Config struct {
	EvictionTTL time.Duration
	LRUMax      int

	Users       directory.Gateway
	Groups      directory.Gateway
	Memberships directory.Gateway
}
