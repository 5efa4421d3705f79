// Package directory defines the narrow capability set the coherence layer
// uses to reach the persistent users/groups/membership store, and the error
// taxonomy that lets it branch on not-found vs. constraint-violation vs.
// storage fault (spec §4.3, §7).
package directory

import "context"

// User is the directory's view of a user: a positive id and a non-empty
// name, unique in both directions.
type User struct {
	ID   int
	Name string
}

// Group has the same shape as User in a disjoint namespace.
type Group struct {
	ID   int
	Name string
}

// Gateway is the abstract adapter over the persistent store. Every call runs
// as a unit of work against the store; GetGroupsForUser additionally
// participates in an ambient transaction carried on ctx (see WithTx) instead
// of opening a second, nested one.
type Gateway interface {
	GetUserByName(ctx context.Context, name string) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
	AddUser(ctx context.Context, name string) (*User, error)
	RemoveUser(ctx context.Context, id int) error

	GetGroupByName(ctx context.Context, name string) (*Group, error)
	GetGroupByID(ctx context.Context, id int) (*Group, error)
	AddGroup(ctx context.Context, name string) (*Group, error)
	RemoveGroup(ctx context.Context, id int) error

	AddUserToGroups(ctx context.Context, userID int, groupIDs []int) error
	RemoveUserFromGroup(ctx context.Context, userID, groupID int) error
	GetGroupsForUser(ctx context.Context, userID int) ([]Group, error)
}

type txKeyType struct{}

var txKey = txKeyType{}

// WithTx marks ctx as already participating in a unit of work, carrying the
// backend-specific transaction handle (e.g. a *redis.Tx) that a
// GetGroupsForUser call reached through this ctx should join instead of
// opening its own.
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// TxFromContext reports whether ctx already carries an active transaction,
// and returns it (as the type the calling gateway implementation stored).
func TxFromContext(ctx context.Context) (any, bool) {
	tx := ctx.Value(txKey)
	return tx, tx != nil
}
