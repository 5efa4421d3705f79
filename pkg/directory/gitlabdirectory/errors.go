package gitlabdirectory

import (
	"fmt"
	"net/http"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/usergroupcache/dircache/pkg/directory"
)

// classify turns a client-go error plus its *gitlab.Response into one of
// the Gateway sentinels the coherence layer branches on (spec §4.3), the
// way the teacher's CreateTeam distinguishes 409/400 ("already exists")
// from a hard failure by status code.
func classify(err error, resp *gitlab.Response) error {
	if err == nil {
		return nil
	}
	if resp == nil {
		return fmt.Errorf("gitlabdirectory: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", directory.ErrNotFound, err)
	case http.StatusConflict, http.StatusBadRequest:
		return fmt.Errorf("%w: %s", directory.ErrUniqueViolation, err)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", directory.ErrForeignKeyViolation, err)
	default:
		return fmt.Errorf("gitlabdirectory: %w", err)
	}
}

// classifyMembership is classify's membership-write variant: AddGroupMember
// and RemoveGroupMember answer 404 when userID or groupID doesn't exist, not
// when the membership row itself is absent, so it lands on
// ErrForeignKeyViolation instead of ErrNotFound.
func classifyMembership(err error, resp *gitlab.Response) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", directory.ErrForeignKeyViolation, err)
	}
	return classify(err, resp)
}
