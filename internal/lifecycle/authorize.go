package lifecycle

import (
	"fmt"

	"github.com/civic-stack/request-service/internal/domain"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// Authorize rejects callers whose role is not in the action's allowed set.
// The role set is looked up per action, independent of the current status,
// so an unauthorized caller learns nothing about the stored state or
// version.
func Authorize(role domain.Role, action Action) error {
	roles, ok := ActionRoles(action)
	if !ok {
		return apperrors.NewValidationError(fmt.Sprintf("unknown action %q", action), nil)
	}
	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	return apperrors.NewForbidden(fmt.Sprintf("role %s may not perform %s", role, action))
}
