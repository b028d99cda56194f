package lifecycle

import (
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// CheckVersion compares the stored aggregate version with the
// caller-supplied precondition. An absent precondition is a validation
// failure, a mismatch is a conflict. This check is advisory only: the
// repository re-verifies the version inside the atomic write, which is
// what actually closes the race between check and commit.
func CheckVersion(stored, supplied int64) error {
	if supplied <= 0 {
		return apperrors.NewValidationError("expected version is required", nil)
	}
	if stored != supplied {
		return apperrors.NewConflict("request version mismatch", map[string]any{
			"expected_version": supplied,
			"current_version":  stored,
		})
	}
	return nil
}
