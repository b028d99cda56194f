package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civic-stack/request-service/internal/auth"
	"github.com/civic-stack/request-service/internal/config"
	"github.com/civic-stack/request-service/internal/domain"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

func newAuthFixture(staff ...*domain.StaffMember) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
	return NewAuthService(cfg, AuthDependencies{
		StaffRepo: newFakeStaffRepo(staff...),
	})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	return hash
}

func TestLoginStaffIssuesRoleBearingToken(t *testing.T) {
	service := newAuthFixture(&domain.StaffMember{
		ID:           testClerkID,
		Name:         "Dana Clerk",
		Email:        "dana@city.example",
		PasswordHash: mustHash(t, "clerk-pass-1"),
		Role:         domain.RoleClerk,
		Active:       true,
	})

	staff, token, _, err := service.LoginStaff(context.Background(), "dana@city.example", "clerk-pass-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, staff.ID, claims.SubjectID)
	require.NotNil(t, claims.Role)
	require.Equal(t, domain.RoleClerk, *claims.Role)
}

func TestLoginStaffRejectsUnrecognizedRole(t *testing.T) {
	service := newAuthFixture(&domain.StaffMember{
		ID:           testClerkID,
		Email:        "intern@city.example",
		PasswordHash: mustHash(t, "intern-pass-1"),
		Role:         domain.Role("INTERN"),
		Active:       true,
	})

	_, _, _, err := service.LoginStaff(context.Background(), "intern@city.example", "intern-pass-1")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeUnauthorized, apperrors.ToDomainError(err).Code)
}

func TestLoginStaffRejectsWrongPasswordAndInactive(t *testing.T) {
	service := newAuthFixture(
		&domain.StaffMember{
			ID:           testClerkID,
			Email:        "dana@city.example",
			PasswordHash: mustHash(t, "clerk-pass-1"),
			Role:         domain.RoleClerk,
			Active:       true,
		},
		&domain.StaffMember{
			ID:           testAgentID,
			Email:        "gone@city.example",
			PasswordHash: mustHash(t, "agent-pass-1"),
			Role:         domain.RoleFieldAgent,
			Active:       false,
		},
	)
	ctx := context.Background()

	_, _, _, err := service.LoginStaff(ctx, "dana@city.example", "wrong")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeUnauthorized, apperrors.ToDomainError(err).Code)

	_, _, _, err = service.LoginStaff(ctx, "gone@city.example", "agent-pass-1")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeUnauthorized, apperrors.ToDomainError(err).Code)
}
