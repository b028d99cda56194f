package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/events"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

func newRequestFixture() (*RequestService, *fakeRequestRepo) {
	requests := newFakeRequestRepo()
	service := NewRequestService(RequestDependencies{
		RequestRepo:  requests,
		EventLogRepo: &fakeEventLog{repo: requests},
		Dispatcher:   events.NewInMemoryDispatcher(),
	})
	return service, requests
}

func TestCreateRequestStartsAtVersionOne(t *testing.T) {
	service, requests := newRequestFixture()

	request, err := service.CreateRequest(context.Background(), testCitizenID, RequestCreateInput{
		Title:       "Broken streetlight",
		Description: "Streetlight at Oak and 9th has been dark for a week",
		Category:    "lighting",
		Location:    "Oak and 9th",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, request.Status)
	require.Equal(t, int64(1), request.Version)
	require.True(t, strings.HasPrefix(request.Code, "REQ-"))

	entries := requests.eventsFor(request.ID)
	require.Len(t, entries, 1)
	require.Equal(t, domain.EventRequestCreated, entries[0].Type)
}

func TestCreateRequestDraftStaysDraft(t *testing.T) {
	service, _ := newRequestFixture()

	request, err := service.CreateRequest(context.Background(), testCitizenID, RequestCreateInput{
		Title:       "Graffiti on underpass",
		Description: "Fresh graffiti on the 12th street underpass wall",
		Draft:       true,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, request.Status)
}

func TestCreateRequestRequiresTitleAndDescription(t *testing.T) {
	service, _ := newRequestFixture()

	_, err := service.CreateRequest(context.Background(), testCitizenID, RequestCreateInput{
		Title: "  ",
	})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)
}

func TestSubmitDraft(t *testing.T) {
	service, requests := newRequestFixture()
	ctx := context.Background()

	draft, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Overflowing bin",
		Description: "Public bin at the riverside park has been full for days",
		Draft:       true,
	})
	require.NoError(t, err)

	submitted, err := service.SubmitDraft(ctx, testCitizenID, draft.ID, 1)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, submitted.Status)
	require.Equal(t, int64(2), submitted.Version)

	entries := requests.eventsFor(draft.ID)
	require.Len(t, entries, 2)
	require.Equal(t, domain.EventStatusChanged, entries[1].Type)
}

func TestSubmitDraftRejectsNonDrafts(t *testing.T) {
	service, _ := newRequestFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Noise complaint",
		Description: "Constant construction noise outside permitted hours",
	})
	require.NoError(t, err)

	_, err = service.SubmitDraft(ctx, testCitizenID, request.ID, 1)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeTransitionNotAllowed, apperrors.ToDomainError(err).Code)
}

func TestSubmitDraftStaleVersionWinsOverDraftCheck(t *testing.T) {
	service, _ := newRequestFixture()
	ctx := context.Background()

	draft, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Damaged guardrail",
		Description: "Guardrail bent outward on the river bridge approach",
		Draft:       true,
	})
	require.NoError(t, err)

	_, err = service.SubmitDraft(ctx, testCitizenID, draft.ID, 1)
	require.NoError(t, err)

	// A second submit with the old version must be a conflict, not a
	// complaint that the request is no longer a draft.
	_, err = service.SubmitDraft(ctx, testCitizenID, draft.ID, 1)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeVersionConflict, apperrors.ToDomainError(err).Code)
}

func TestSubmitDraftEnforcesOwnershipAndVersion(t *testing.T) {
	service, _ := newRequestFixture()
	ctx := context.Background()

	draft, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Fallen tree",
		Description: "Tree blocking the sidewalk after last night's storm",
		Draft:       true,
	})
	require.NoError(t, err)

	_, err = service.SubmitDraft(ctx, "another-citizen", draft.ID, 1)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	_, err = service.SubmitDraft(ctx, testCitizenID, draft.ID, 7)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeVersionConflict, apperrors.ToDomainError(err).Code)
}

func TestGetForCitizenReturnsHistory(t *testing.T) {
	service, _ := newRequestFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Leaking hydrant",
		Description: "Hydrant on Maple Ave has been leaking since Monday",
	})
	require.NoError(t, err)

	fetched, history, err := service.GetForCitizen(ctx, testCitizenID, request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, fetched.ID)
	require.Len(t, history, 1)

	_, _, err = service.GetForCitizen(ctx, "another-citizen", request.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)
}

func TestStaffNeverSeesDrafts(t *testing.T) {
	service, _ := newRequestFixture()
	ctx := context.Background()

	draft, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Vandalized bus stop",
		Description: "Smashed glass panel at the Route 7 bus stop",
		Draft:       true,
	})
	require.NoError(t, err)
	_, err = service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Blocked storm drain",
		Description: "Storm drain on Birch Lane clogged with leaves",
	})
	require.NoError(t, err)

	listed, err := service.ListForStaff(ctx, RequestStaffFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, domain.StatusSubmitted, listed[0].Status)

	_, _, err = service.GetForStaff(ctx, draft.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestGetForStaffByCode(t *testing.T) {
	service, _ := newRequestFixture()
	ctx := context.Background()

	request, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Missing street sign",
		Description: "Stop sign gone at the Cedar and 2nd intersection",
	})
	require.NoError(t, err)

	found, history, err := service.GetForStaffByCode(ctx, request.Code)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.Len(t, history, 1)

	_, _, err = service.GetForStaffByCode(ctx, "REQ-NOPE0000")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)

	draft, err := service.CreateRequest(ctx, testCitizenID, RequestCreateInput{
		Title:       "Cracked bench",
		Description: "Bench slats broken in the memorial garden",
		Draft:       true,
	})
	require.NoError(t, err)

	_, _, err = service.GetForStaffByCode(ctx, draft.Code)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestGetForStaffUnknownRequest(t *testing.T) {
	service, _ := newRequestFixture()

	_, _, err := service.GetForStaff(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}
