package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/civic-stack/request-service/internal/domain"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

func ifMatchApp() *fiber.App {
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		version, err := parseIfMatch(c)
		if err != nil {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		}
		return c.SendString(strconv.FormatInt(version, 10))
	})
	return app
}

func TestParseIfMatchMissingHeader(t *testing.T) {
	app := ifMatchApp()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, apperrors.CodeBadRequest, string(body))
}

func TestParseIfMatchAcceptsPlainAndQuotedVersions(t *testing.T) {
	app := ifMatchApp()

	for _, header := range []string{"3", `"3"`} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("If-Match", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		require.Equal(t, "3", string(body))
	}
}

func TestParseIfMatchRejectsMalformedVersions(t *testing.T) {
	app := ifMatchApp()

	for _, header := range []string{"abc", "0", "-2", `"v1"`} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("If-Match", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "header %q", header)
	}
}

func TestSetVersionHeaderQuotesETag(t *testing.T) {
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		setVersionHeader(c, 7)
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, `"7"`, resp.Header.Get("ETag"))
}

func TestParseStatuses(t *testing.T) {
	require.Nil(t, parseStatuses(""))
	require.Equal(t, []domain.Status{domain.StatusSubmitted}, parseStatuses("SUBMITTED"))
	require.Equal(t,
		[]domain.Status{domain.StatusTriaged, domain.StatusInProgress},
		parseStatuses(" TRIAGED , IN_PROGRESS "))
	// unknown values are dropped, not errored
	require.Equal(t, []domain.Status{domain.StatusClosed}, parseStatuses("CLOSED,BOGUS"))
}

func TestParseInt(t *testing.T) {
	require.Equal(t, 20, parseInt("", 20))
	require.Equal(t, 5, parseInt("5", 20))
	require.Equal(t, 20, parseInt("abc", 20))
	require.Equal(t, 20, parseInt("-3", 20))
}

func TestParseTime(t *testing.T) {
	require.Nil(t, parseTime(""))
	require.Nil(t, parseTime("yesterday"))

	parsed := parseTime("2026-08-01T10:30:00Z")
	require.NotNil(t, parsed)
	require.Equal(t, 2026, parsed.Year())
}
