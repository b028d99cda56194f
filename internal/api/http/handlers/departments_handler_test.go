package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/civic-stack/request-service/internal/domain"
)

type staticDepartmentRepo struct {
	departments []domain.Department
}

func (r *staticDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	for _, dept := range r.departments {
		if dept.ID == id {
			clone := dept
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *staticDepartmentRepo) ListActive(ctx context.Context) ([]domain.Department, error) {
	var out []domain.Department
	for _, dept := range r.departments {
		if dept.IsActive {
			out = append(out, dept)
		}
	}
	return out, nil
}

func TestDepartmentsListOnlyActive(t *testing.T) {
	handler := NewDepartmentsHandler(&staticDepartmentRepo{departments: []domain.Department{
		{ID: "d1", Name: "Public Works", IsActive: true},
		{ID: "d2", Name: "Parks", IsActive: true},
		{ID: "d3", Name: "Dissolved Unit", IsActive: false},
	}})

	app := fiber.New()
	app.Get("/departments", handler.List)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/departments", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	for _, dept := range body.Data {
		require.NotEqual(t, "Dissolved Unit", dept.Name)
	}
}
