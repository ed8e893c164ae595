package hr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/gestion-erp/gestion-go/api"
)

const basePath = "/api/rrhh/empleados/"

// Employee is a staff member of the signed-in company.
type Employee struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
	Document  string `json:"documento"`
	Email     string `json:"email,omitempty"`
	Position  string `json:"cargo,omitempty"`
	Active    bool   `json:"activo"`
}

// FullName joins the employee's name fields for display.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Service wraps the employee endpoints.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[hr.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// ListFilter narrows List results server-side.
type ListFilter struct {
	Search     string
	ActiveOnly bool
}

func (f ListFilter) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("buscar", f.Search)
	}
	if f.ActiveOnly {
		q.Set("activo", "true")
	}
	return q
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Employee, error) {
	return api.Request[[]Employee](ctx, s.client, http.MethodGet, basePath, api.WithQuery(filter.query()))
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	e, err := api.Request[Employee](ctx, s.client, http.MethodGet, fmt.Sprintf("%s%d/", basePath, id))
	if err != nil {
		return nil, err
	}
	return &e, nil
}
