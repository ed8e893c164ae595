package sales

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/gestion-erp/gestion-go/api"
)

const basePath = "/api/ventas/ordenes/"

const dateLayout = "2006-01-02"

// OrderLine is one product line on a sales order.
type OrderLine struct {
	ProductID int64   `json:"producto_id"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio_unitario"`
}

// Order is a sales order as returned by the backend.
type Order struct {
	ID         int64       `json:"id"`
	Number     string      `json:"numero"`
	CustomerID int64       `json:"cliente_id"`
	Date       string      `json:"fecha"`
	Status     string      `json:"estado"`
	Total      float64     `json:"total"`
	Lines      []OrderLine `json:"detalles,omitempty"`
}

// Service wraps the sales order endpoints.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[sales.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// ListFilter narrows List results server-side. Zero time bounds are omitted.
type ListFilter struct {
	From   time.Time
	To     time.Time
	Status string
}

func (f ListFilter) query() url.Values {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("desde", f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		q.Set("hasta", f.To.Format(dateLayout))
	}
	if f.Status != "" {
		q.Set("estado", f.Status)
	}
	return q
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return api.Request[[]Order](ctx, s.client, http.MethodGet, basePath, api.WithQuery(filter.query()))
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := api.Request[Order](ctx, s.client, http.MethodGet, fmt.Sprintf("%s%d/", basePath, id))
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Service) Create(ctx context.Context, order *Order) (*Order, error) {
	if len(order.Lines) == 0 {
		return nil, errors.New("[Service.Create] order needs at least one line")
	}
	o, err := api.Request[Order](ctx, s.client, http.MethodPost, basePath, api.WithBody(order))
	if err != nil {
		return nil, err
	}
	return &o, nil
}
