package inventory

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/gestion-erp/gestion-go/api"
)

const basePath = "/api/inventario/productos/"

// Product is a sellable inventory item. JSON field names follow the backend's
// wire contract.
type Product struct {
	ID          int64   `json:"id"`
	Code        string  `json:"codigo"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	Price       float64 `json:"precio"`
	Stock       int     `json:"stock"`
	CategoryID  int64   `json:"categoria_id,omitempty"`
	Active      bool    `json:"activo"`
}

// Service wraps the product endpoints.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[inventory.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// ListFilter narrows List results server-side.
type ListFilter struct {
	Search     string
	CategoryID int64
	ActiveOnly bool
}

func (f ListFilter) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("buscar", f.Search)
	}
	if f.CategoryID != 0 {
		q.Set("categoria", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.ActiveOnly {
		q.Set("activo", "true")
	}
	return q
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return api.Request[[]Product](ctx, s.client, http.MethodGet, basePath, api.WithQuery(filter.query()))
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := api.Request[Product](ctx, s.client, http.MethodGet, itemPath(id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, product *Product) (*Product, error) {
	p, err := api.Request[Product](ctx, s.client, http.MethodPost, basePath, api.WithBody(product))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Update(ctx context.Context, product *Product) (*Product, error) {
	if product.ID == 0 {
		return nil, errors.New("[Service.Update] product ID is required")
	}
	p, err := api.Request[Product](ctx, s.client, http.MethodPut, itemPath(product.ID), api.WithBody(product))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.client.Call(ctx, http.MethodDelete, itemPath(id))
	return err
}

// UploadImage attaches an image to a product. The multipart body carries its
// own content type and bypasses the client's JSON header.
func (s *Service) UploadImage(ctx context.Context, id int64, filename string, data []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("imagen", filename)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish upload form: %w", err)
	}

	_, err = s.client.Call(ctx, http.MethodPost, itemPath(id)+"imagen/", api.WithRawBody(buf.Bytes(), w.FormDataContentType()))
	return err
}

func itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", basePath, id)
}
