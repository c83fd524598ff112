// Package products provides the typed product operations of the StockEase
// API. Each method declares the response shape it expects - bare array or
// {data: ...} envelope - and unwraps accordingly; no runtime shape
// sniffing. List-shaped results always come back as a non-nil slice, so a
// 204 or empty body reads as "no products", never as a nil surprise.
package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stockease/client-go/core"
	"github.com/stockease/client-go/transport"
)

// Product is a transient, UI-lifetime copy of a backend-owned product.
// TotalValue is computed by the backend (price x quantity) and treated as
// opaque here.
type Product struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	TotalValue float64 `json:"totalValue"`
}

// CreateInput carries the fields a caller supplies for a new product.
// No client-side business validation happens here; SKU uniqueness and
// range rules are the backend's to enforce.
type CreateInput struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// listEnvelope is the {data: [...]} wrapper the paged endpoint uses
type listEnvelope struct {
	Data []Product `json:"data"`
}

// itemEnvelope is the {data: {...}} wrapper the single-product endpoint uses
type itemEnvelope struct {
	Data Product `json:"data"`
}

// Service performs product operations over the request pipeline
type Service struct {
	pipeline *transport.Pipeline
	logger   core.Logger
}

// NewService creates a product service over the given pipeline
func NewService(pipeline *transport.Pipeline, logger core.Logger) *Service {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Service{
		pipeline: pipeline,
		logger:   logger,
	}
}

// List fetches the full product list. The endpoint returns a bare array.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	const op = "products.List"

	body, err := s.pipeline.Do(ctx, op, http.MethodGet, "/products", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeBareList(op, body)
}

// ListPaged fetches one page of products. The paged endpoint nests the
// array under a data field.
func (s *Service) ListPaged(ctx context.Context, page, size int) ([]Product, error) {
	const op = "products.ListPaged"

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	body, err := s.pipeline.Do(ctx, op, http.MethodGet, "/products/paged", query, nil)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return []Product{}, nil
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, core.NewDecodeError(op, err)
	}
	if envelope.Data == nil {
		return []Product{}, nil
	}
	return envelope.Data, nil
}

// Search fetches products whose name matches the query. Matching semantics
// (substring, case-insensitive) are the backend's; this method does not
// re-implement or assume them. A 204 response reads as an empty list.
func (s *Service) Search(ctx context.Context, name string) ([]Product, error) {
	const op = "products.Search"

	query := url.Values{}
	query.Set("name", name)

	body, err := s.pipeline.Do(ctx, op, http.MethodGet, "/products/search", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeBareList(op, body)
}

// Get fetches a single product. A missing id surfaces as a not-found error
// propagated from the pipeline, not re-interpreted here.
func (s *Service) Get(ctx context.Context, id int) (Product, error) {
	const op = "products.Get"

	body, err := s.pipeline.Do(ctx, op, http.MethodGet, "/products/"+strconv.Itoa(id), nil, nil)
	if err != nil {
		return Product{}, err
	}

	return decodeItem(op, body)
}

// Create adds a product. The response mirrors Get's {data: Product}
// envelope. A duplicate SKU surfaces as a conflict error carrying the
// backend's message.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	const op = "products.Create"

	body, err := s.pipeline.Do(ctx, op, http.MethodPost, "/products", nil, input)
	if err != nil {
		return Product{}, err
	}
	return decodeItem(op, body)
}

// Update replaces a product's mutable fields
func (s *Service) Update(ctx context.Context, id int, input CreateInput) (Product, error) {
	const op = "products.Update"

	body, err := s.pipeline.Do(ctx, op, http.MethodPut, "/products/"+strconv.Itoa(id), nil, input)
	if err != nil {
		return Product{}, err
	}
	return decodeItem(op, body)
}

// Delete removes a product
func (s *Service) Delete(ctx context.Context, id int) error {
	const op = "products.Delete"

	_, err := s.pipeline.Do(ctx, op, http.MethodDelete, "/products/"+strconv.Itoa(id), nil, nil)
	return err
}

// decodeBareList parses a bare product array, normalizing empty and 204
// bodies to an empty slice.
func decodeBareList(op string, body []byte) ([]Product, error) {
	if len(body) == 0 {
		return []Product{}, nil
	}

	var list []Product
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, core.NewDecodeError(op, err)
	}
	if list == nil {
		return []Product{}, nil
	}
	return list, nil
}

// decodeItem parses a {data: Product} envelope. An empty body reads as the
// zero product.
func decodeItem(op string, body []byte) (Product, error) {
	if len(body) == 0 {
		return Product{}, nil
	}

	var envelope itemEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Product{}, core.NewDecodeError(op, err)
	}
	return envelope.Data, nil
}
