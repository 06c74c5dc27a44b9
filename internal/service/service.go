// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/avazquez/product-service/internal/errors"
	"github.com/avazquez/product-service/internal/store"
	"github.com/avazquez/product-service/pkg/messaging"
	"github.com/avazquez/product-service/pkg/messaging/events"
	"github.com/google/uuid"
)

// maxStockRetries bounds the optimistic-retry loop on version conflicts.
const maxStockRetries = 3

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// FindByIDs returns products by ids. If any id has no matching product the
	// whole lookup fails with a MissingProductsError listing the absent ids.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductDto, error)

	// FindAll returns the catalog; a non-positive limit returns everything
	// after offset. An empty catalog is an error (ErrNoProducts), not an
	// empty slice.
	FindAll(ctx context.Context, offset, limit int32) ([]ProductDto, error)

	// StockByID returns the current stock level of a product.
	StockByID(ctx context.Context, id uuid.UUID) (int32, error)

	// ReduceStock deducts quantity from a product's stock. Fails with
	// ErrInsufficientStock if the deduction would drive stock negative.
	ReduceStock(ctx context.Context, id uuid.UUID, quantity int32) error

	// Restock adds quantity back to a product's stock, with no upper bound.
	// Used to compensate a prior deduction when a distributed transaction fails.
	Restock(ctx context.Context, id uuid.UUID, quantity int32) error

	// Create adds a new product after full-field validation.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update applies a partial update; only supplied fields change.
	Update(ctx context.Context, id uuid.UUID, product ProductUpdateDto) (*ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
}

// NewService creates a new instance of ProductService with the provided
// repository and event publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
	}
}

// ProductDto represents the data transfer object for a product.
// Version is read-only and used for optimistic concurrency control.
type ProductDto struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int32   `json:"stock"`
	Available   bool    `json:"available"`
	Version     int32   `json:"version"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
// Pointer fields distinguish "absent" from zero values; domain validation of
// presence and ranges happens in the service, the tags only bound field sizes.
type ProductCreateDto struct {
	Name        string   `json:"name"        validate:"max=100"`
	Description string   `json:"description" validate:"max=500"`
	Price       *float64 `json:"price"`
	Stock       *int32   `json:"stock"`
}

// ProductUpdateDto represents a partial update. Absent fields are left untouched.
type ProductUpdateDto struct {
	Name        string   `json:"name"        validate:"max=100"`
	Description string   `json:"description" validate:"max=500"`
	Price       *float64 `json:"price"`
	Stock       *int32   `json:"stock"`
	Available   *bool    `json:"available"`
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	return toDto(product), nil
}

// FindByIDs retrieves a list of products by ids. When fewer products come back
// than ids were requested, the lookup fails with the missing subset.
func (s *Service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductDto, error) {
	unique := dedupe(ids)
	products, err := s.repository.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	if len(products) != len(unique) {
		found := make(map[uuid.UUID]struct{}, len(products))
		for _, p := range products {
			found[p.ID] = struct{}{}
		}
		var missing []uuid.UUID
		for _, id := range unique {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &perrors.MissingProductsError{IDs: missing}
	}

	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	return productDTOs, nil
}

// FindAll retrieves the catalog. Returns ErrNoProducts when it is empty.
func (s *Service) FindAll(ctx context.Context, offset, limit int32) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	if len(products) == 0 {
		return nil, perrors.ErrNoProducts
	}

	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	return productDTOs, nil
}

// StockByID returns the current stock level of a product.
func (s *Service) StockByID(ctx context.Context, id uuid.UUID) (int32, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	return product.Stock, nil
}

// ReduceStock deducts quantity from the product's stock. The read-modify-write
// is guarded by the product version; a lost race is retried a bounded number
// of times before giving up with ErrVersionConflict.
func (s *Service) ReduceStock(ctx context.Context, id uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		return perrors.ErrInvalidQuantity
	}

	for attempt := 0; attempt < maxStockRetries; attempt++ {
		product, err := s.repository.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
		}
		if product.Stock < quantity {
			return fmt.Errorf("product %s: available %d, requested %d: %w",
				id, product.Stock, quantity, perrors.ErrInsufficientStock)
		}

		updated, err := s.repository.UpdateStock(ctx, id, product.Stock-quantity, product.Version)
		if errors.Is(err, perrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to reduce stock for product %s: %w", id, err)
		}

		s.publishStockReduced(ctx, updated.ID, quantity, updated.Stock)
		return nil
	}
	return fmt.Errorf("reduce stock for product %s: %w", id, perrors.ErrVersionConflict)
}

// Restock adds quantity back to the product's stock unconditionally.
func (s *Service) Restock(ctx context.Context, id uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		return perrors.ErrInvalidQuantity
	}

	for attempt := 0; attempt < maxStockRetries; attempt++ {
		product, err := s.repository.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
		}

		_, err = s.repository.UpdateStock(ctx, id, product.Stock+quantity, product.Version)
		if errors.Is(err, perrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to restock product %s: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("restock product %s: %w", id, perrors.ErrVersionConflict)
}

// Create validates and persists a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	if err := validateNewProduct(product); err != nil {
		return nil, err
	}

	p, err := s.repository.Create(ctx, product.Name, product.Description, *product.Price, *product.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return toDto(p), nil
}

// Update applies the supplied fields to an existing product and returns the
// updated representation. Unsupplied fields are left unchanged. Existence is
// resolved before the body is validated, so an update of an unknown product
// reports ErrProductNotFound no matter what the body contains.
func (s *Service) Update(ctx context.Context, id uuid.UUID, product ProductUpdateDto) (*ProductDto, error) {
	for attempt := 0; attempt < maxStockRetries; attempt++ {
		current, err := s.repository.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
		}
		if err := validateUpdatedProduct(product); err != nil {
			return nil, err
		}

		params := store.UpdateParams{
			ID:          current.ID,
			Name:        current.Name,
			Description: current.Description,
			Price:       current.Price,
			Stock:       current.Stock,
			Available:   current.Available,
			Version:     current.Version,
		}
		if !isBlank(product.Name) {
			params.Name = product.Name
		}
		if !isBlank(product.Description) {
			params.Description = product.Description
		}
		if product.Price != nil {
			params.Price = *product.Price
		}
		if product.Stock != nil {
			params.Stock = *product.Stock
		}
		if product.Available != nil {
			params.Available = *product.Available
		}

		updated, err := s.repository.Update(ctx, params)
		if errors.Is(err, perrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
		}
		return toDto(updated), nil
	}
	return nil, fmt.Errorf("update product %s: %w", id, perrors.ErrVersionConflict)
}

// publishStockReduced emits a StockReducedEvent. Publishing is best-effort:
// a failure is logged, the deduction itself has already been persisted.
func (s *Service) publishStockReduced(ctx context.Context, id uuid.UUID, quantity, newStock int32) {
	if s.publisher == nil {
		return
	}
	event := events.StockReducedEvent{
		ProductID: id,
		Quantity:  quantity,
		NewStock:  newStock,
		ReducedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish StockReducedEvent",
			"product_id", id, "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Available:   product.Available,
		Version:     product.Version,
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
