// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is the persistent representation of a catalog entry.
// Version is the optimistic concurrency token; every successful write
// increments it.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       float64
	Stock       int32
	Available   bool
	Version     int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdateParams carries a full-row, version-guarded product update.
type UpdateParams struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       float64
	Stock       int32
	Available   bool
	Version     int32
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs returns the products matching the given ids. Ids with no
	// matching product are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll returns products with pagination support. A non-positive limit
	// returns everything after offset.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]Product, error)

	// Create adds a new product. The store assigns the id and sets version to 1.
	Create(ctx context.Context, name, description string, price float64, stock int32) (*Product, error)

	// Update modifies an existing product's details.
	// Returns ErrProductNotFound if the id is absent, ErrVersionConflict if the
	// row exists but the version no longer matches.
	Update(ctx context.Context, params UpdateParams) (*Product, error)

	// UpdateStock sets the stock quantity of a product.
	// Returns ErrProductNotFound if the id is absent, ErrVersionConflict if the
	// row exists but the version no longer matches.
	UpdateStock(ctx context.Context, id uuid.UUID, stock int32, version int32) (*Product, error)
}
