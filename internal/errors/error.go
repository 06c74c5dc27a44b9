// Package errors provides the error taxonomy for product operations.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound is returned when no product exists with the given id.
	ErrProductNotFound = errors.New("product not found")
	// ErrNoProducts is returned by a full listing when the catalog is empty.
	// An empty catalog is modeled as an error, not an empty result.
	ErrNoProducts = errors.New("there are no products")
	// ErrInsufficientStock is returned when a deduction would drive stock negative.
	ErrInsufficientStock = errors.New("not enough stock")
	// ErrVersionConflict is returned when a version-guarded write lost a race
	// with a concurrent mutation of the same product.
	ErrVersionConflict = errors.New("product was modified concurrently")

	ErrAllFieldsRequired = errors.New("all fields are required")
	ErrNoFieldsToUpdate  = errors.New("at least one value has to be modified")
	ErrInvalidPrice      = errors.New("invalid price: must be a positive number (e.g.: 120.00)")
	ErrInvalidStock      = errors.New("invalid stock: must be a positive number")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number")
)

// MissingProductsError reports which ids of a batch lookup had no matching
// product. It matches ErrProductNotFound via errors.Is.
type MissingProductsError struct {
	IDs []uuid.UUID
}

func (e *MissingProductsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("the following product ids were not found: %s", strings.Join(ids, ", "))
}

func (e *MissingProductsError) Is(target error) bool {
	return target == ErrProductNotFound
}
