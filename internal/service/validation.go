package service

import (
	"math"
	"strings"

	perrors "github.com/avazquez/product-service/internal/errors"
)

// allowZeroStock decides whether a validated write may set stock to exactly 0.
// The business rule is that zero is only ever reached by deductions: an update
// that explicitly sets 0 is rejected, while ReduceStock may legitimately rest
// at 0. Flip this constant to treat 0 as a valid explicit level.
const allowZeroStock = false

// validateNewProduct checks a creation request. Rule order: field presence,
// then price, then stock; the first failing rule wins and is the only one
// reported.
func validateNewProduct(d ProductCreateDto) error {
	if isBlank(d.Name) || isBlank(d.Description) || d.Price == nil || d.Stock == nil {
		return perrors.ErrAllFieldsRequired
	}
	if err := validatePrice(d.Price); err != nil {
		return err
	}
	return validateStock(d.Stock)
}

// validateUpdatedProduct checks a partial update. Rule order differs from
// creation: price first, then the all-blanks check, then stock. Fields that
// were not supplied are skipped; at least one field must be supplied.
func validateUpdatedProduct(d ProductUpdateDto) error {
	if d.Price != nil {
		if err := validatePrice(d.Price); err != nil {
			return err
		}
	}
	if isBlank(d.Name) && isBlank(d.Description) && d.Price == nil && d.Stock == nil && d.Available == nil {
		return perrors.ErrNoFieldsToUpdate
	}
	if d.Stock != nil {
		return validateStock(d.Stock)
	}
	return nil
}

// validatePrice rejects absent, non-finite and non-positive prices.
func validatePrice(price *float64) error {
	if price == nil || math.IsNaN(*price) || math.IsInf(*price, 0) || *price <= 0 {
		return perrors.ErrInvalidPrice
	}
	return nil
}

// validateStock rejects absent and non-positive stock levels. Zero is rejected
// unless allowZeroStock is set.
func validateStock(stock *int32) error {
	if stock == nil || *stock < 0 {
		return perrors.ErrInvalidStock
	}
	if *stock == 0 && !allowZeroStock {
		return perrors.ErrInvalidStock
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
