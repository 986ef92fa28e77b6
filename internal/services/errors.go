package services

import (
	"errors"
	"fmt"

	"infinite-experiment/gosplan/internal/db/repositories"
)

// ValidationError marks a payload that failed a required-field or format
// check. Always terminal; the remote is never contacted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// ConflictError surfaces a concurrent write detected by the record store.
// Not retried automatically; the caller decides whether to re-run the sync.
type ConflictError struct {
	ProductID   string
	ProductType string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent sync detected for %s/%s", e.ProductType, e.ProductID)
}

// ErrNotSynced is returned by update-only operations when the entity has no
// remote ID yet.
var ErrNotSynced = errors.New("product is not yet synced with the remote catalog")

// conflictFrom maps the repository's sentinel onto the typed error callers see.
func conflictFrom(err error, productID, productType string) error {
	if errors.Is(err, repositories.ErrWriteConflict) {
		return &ConflictError{ProductID: productID, ProductType: productType}
	}
	return err
}
