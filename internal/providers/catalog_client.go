package providers

import (
	"context"
	"fmt"

	"infinite-experiment/gosplan/internal/models/dtos"
)

// CatalogClient defines the remote catalog boundary. One implementation per
// remote service; the orchestrator never sees transport details.
type CatalogClient interface {
	// Create inserts a new product and returns the remote-assigned ID
	Create(ctx context.Context, payload *dtos.ProductPayload) (string, error)

	// Update replaces an existing remote product. A missing remote record is
	// the client's responsibility to surface as an error, never to re-create.
	Update(ctx context.Context, remoteID string, payload *dtos.ProductPayload) error

	// Delete removes a remote product
	Delete(ctx context.Context, remoteID string) error

	// Get fetches the remote document for a product
	Get(ctx context.Context, remoteID string) (*dtos.CatalogProduct, error)

	// TestConnection probes the credentials without mutating anything
	TestConnection(ctx context.Context) error

	// GetProviderType returns the provider type identifier
	GetProviderType() string
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
