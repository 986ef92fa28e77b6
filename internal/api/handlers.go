package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"infinite-experiment/gosplan/internal/models/dtos"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// syncItem is the wire shape for sync trigger endpoints: identity plus the
// payload snapshot to push. It doubles as the syncable entity handed to the
// orchestrator.
type syncItem struct {
	ProductID   string               `json:"product_id"`
	ProductType string               `json:"product_type"`
	Payload     *dtos.ProductPayload `json:"payload,omitempty"`
}

func (i *syncItem) CatalogID() string   { return i.ProductID }
func (i *syncItem) CatalogType() string { return i.ProductType }

func (i *syncItem) ToCatalogPayload() (*dtos.ProductPayload, error) {
	if i.Payload == nil {
		return nil, fmt.Errorf("request for %s/%s carries no payload", i.ProductType, i.ProductID)
	}
	return i.Payload, nil
}

func (i *syncItem) validateIdentity() error {
	if i.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if i.ProductType == "" {
		return fmt.Errorf("product_type is required")
	}
	return nil
}

// decodeSyncItem reads a syncItem from the request body, with the URL
// parameters taking precedence over body fields.
func decodeSyncItem(r *http.Request, productType, productID string) (*syncItem, error) {
	item := &syncItem{}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(item); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
	}

	if productID != "" {
		item.ProductID = productID
	}
	if productType != "" {
		item.ProductType = productType
	}

	if err := item.validateIdentity(); err != nil {
		return nil, err
	}
	return item, nil
}
