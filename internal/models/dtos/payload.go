package dtos

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Price carries the monetary value for a catalog product.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// ProductPayload is the wire document pushed to the remote catalog. Callers
// build it through their CatalogEntity mapping; the validator enforces the
// required fields before any remote call.
type ProductPayload struct {
	OfferID     string `json:"offerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	ImageLink   string `json:"imageLink"`

	Price        *Price `json:"price,omitempty"`
	Availability string `json:"availability,omitempty"`
	Condition    string `json:"condition,omitempty"`

	AdditionalImageLinks []string `json:"additionalImageLinks,omitempty"`
	Brand                string   `json:"brand,omitempty"`
	GTIN                 string   `json:"gtin,omitempty"`
	MPN                  string   `json:"mpn,omitempty"`
	ContentLanguage      string   `json:"contentLanguage,omitempty"`
	TargetCountry        string   `json:"targetCountry,omitempty"`
}

// JSON serializes the payload for persistence and request snapshots.
func (p *ProductPayload) JSON() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// Fingerprint returns a stable hash of the payload, used by the
// duplicate-sync suppression cache.
func (p *ProductPayload) Fingerprint() string {
	sum := sha256.Sum256([]byte(p.JSON()))
	return hex.EncodeToString(sum[:])
}

// CatalogProduct is the remote catalog's view of a product, returned by Get.
type CatalogProduct struct {
	RemoteID string          `json:"id"`
	Payload  *ProductPayload `json:"product"`
}
