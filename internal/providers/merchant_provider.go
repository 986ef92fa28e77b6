package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/models/dtos"
)

// MerchantProvider implements CatalogClient against a Content-API-style
// merchant catalog REST service.
type MerchantProvider struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	Client     *http.Client
}

// NewMerchantProvider creates a new merchant catalog provider
func NewMerchantProvider(cfg *config.Config) *MerchantProvider {
	return &MerchantProvider{
		BaseURL:    cfg.APIBaseURL,
		MerchantID: cfg.MerchantID,
		APIKey:     cfg.APIKey,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetProviderType returns the provider type identifier
func (p *MerchantProvider) GetProviderType() string {
	return "merchant"
}

// Create inserts a new product and returns the remote-assigned ID
func (p *MerchantProvider) Create(ctx context.Context, payload *dtos.ProductPayload) (string, error) {
	url := fmt.Sprintf("%s/%s/products", p.BaseURL, p.MerchantID)

	resp, err := p.send(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := p.handleHTTPError(resp); err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if created.ID == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeProductInvalid,
			Message: "remote catalog returned no product ID",
		}
	}

	return created.ID, nil
}

// Update replaces an existing remote product
func (p *MerchantProvider) Update(ctx context.Context, remoteID string, payload *dtos.ProductPayload) error {
	url := fmt.Sprintf("%s/%s/products/%s", p.BaseURL, p.MerchantID, remoteID)

	resp, err := p.send(ctx, http.MethodPut, url, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return p.handleHTTPError(resp)
}

// Delete removes a remote product
func (p *MerchantProvider) Delete(ctx context.Context, remoteID string) error {
	url := fmt.Sprintf("%s/%s/products/%s", p.BaseURL, p.MerchantID, remoteID)

	resp, err := p.send(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return p.handleHTTPError(resp)
}

// Get fetches the remote document for a product
func (p *MerchantProvider) Get(ctx context.Context, remoteID string) (*dtos.CatalogProduct, error) {
	url := fmt.Sprintf("%s/%s/products/%s", p.BaseURL, p.MerchantID, remoteID)

	resp, err := p.send(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := p.handleHTTPError(resp); err != nil {
		return nil, err
	}

	var product dtos.CatalogProduct
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if product.RemoteID == "" {
		product.RemoteID = remoteID
	}

	return &product, nil
}

// TestConnection probes the merchant account endpoint with the configured
// credentials. Used at startup and by the health check.
func (p *MerchantProvider) TestConnection(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/account", p.BaseURL, p.MerchantID)

	resp, err := p.send(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return p.handleHTTPError(resp)
}

// send builds and executes one request with auth headers set.
func (p *MerchantProvider) send(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payloadBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}

	return resp, nil
}

// handleHTTPError converts HTTP errors to ProviderError
func (p *MerchantProvider) handleHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &ProviderError{
			Code:    constants.ErrCodeAuthenticationFailed,
			Message: constants.GetErrorMessage(constants.ErrCodeAuthenticationFailed),
			Details: string(body),
		}
	case http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeAccessDenied,
			Message: constants.GetErrorMessage(constants.ErrCodeAccessDenied),
			Details: string(body),
		}
	case http.StatusBadRequest:
		return &ProviderError{
			Code:    constants.ErrCodeProductInvalid,
			Message: constants.GetErrorMessage(constants.ErrCodeProductInvalid),
			Details: string(body),
		}
	case http.StatusNotFound:
		return &ProviderError{
			Code:    constants.ErrCodeProductNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeProductNotFound),
			Details: string(body),
		}
	case http.StatusConflict:
		return &ProviderError{
			Code:    constants.ErrCodeDuplicateProduct,
			Message: constants.GetErrorMessage(constants.ErrCodeDuplicateProduct),
			Details: string(body),
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: string(body),
		}
	default:
		if resp.StatusCode >= 500 {
			return &ProviderError{
				Code:    constants.ErrCodeRemoteUnavailable,
				Message: constants.GetErrorMessage(constants.ErrCodeRemoteUnavailable),
				Details: string(body),
			}
		}
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
			Details: string(body),
		}
	}
}
