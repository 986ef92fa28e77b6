package constants

import "strings"

// Remote Catalog Error Codes
// These constants define specific error scenarios for the remote catalog API

// Credential-related errors
const (
	ErrCodeInvalidAPIKey        = "INVALID_API_KEY"
	ErrCodeInvalidMerchantID    = "INVALID_MERCHANT_ID"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeAccessDenied         = "ACCESS_DENIED"
)

// Product-related errors
const (
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeProductInvalid    = "PRODUCT_INVALID"
	ErrCodeDuplicateProduct  = "DUPLICATE_PRODUCT"
	ErrCodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
)

// Configuration errors
const (
	ErrCodeConfigMissing   = "CONFIG_MISSING"
	ErrCodeConfigMalformed = "CONFIG_MALFORMED"
)

// Sync-state errors
const (
	ErrCodeNotSynced     = "NOT_SYNCED"
	ErrCodeSyncDisabled  = "SYNC_DISABLED"
	ErrCodeWriteConflict = "WRITE_CONFLICT"
)

// Error Messages
// Human-readable messages corresponding to error codes

var RemoteErrorMessages = map[string]string{
	ErrCodeInvalidAPIKey:        "The catalog API key is invalid or has been revoked",
	ErrCodeInvalidMerchantID:    "The merchant ID is invalid or you don't have access to it",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:         "Unable to reach the remote catalog service",
	ErrCodeAuthenticationFailed: "Authentication with the remote catalog service failed",
	ErrCodeAccessDenied:         "Access to the remote catalog resource was denied",

	ErrCodeProductNotFound:   "The product was not found in the remote catalog",
	ErrCodeProductInvalid:    "The remote catalog rejected the product payload",
	ErrCodeDuplicateProduct:  "A product with this offer ID already exists in the remote catalog",
	ErrCodeRemoteUnavailable: "The remote catalog service is temporarily unavailable",

	ErrCodeConfigMissing:   "A required configuration value is missing",
	ErrCodeConfigMalformed: "The configuration value is malformed",

	ErrCodeNotSynced:     "This product has not been synced with the remote catalog yet",
	ErrCodeSyncDisabled:  "Catalog sync is disabled for this product",
	ErrCodeWriteConflict: "The sync record was modified concurrently",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := RemoteErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}

// TerminalErrorSignatures are error-message substrings that can never succeed
// on retry (auth and malformed-request failures from the remote OAuth layer).
var TerminalErrorSignatures = []string{
	"invalid_grant",
	"unauthorized_client",
	"invalid_client",
	"invalid_request",
	"access_denied",
}

// terminalErrorCodes are ProviderError codes that are never worth retrying.
var terminalErrorCodes = map[string]bool{
	ErrCodeInvalidAPIKey:        true,
	ErrCodeInvalidMerchantID:    true,
	ErrCodeAuthenticationFailed: true,
	ErrCodeAccessDenied:         true,
	ErrCodeProductInvalid:       true,
}

// IsTerminalErrorCode reports whether a provider error code is terminal.
func IsTerminalErrorCode(code string) bool {
	return terminalErrorCodes[code]
}

// MatchesTerminalSignature reports whether an error message carries one of the
// known terminal signatures. Matching is case-insensitive substring search.
func MatchesTerminalSignature(message string) bool {
	lower := strings.ToLower(message)
	for _, sig := range TerminalErrorSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
