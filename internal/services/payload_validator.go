package services

import (
	"fmt"
	"strings"

	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/models/dtos"
)

// PayloadValidator enforces the remote catalog's required fields before any
// remote call is made. Validation failures are always terminal.
type PayloadValidator struct{}

func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{}
}

// ApplyDefaults fills recognized optional fields that the mapping omitted.
// A partially-set price is left alone so validation can reject it.
func (v *PayloadValidator) ApplyDefaults(p *dtos.ProductPayload) {
	if p.Condition == "" {
		p.Condition = "new"
	}
	if p.Availability == "" {
		p.Availability = "in stock"
	}
	if p.Price == nil {
		p.Price = &dtos.Price{Value: 0.00, Currency: "USD"}
	}
}

// Validate checks fields in declaration order and fails on the first
// violation.
func (v *PayloadValidator) Validate(p *dtos.ProductPayload) error {
	checks := v.checks(p)
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAll runs every check and collects all violations. Used by the
// dry-run preview; the sync path stays fail-fast.
func (v *PayloadValidator) ValidateAll(p *dtos.ProductPayload) []error {
	var violations []error
	for _, check := range v.checks(p) {
		if err := check(); err != nil {
			violations = append(violations, err)
		}
	}
	return violations
}

func (v *PayloadValidator) checks(p *dtos.ProductPayload) []func() error {
	return []func() error{
		func() error { return requireString("offerId", p.OfferID) },
		func() error { return requireString("title", p.Title) },
		func() error { return requireString("description", p.Description) },
		func() error { return requireString("link", p.Link) },
		func() error { return requireString("imageLink", p.ImageLink) },
		func() error { return validatePrice(p.Price) },
		func() error {
			return requireEnum("availability", p.Availability, constants.ValidAvailabilities, true)
		},
		func() error {
			return requireEnum("condition", p.Condition, constants.ValidConditions, false)
		},
	}
}

func requireString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "missing required field"}
	}
	return nil
}

func validatePrice(price *dtos.Price) error {
	if price == nil {
		return &ValidationError{Field: "price", Reason: "missing required field"}
	}
	if price.Currency == "" {
		return &ValidationError{Field: "price.currency", Reason: "price must carry a currency code"}
	}
	if price.Value < 0 {
		return &ValidationError{Field: "price.value", Reason: "price value must be a non-negative number"}
	}
	return nil
}

func requireEnum(field, value string, allowed []string, required bool) error {
	if value == "" {
		if required {
			return &ValidationError{Field: field, Reason: "missing required field"}
		}
		return nil
	}
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("invalid value %q, must be one of: %s", value, strings.Join(allowed, ", ")),
	}
}
