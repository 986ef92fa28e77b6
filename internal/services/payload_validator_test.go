package services

import (
	"errors"
	"testing"

	"infinite-experiment/gosplan/internal/models/dtos"
)

func validPayload() *dtos.ProductPayload {
	return &dtos.ProductPayload{
		OfferID:      "sku-1001",
		Title:        "Enamel Mug",
		Description:  "A sturdy enamel camping mug",
		Link:         "https://shop.example.com/products/sku-1001",
		ImageLink:    "https://shop.example.com/images/sku-1001.jpg",
		Price:        &dtos.Price{Value: 12.50, Currency: "USD"},
		Availability: "in stock",
		Condition:    "new",
	}
}

func TestApplyDefaults(t *testing.T) {
	v := NewPayloadValidator()
	p := &dtos.ProductPayload{}

	v.ApplyDefaults(p)

	if p.Condition != "new" {
		t.Errorf("Expected default condition new, got %q", p.Condition)
	}
	if p.Availability != "in stock" {
		t.Errorf("Expected default availability, got %q", p.Availability)
	}
	if p.Price == nil {
		t.Fatal("Expected default price to be set")
	}
	if p.Price.Value != 0.00 || p.Price.Currency != "USD" {
		t.Errorf("Expected default price 0.00 USD, got %v %s", p.Price.Value, p.Price.Currency)
	}
}

func TestApplyDefaults_PartialPriceLeftAlone(t *testing.T) {
	v := NewPayloadValidator()
	p := &dtos.ProductPayload{Price: &dtos.Price{Value: 5.00}}

	v.ApplyDefaults(p)

	if p.Price.Currency != "" {
		t.Errorf("Expected partial price untouched, got currency %q", p.Price.Currency)
	}
}

func TestApplyDefaults_ExistingValuesKept(t *testing.T) {
	v := NewPayloadValidator()
	p := validPayload()
	p.Condition = "used"
	p.Availability = "preorder"

	v.ApplyDefaults(p)

	if p.Condition != "used" || p.Availability != "preorder" {
		t.Errorf("Expected explicit values kept, got %q / %q", p.Condition, p.Availability)
	}
}

func TestValidate_ValidPayload(t *testing.T) {
	v := NewPayloadValidator()
	if err := v.Validate(validPayload()); err != nil {
		t.Fatalf("Expected valid payload, got %v", err)
	}
}

func TestValidate_FailFastInDeclarationOrder(t *testing.T) {
	v := NewPayloadValidator()

	// Everything is missing; the first check in order must win.
	var vErr *ValidationError
	err := v.Validate(&dtos.ProductPayload{})
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if vErr.Field != "offerId" {
		t.Errorf("Expected first violation on offerId, got %s", vErr.Field)
	}
}

func TestValidate_MissingCurrency(t *testing.T) {
	v := NewPayloadValidator()
	p := validPayload()
	p.Price = &dtos.Price{Value: 9.99}

	var vErr *ValidationError
	err := v.Validate(p)
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if vErr.Field != "price.currency" {
		t.Errorf("Expected violation on price.currency, got %s", vErr.Field)
	}
}

func TestValidate_NegativePrice(t *testing.T) {
	v := NewPayloadValidator()
	p := validPayload()
	p.Price = &dtos.Price{Value: -1, Currency: "USD"}

	var vErr *ValidationError
	if err := v.Validate(p); !errors.As(err, &vErr) || vErr.Field != "price.value" {
		t.Errorf("Expected violation on price.value, got %v", err)
	}
}

func TestValidate_InvalidEnums(t *testing.T) {
	v := NewPayloadValidator()

	p := validPayload()
	p.Availability = "sometimes"
	var vErr *ValidationError
	if err := v.Validate(p); !errors.As(err, &vErr) || vErr.Field != "availability" {
		t.Errorf("Expected violation on availability, got %v", err)
	}

	p = validPayload()
	p.Condition = "mint"
	if err := v.Validate(p); !errors.As(err, &vErr) || vErr.Field != "condition" {
		t.Errorf("Expected violation on condition, got %v", err)
	}
}

func TestValidate_EmptyConditionAllowed(t *testing.T) {
	v := NewPayloadValidator()
	p := validPayload()
	p.Condition = ""

	// Condition is optional pre-defaults; only a wrong value fails.
	if err := v.Validate(p); err != nil {
		t.Errorf("Expected empty condition to pass, got %v", err)
	}
}

func TestValidateAll_CollectsEveryViolation(t *testing.T) {
	v := NewPayloadValidator()

	violations := v.ValidateAll(&dtos.ProductPayload{})

	// offerId, title, description, link, imageLink, price, availability
	if len(violations) != 7 {
		t.Fatalf("Expected 6 violations, got %d: %v", len(violations), violations)
	}
}
