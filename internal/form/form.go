// Package form holds the presentation-layer input gates. These run before
// anything touches the network; the stores themselves trust their callers.
package form

import (
	"strings"

	"github.com/vitrine-app/vitrine/internal/model"
)

// Errors maps field names to a message suitable for showing next to the field.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// ValidateDraft checks a product draft. All text fields are required, price
// must be strictly positive, and stock cannot be negative.
func ValidateDraft(d model.ProductDraft) Errors {
	errs := Errors{}

	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = "description is required"
	}
	if d.Price <= 0 {
		errs["price"] = "price must be greater than zero"
	}
	if strings.TrimSpace(d.Category) == "" {
		errs["category"] = "category is required"
	}
	if d.Stock < 0 {
		errs["stock"] = "stock cannot be negative"
	}
	if strings.TrimSpace(d.ImageURL) == "" {
		errs["image_url"] = "image reference is required"
	}

	return errs
}

// ValidateRegistration checks the sign-up form.
func ValidateRegistration(name, email, password string) Errors {
	errs := Errors{}

	if strings.TrimSpace(name) == "" {
		errs["name"] = "name is required"
	}
	if !strings.Contains(email, "@") {
		errs["email"] = "a valid email is required"
	}
	if len(password) < 6 {
		errs["password"] = "password must be at least 6 characters"
	}

	return errs
}
