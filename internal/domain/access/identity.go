package access

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netpass/backend/internal/domain/shared"
)

var (
	// ErrInvalidTaxID is returned when the personal identifier is missing
	ErrInvalidTaxID = shared.NewDomainError("INVALID_TAX_ID", "Tax ID is required")
	// ErrInvalidEmail is returned when a contact email is malformed
	ErrInvalidEmail = shared.NewDomainError("INVALID_EMAIL", "Contact email is invalid")
)

// Identity represents a paying person, deduplicated by tax ID.
// Created on the first transaction and never deleted.
type Identity struct {
	ID        uuid.UUID
	TaxID     string
	Emails    []ContactEmail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactEmail is a contact address owned by an identity, unique per identity.
type ContactEmail struct {
	ID         uuid.UUID
	IdentityID uuid.UUID
	Email      string
	CreatedAt  time.Time
}

// NewIdentity creates an identity keyed by its stable personal identifier
func NewIdentity(taxID string) (*Identity, error) {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil, ErrInvalidTaxID
	}
	now := time.Now()
	return &Identity{
		ID:        uuid.New(),
		TaxID:     taxID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddEmail attaches a contact email to the identity.
// Adding an email the identity already owns is a no-op.
func (i *Identity) AddEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	for _, e := range i.Emails {
		if e.Email == email {
			return nil
		}
	}
	i.Emails = append(i.Emails, ContactEmail{
		ID:         uuid.New(),
		IdentityID: i.ID,
		Email:      email,
		CreatedAt:  time.Now(),
	})
	i.UpdatedAt = time.Now()
	return nil
}

// HasEmail reports whether the identity already owns the given address
func (i *Identity) HasEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range i.Emails {
		if e.Email == email {
			return true
		}
	}
	return false
}
