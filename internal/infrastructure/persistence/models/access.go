package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netpass/backend/internal/domain/access"
)

// IdentityModel maps access.Identity to the identities table
type IdentityModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TaxID     string    `gorm:"column:tax_id;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Emails []ContactEmailModel `gorm:"foreignKey:IdentityID"`
}

// TableName returns the table name for IdentityModel
func (IdentityModel) TableName() string {
	return "identities"
}

// ToDomain converts IdentityModel to domain Identity
func (m *IdentityModel) ToDomain() *access.Identity {
	identity := &access.Identity{
		ID:        m.ID,
		TaxID:     m.TaxID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, e := range m.Emails {
		identity.Emails = append(identity.Emails, *e.ToDomain())
	}
	return identity
}

// ContactEmailModel maps access.ContactEmail to the contact_emails table
type ContactEmailModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	IdentityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_identity_email"`
	Email      string    `gorm:"not null;uniqueIndex:idx_identity_email"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for ContactEmailModel
func (ContactEmailModel) TableName() string {
	return "contact_emails"
}

// ToDomain converts ContactEmailModel to domain ContactEmail
func (m *ContactEmailModel) ToDomain() *access.ContactEmail {
	return &access.ContactEmail{
		ID:         m.ID,
		IdentityID: m.IdentityID,
		Email:      m.Email,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomainContactEmail populates ContactEmailModel from domain ContactEmail
func (m *ContactEmailModel) FromDomainContactEmail(e *access.ContactEmail) {
	m.ID = e.ID
	m.IdentityID = e.IdentityID
	m.Email = e.Email
	m.CreatedAt = e.CreatedAt
}

// TransactionModel maps access.Transaction to the transactions table.
// payment_reference carries a unique index: it is the sole reconciliation
// join key and lookups on it must stay point lookups.
type TransactionModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	IdentityID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ClientIdentifier string          `gorm:"column:client_identifier;not null"`
	PaymentReference string          `gorm:"column:payment_reference;not null;uniqueIndex"`
	Status           string          `gorm:"not null"`
	GrantSeconds     int64           `gorm:"column:grant_seconds;not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for TransactionModel
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts TransactionModel to domain Transaction
func (m *TransactionModel) ToDomain() *access.Transaction {
	return &access.Transaction{
		ID:               m.ID,
		IdentityID:       m.IdentityID,
		Amount:           m.Amount,
		ClientIdentifier: m.ClientIdentifier,
		PaymentReference: m.PaymentReference,
		Status:           access.TransactionStatus(m.Status),
		GrantSeconds:     m.GrantSeconds,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomainTransaction populates TransactionModel from domain Transaction
func (m *TransactionModel) FromDomainTransaction(t *access.Transaction) {
	m.ID = t.ID
	m.IdentityID = t.IdentityID
	m.Amount = t.Amount
	m.ClientIdentifier = t.ClientIdentifier
	m.PaymentReference = t.PaymentReference
	m.Status = string(t.Status)
	m.GrantSeconds = t.GrantSeconds
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}
