package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/netpass/backend/internal/domain/access"
	"github.com/netpass/backend/internal/domain/shared"
	"github.com/netpass/backend/internal/infrastructure/persistence/models"
)

// GormTransactionLedger implements access.TransactionLedger using GORM
type GormTransactionLedger struct {
	db *gorm.DB
}

// NewGormTransactionLedger creates a new GormTransactionLedger
func NewGormTransactionLedger(db *gorm.DB) *GormTransactionLedger {
	return &GormTransactionLedger{db: db}
}

// RecordTransaction persists a new transaction in the initiated state.
// Identity lookup-or-create, email upsert and the transaction insert run in
// one database transaction so a failure midway leaves nothing behind.
func (r *GormTransactionLedger) RecordTransaction(ctx context.Context, input access.RecordTransactionInput) (uuid.UUID, error) {
	var transactionID uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := r.findOrCreateIdentity(tx, input.TaxID)
		if err != nil {
			return err
		}

		if err := r.attachEmail(tx, identity, input.Email); err != nil {
			return err
		}

		transaction, err := access.NewTransaction(
			identity.ID,
			input.Amount,
			input.ClientIdentifier,
			input.PaymentReference,
			input.GrantSeconds,
		)
		if err != nil {
			return err
		}

		var model models.TransactionModel
		model.FromDomainTransaction(transaction)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("access: create transaction: %w", err)
		}

		transactionID = transaction.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return transactionID, nil
}

// findOrCreateIdentity loads the identity owning taxID, creating it on first use
func (r *GormTransactionLedger) findOrCreateIdentity(tx *gorm.DB, taxID string) (*access.Identity, error) {
	var model models.IdentityModel
	err := tx.Preload("Emails").First(&model, "tax_id = ?", taxID).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("access: find identity: %w", err)
	}

	identity, err := access.NewIdentity(taxID)
	if err != nil {
		return nil, err
	}
	created := models.IdentityModel{
		ID:        identity.ID,
		TaxID:     identity.TaxID,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("access: create identity: %w", err)
	}
	return identity, nil
}

// attachEmail upserts the contact address for the identity
func (r *GormTransactionLedger) attachEmail(tx *gorm.DB, identity *access.Identity, email string) error {
	if identity.HasEmail(email) {
		return nil
	}
	if err := identity.AddEmail(email); err != nil {
		return err
	}
	latest := identity.Emails[len(identity.Emails)-1]
	var model models.ContactEmailModel
	model.FromDomainContactEmail(&latest)
	if err := tx.Create(&model).Error; err != nil {
		return fmt.Errorf("access: create contact email: %w", err)
	}
	return nil
}

// UpdateStatus moves the transaction matched by payment reference forward.
// The row is loaded and the transition validated through the domain entity,
// so monotonicity holds regardless of delivery order.
func (r *GormTransactionLedger) UpdateStatus(ctx context.Context, paymentReference string, status access.TransactionStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.TransactionModel
		if err := tx.First(&model, "payment_reference = ?", paymentReference).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return fmt.Errorf("access: find transaction: %w", err)
		}

		transaction := model.ToDomain()
		previous := transaction.Status
		if err := transaction.ApplyStatus(status); err != nil {
			return err
		}
		if transaction.Status == previous {
			return nil
		}

		result := tx.Model(&models.TransactionModel{}).
			Where("payment_reference = ?", paymentReference).
			Updates(map[string]interface{}{
				"status":     string(transaction.Status),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("access: update transaction status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ResolveClientIdentifier returns the network identifier recorded for a
// payment reference
func (r *GormTransactionLedger) ResolveClientIdentifier(ctx context.Context, paymentReference string) (string, error) {
	var identifier string
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("client_identifier").
		Where("payment_reference = ?", paymentReference).
		Limit(1).
		Scan(&identifier).Error
	if err != nil {
		return "", fmt.Errorf("access: resolve client identifier: %w", err)
	}
	if identifier == "" {
		return "", shared.ErrNotFound
	}
	return identifier, nil
}

// FindByPaymentReference returns the full transaction for a reference
func (r *GormTransactionLedger) FindByPaymentReference(ctx context.Context, paymentReference string) (*access.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "payment_reference = ?", paymentReference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("access: find transaction: %w", err)
	}
	return model.ToDomain(), nil
}

// Resolve satisfies access.IdentifierResolver on top of the ledger
func (r *GormTransactionLedger) Resolve(ctx context.Context, paymentReference string) (string, error) {
	return r.ResolveClientIdentifier(ctx, paymentReference)
}

// Ensure GormTransactionLedger implements the interfaces
var (
	_ access.TransactionLedger  = (*GormTransactionLedger)(nil)
	_ access.IdentifierResolver = (*GormTransactionLedger)(nil)
)
