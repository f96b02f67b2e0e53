package BillBook

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"SiteBook/Models"
)

// Syncer mirrors recorded payments into the paying customer's ledger
type Syncer struct {
	db     *gorm.DB
	engine *Engine
}

func NewSyncer(db *gorm.DB, engine *Engine) *Syncer {
	return &Syncer{db: db, engine: engine}
}

// PostPayment posts a DEBIT ("you got") for payment on the project customer's
// ledger, creating the ledger if needed. It runs after the payment has been
// committed and never fails the caller: errors are logged and counted only, so
// the bill book can lag behind the payments table.
func (s *Syncer) PostPayment(ctx context.Context, payment *Models.Payment) {
	if err := s.postPayment(ctx, payment); err != nil {
		syncFailures.Inc()
		log.Printf("Failed to sync payment %d with bill book: %v\n", payment.ID, err)
	}
}

func (s *Syncer) postPayment(ctx context.Context, payment *Models.Payment) error {
	var project Models.Project
	if err := s.db.WithContext(ctx).Preload("Customer").First(&project, payment.ProjectID).Error; err != nil {
		return fmt.Errorf("load project %d: %w", payment.ProjectID, err)
	}
	if project.Customer == nil {
		return nil
	}

	ledger, err := s.engine.FindOrCreateLedger(ctx, Models.CustomerOwner(project.CustomerID), project.Customer.Name)
	if err != nil {
		return err
	}

	_, err = s.engine.AddEntry(ctx, ledger.ID, EntryInput{
		Amount:  payment.Amount,
		Type:    Models.EntryDebit,
		Mode:    payment.Mode,
		Remarks: PaymentRemarks(project.Name, payment.Reference),
		Date:    payment.Date,
	})
	return err
}

// PaymentRemarks is the remark written on entries created from payments
func PaymentRemarks(projectName, reference string) string {
	if reference == "" {
		reference = "-"
	}
	return fmt.Sprintf("Payment for Project: %s (Ref: %s)", projectName, reference)
}
