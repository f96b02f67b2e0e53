package BillBook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"SiteBook/Models"
)

func seedProject(t *testing.T, db *gorm.DB, customerName string) (Models.Customer, Models.Project) {
	t.Helper()
	customer := Models.Customer{Name: customerName, Phone: "9876543210"}
	require.NoError(t, db.Create(&customer).Error)

	project := Models.Project{Name: "Villa 12", Type: "Residential", Status: "ongoing", CustomerID: customer.ID}
	require.NoError(t, db.Create(&project).Error)
	return customer, project
}

func recordPayment(t *testing.T, db *gorm.DB, projectID uint, amount int64, reference string) *Models.Payment {
	t.Helper()
	payment := Models.Payment{
		Amount:    decimal.NewFromInt(amount),
		Date:      time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Mode:      "Bank Transfer",
		Reference: reference,
		ProjectID: projectID,
	}
	require.NoError(t, db.Create(&payment).Error)
	return &payment
}

func customerLedger(t *testing.T, db *gorm.DB, customerID uint) *Models.Ledger {
	t.Helper()
	var ledger Models.Ledger
	require.NoError(t, db.Preload("Entries").Where("customer_id = ?", customerID).First(&ledger).Error)
	return &ledger
}

func TestPostPaymentCreatesCustomerLedger(t *testing.T) {
	db := newTestDB(t)
	engine := New(db)
	syncer := NewSyncer(db, engine)
	customer, project := seedProject(t, db, "Anita Sharma")

	payment := recordPayment(t, db, project.ID, 5000, "UTR-889")
	syncer.PostPayment(context.Background(), payment)

	ledger := customerLedger(t, db, customer.ID)
	assert.Equal(t, "Anita Sharma", ledger.Name)
	assert.Equal(t, Models.LedgerCustomer, ledger.Type)
	assert.True(t, ledger.Balance.Equal(decimal.NewFromInt(-5000)), "balance = %s", ledger.Balance)

	require.Len(t, ledger.Entries, 1)
	entry := ledger.Entries[0]
	assert.Equal(t, Models.EntryDebit, entry.Type)
	assert.Equal(t, "Bank Transfer", entry.Mode)
	assert.Equal(t, "Payment for Project: Villa 12 (Ref: UTR-889)", entry.Remarks)
	assert.True(t, entry.Date.Equal(payment.Date))
}

func TestPostPaymentReusesExistingLedger(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	engine := New(db)
	syncer := NewSyncer(db, engine)
	customer, project := seedProject(t, db, "Kiran Rao")

	existing, err := engine.CreateLedger(ctx, CreateLedgerInput{Name: "Kiran (old)", Type: Models.LedgerCustomer, EntityID: customer.ID})
	require.NoError(t, err)
	_, err = engine.AddEntry(ctx, existing.ID, credit(12000))
	require.NoError(t, err)

	syncer.PostPayment(ctx, recordPayment(t, db, project.ID, 5000, ""))
	syncer.PostPayment(ctx, recordPayment(t, db, project.ID, 2000, ""))

	var count int64
	require.NoError(t, db.Model(&Models.Ledger{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	ledger := customerLedger(t, db, customer.ID)
	assert.Equal(t, existing.ID, ledger.ID)
	assert.Equal(t, "Kiran (old)", ledger.Name)
	assert.True(t, ledger.Balance.Equal(decimal.NewFromInt(5000)))
	assert.Len(t, ledger.Entries, 3)
}

func TestPostPaymentWithoutCustomerIsSkipped(t *testing.T) {
	db := newTestDB(t)
	syncer := NewSyncer(db, New(db))
	customer, project := seedProject(t, db, "Gone Away")
	require.NoError(t, db.Delete(&customer).Error)

	syncer.PostPayment(context.Background(), recordPayment(t, db, project.ID, 700, ""))

	var count int64
	require.NoError(t, db.Model(&Models.Ledger{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostPaymentFailureIsSwallowed(t *testing.T) {
	db := newTestDB(t)
	syncer := NewSyncer(db, New(db))
	customer, project := seedProject(t, db, "Unlucky")
	payment := recordPayment(t, db, project.ID, 5000, "")

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_entries", func(tx *gorm.DB) {
		if tx.Statement.Table == "ledger_entries" {
			tx.AddError(errors.New("connection reset"))
		}
	}))

	assert.NotPanics(t, func() {
		syncer.PostPayment(context.Background(), payment)
	})

	var stored Models.Payment
	require.NoError(t, db.First(&stored, payment.ID).Error)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(5000)))

	ledger := customerLedger(t, db, customer.ID)
	assert.True(t, ledger.Balance.IsZero())
	assert.Empty(t, ledger.Entries)
}

func TestPaymentRemarks(t *testing.T) {
	assert.Equal(t, "Payment for Project: Tower B (Ref: CHQ-1)", PaymentRemarks("Tower B", "CHQ-1"))
	assert.Equal(t, "Payment for Project: Tower B (Ref: -)", PaymentRemarks("Tower B", ""))
}
