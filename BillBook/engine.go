package BillBook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SiteBook/Models"
)

const defaultMaxAttempts = 3

// Engine keeps every ledger balance equal to the signed sum of its entries.
// Entry writes and the matching balance update always share one transaction.
type Engine struct {
	db          *gorm.DB
	publisher   Publisher
	maxAttempts int
}

type Option func(*Engine)

// WithPublisher sends committed entry changes to p
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithMaxAttempts bounds how often a transaction is re-run after ErrBalanceConflict
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// New creates an Engine on top of db
func New(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:          db,
		publisher:   NopPublisher{},
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EntryInput is a new transaction against a ledger
type EntryInput struct {
	Amount  decimal.Decimal
	Type    Models.EntryType
	Mode    string
	Remarks string
	Date    time.Time
}

// CreateLedgerInput mirrors the create-ledger form. EntityID is optional.
type CreateLedgerInput struct {
	Name     string
	Type     Models.LedgerType
	EntityID uint
}

// CheckAmount accepts non-negative amounts that fit the 2-place money columns
// without rounding
func CheckAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}
	return nil
}

// AddEntry inserts an entry and moves the ledger balance by its signed amount
func (e *Engine) AddEntry(ctx context.Context, ledgerID uint, in EntryInput) (*Models.LedgerEntry, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidEntryType
	}
	if err := CheckAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	var (
		entry   Models.LedgerEntry
		balance decimal.Decimal
	)
	err := e.atomically(ctx, func(tx *gorm.DB) error {
		ledger, err := findLedger(tx, ledgerID)
		if err != nil {
			return err
		}

		entry = Models.LedgerEntry{
			LedgerID: ledger.ID,
			Amount:   in.Amount,
			Type:     in.Type,
			Mode:     in.Mode,
			Remarks:  in.Remarks,
			Date:     in.Date,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("create entry: %w", err)
		}

		balance, err = adjustBalance(tx, ledger, in.Type.Signed(in.Amount))
		return err
	})
	if err != nil {
		return nil, err
	}

	entriesPosted.WithLabelValues(string(entry.Type)).Inc()
	e.publish(ctx, LedgerEvent{
		Kind:     EventEntryAdded,
		LedgerID: ledgerID,
		EntryID:  entry.ID,
		Type:     entry.Type,
		Amount:   entry.Amount,
		Balance:  balance,
		At:       time.Now(),
	})
	return &entry, nil
}

// DeleteEntry removes an entry of ledgerID and reverses its effect on the balance
func (e *Engine) DeleteEntry(ctx context.Context, entryID, ledgerID uint) error {
	var (
		removed Models.LedgerEntry
		balance decimal.Decimal
	)
	err := e.atomically(ctx, func(tx *gorm.DB) error {
		var entry Models.LedgerEntry
		if err := tx.Where("id = ? AND ledger_id = ?", entryID, ledgerID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("load entry: %w", err)
		}

		ledger, err := findLedger(tx, ledgerID)
		if err != nil {
			return err
		}

		balance, err = adjustBalance(tx, ledger, entry.Type.Signed(entry.Amount).Neg())
		if err != nil {
			return err
		}

		if err := tx.Delete(&entry).Error; err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		removed = entry
		return nil
	})
	if err != nil {
		return err
	}

	entriesDeleted.Inc()
	e.publish(ctx, LedgerEvent{
		Kind:     EventEntryDeleted,
		LedgerID: ledgerID,
		EntryID:  removed.ID,
		Type:     removed.Type,
		Amount:   removed.Amount,
		Balance:  balance,
		At:       time.Now(),
	})
	return nil
}

// FindOrCreateLedger returns the ledger kept for owner, creating it with a zero
// balance on first use. Freestanding owners always get a new VENDOR ledger.
func (e *Engine) FindOrCreateLedger(ctx context.Context, owner Models.Owner, name string) (*Models.Ledger, error) {
	db := e.db.WithContext(ctx)

	if owner.Kind != Models.OwnerNone {
		ledger, err := findByOwner(db, owner)
		if err == nil {
			return ledger, nil
		}
		if !errors.Is(err, ErrLedgerNotFound) {
			return nil, err
		}
	}

	ledger, err := e.create(db, name, owner.LedgerType(), owner)
	if err != nil && owner.Kind != Models.OwnerNone {
		// lost a race on the unique owner column
		if existing, findErr := findByOwner(db, owner); findErr == nil {
			return existing, nil
		}
	}
	return ledger, err
}

// CreateLedger handles the explicit create-ledger action. Only CUSTOMER, WORKER
// and PROJECT ledgers with an entity id are deduplicated, and that entity must exist.
func (e *Engine) CreateLedger(ctx context.Context, in CreateLedgerInput) (*Models.Ledger, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidLedgerType
	}

	owner := Models.OwnerFor(in.Type, in.EntityID)
	if owner.Kind != Models.OwnerNone {
		if err := ownerExists(e.db.WithContext(ctx), owner); err != nil {
			return nil, err
		}
		return e.FindOrCreateLedger(ctx, owner, in.Name)
	}
	return e.create(e.db.WithContext(ctx), in.Name, in.Type, owner)
}

// GetLedger loads a ledger with its entries, newest first
func (e *Engine) GetLedger(ctx context.Context, id uint) (*Models.Ledger, error) {
	var ledger Models.Ledger
	err := e.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("date DESC, id DESC")
		}).
		First(&ledger, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("load ledger %d: %w", id, err)
	}
	return &ledger, nil
}

// GetLedgers lists ledgers, most recently updated first
func (e *Engine) GetLedgers(ctx context.Context) ([]Models.Ledger, error) {
	var ledgers []Models.Ledger
	if err := e.db.WithContext(ctx).Order("updated_at DESC, id DESC").Find(&ledgers).Error; err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return ledgers, nil
}

// Totals splits all ledger balances into what the business will get and will give
type Totals struct {
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`
	Net        decimal.Decimal `json:"net"`
}

// Totals sums positive balances as receivable and negative ones as payable
func (e *Engine) Totals(ctx context.Context) (Totals, error) {
	ledgers, err := e.GetLedgers(ctx)
	if err != nil {
		return Totals{}, err
	}

	var totals Totals
	for _, ledger := range ledgers {
		if ledger.Balance.IsPositive() {
			totals.Receivable = totals.Receivable.Add(ledger.Balance)
		} else {
			totals.Payable = totals.Payable.Add(ledger.Balance.Neg())
		}
	}
	totals.Net = totals.Receivable.Sub(totals.Payable)
	return totals, nil
}

// Drift is a ledger whose stored balance disagrees with its entries
type Drift struct {
	LedgerID uint            `json:"ledger_id"`
	Name     string          `json:"name"`
	Stored   decimal.Decimal `json:"stored"`
	Computed decimal.Decimal `json:"computed"`
}

// VerifyBalances recomputes every ledger from its entries and reports mismatches
func (e *Engine) VerifyBalances(ctx context.Context) ([]Drift, error) {
	var ledgers []Models.Ledger
	if err := e.db.WithContext(ctx).Preload("Entries").Order("id").Find(&ledgers).Error; err != nil {
		return nil, fmt.Errorf("load ledgers: %w", err)
	}

	var drifts []Drift
	for _, ledger := range ledgers {
		computed := decimal.Zero
		for _, entry := range ledger.Entries {
			computed = computed.Add(entry.Type.Signed(entry.Amount))
		}
		if !computed.Equal(ledger.Balance) {
			drifts = append(drifts, Drift{
				LedgerID: ledger.ID,
				Name:     ledger.Name,
				Stored:   ledger.Balance,
				Computed: computed,
			})
		}
	}
	return drifts, nil
}

func (e *Engine) create(db *gorm.DB, name string, ledgerType Models.LedgerType, owner Models.Owner) (*Models.Ledger, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLedgerNameRequired
	}

	ledger := Models.Ledger{
		Name:    name,
		Type:    ledgerType,
		Balance: decimal.Zero,
	}
	ledger.SetOwner(owner)

	if err := db.Create(&ledger).Error; err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	return &ledger, nil
}

// atomically runs fn in a transaction, re-running it when the balance moved underneath
func (e *Engine) atomically(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err = e.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, ErrBalanceConflict) {
			return err
		}
		log.Printf("Bill book balance conflict, attempt %d of %d\n", attempt, e.maxAttempts)
	}
	return err
}

func (e *Engine) publish(ctx context.Context, event LedgerEvent) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish bill book event for ledger %d: %v\n", event.LedgerID, err)
	}
}

func findLedger(db *gorm.DB, id uint) (*Models.Ledger, error) {
	var ledger Models.Ledger
	if err := db.First(&ledger, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("load ledger %d: %w", id, err)
	}
	return &ledger, nil
}

func ownerExists(db *gorm.DB, owner Models.Owner) error {
	var model interface{}
	switch owner.Kind {
	case Models.OwnerCustomer:
		model = &Models.Customer{}
	case Models.OwnerWorker:
		model = &Models.Worker{}
	case Models.OwnerProject:
		model = &Models.Project{}
	default:
		return nil
	}

	var count int64
	if err := db.Model(model).Where("id = ?", owner.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("look up %s %d: %w", owner.Column(), owner.ID, err)
	}
	if count == 0 {
		return ErrEntityNotFound
	}
	return nil
}

func findByOwner(db *gorm.DB, owner Models.Owner) (*Models.Ledger, error) {
	var ledger Models.Ledger
	err := db.Where(owner.Column()+" = ?", owner.ID).First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("find ledger by %s: %w", owner.Column(), err)
	}
	return &ledger, nil
}

// adjustBalance applies delta with a version check so a concurrent writer cannot be lost
func adjustBalance(tx *gorm.DB, ledger *Models.Ledger, delta decimal.Decimal) (decimal.Decimal, error) {
	next := ledger.Balance.Add(delta)

	result := tx.Model(&Models.Ledger{}).
		Where("id = ? AND version = ?", ledger.ID, ledger.Version).
		Updates(map[string]interface{}{
			"balance":    next,
			"version":    ledger.Version + 1,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, ErrBalanceConflict
	}
	return next, nil
}
