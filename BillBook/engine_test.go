package BillBook

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"SiteBook/Models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Models.Open("sqlite", filepath.Join(t.TempDir(), "billbook.db"))
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func credit(amount int64) EntryInput {
	return EntryInput{Amount: dec(amount), Type: Models.EntryCredit, Mode: "Cash", Date: time.Now()}
}

func debit(amount int64) EntryInput {
	return EntryInput{Amount: dec(amount), Type: Models.EntryDebit, Mode: "Cash", Date: time.Now()}
}

func mustLedger(t *testing.T, e *Engine, name string) *Models.Ledger {
	t.Helper()
	ledger, err := e.CreateLedger(context.Background(), CreateLedgerInput{Name: name, Type: Models.LedgerVendor})
	require.NoError(t, err)
	return ledger
}

func balanceOf(t *testing.T, e *Engine, id uint) decimal.Decimal {
	t.Helper()
	ledger, err := e.GetLedger(context.Background(), id)
	require.NoError(t, err)
	return ledger.Balance
}

func TestAddThenDeleteScenario(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Cement Supplier")

	first, err := e.AddEntry(ctx, ledger.ID, credit(1000))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, e, ledger.ID).Equal(dec(1000)))

	_, err = e.AddEntry(ctx, ledger.ID, debit(400))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, e, ledger.ID).Equal(dec(600)))

	require.NoError(t, e.DeleteEntry(ctx, first.ID, ledger.ID))
	got, err := e.GetLedger(ctx, ledger.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(-400)), "balance = %s", got.Balance)
	assert.Equal(t, "You'll Give", got.Status())
	assert.Len(t, got.Entries, 1)
}

func TestBalanceIsSignedSumOfEntries(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Random Walk")

	rng := rand.New(rand.NewSource(42))
	expected := decimal.Zero
	for i := 0; i < 40; i++ {
		amount := decimal.New(rng.Int63n(100000), -2)
		in := EntryInput{Amount: amount, Type: Models.EntryCredit, Mode: "UPI", Date: time.Now()}
		if rng.Intn(2) == 0 {
			in.Type = Models.EntryDebit
		}
		expected = expected.Add(in.Type.Signed(amount))

		_, err := e.AddEntry(ctx, ledger.ID, in)
		require.NoError(t, err)
	}

	assert.True(t, balanceOf(t, e, ledger.ID).Equal(expected), "want %s", expected)

	drifts, err := e.VerifyBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestDeleteIsInverseOfAdd(t *testing.T) {
	ctx := context.Background()

	for _, in := range []EntryInput{credit(750), debit(750), credit(0)} {
		e := New(newTestDB(t))
		ledger := mustLedger(t, e, "Inverse")
		_, err := e.AddEntry(ctx, ledger.ID, credit(120))
		require.NoError(t, err)
		before := balanceOf(t, e, ledger.ID)

		entry, err := e.AddEntry(ctx, ledger.ID, in)
		require.NoError(t, err)
		require.NoError(t, e.DeleteEntry(ctx, entry.ID, ledger.ID))

		assert.True(t, balanceOf(t, e, ledger.ID).Equal(before), "type %s", in.Type)
	}
}

func TestZeroAmountHasNoEffect(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Zero")

	entry, err := e.AddEntry(ctx, ledger.ID, credit(0))
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.True(t, balanceOf(t, e, ledger.ID).IsZero())
}

func TestAddEntryValidation(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Validation")

	_, err := e.AddEntry(ctx, ledger.ID, EntryInput{Amount: dec(10), Type: "REFUND"})
	assert.ErrorIs(t, err, ErrInvalidEntryType)

	_, err = e.AddEntry(ctx, ledger.ID, credit(-5))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = e.AddEntry(ctx, ledger.ID+100, credit(5))
	assert.ErrorIs(t, err, ErrLedgerNotFound)
}

func TestAddEntryKeepsCentPrecision(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db)
	ledger := mustLedger(t, e, "Paise")

	for _, amount := range []string{"0.1", "0.2", "2.500"} {
		_, err := e.AddEntry(ctx, ledger.ID, EntryInput{
			Amount: decimal.RequireFromString(amount), Type: Models.EntryCredit, Mode: "UPI",
		})
		require.NoError(t, err, amount)
	}
	assert.True(t, balanceOf(t, e, ledger.ID).Equal(decimal.RequireFromString("2.8")))

	for _, amount := range []string{"0.005", "1234567.891"} {
		_, err := e.AddEntry(ctx, ledger.ID, EntryInput{
			Amount: decimal.RequireFromString(amount), Type: Models.EntryDebit, Mode: "UPI",
		})
		assert.ErrorIs(t, err, ErrAmountPrecision, amount)
	}

	assert.True(t, balanceOf(t, e, ledger.ID).Equal(decimal.RequireFromString("2.8")))
	var entries int64
	require.NoError(t, db.Model(&Models.LedgerEntry{}).Where("ledger_id = ?", ledger.ID).Count(&entries).Error)
	assert.EqualValues(t, 3, entries)
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(decimal.Zero))
	assert.NoError(t, CheckAmount(decimal.RequireFromString("12500.50")))
	assert.ErrorIs(t, CheckAmount(decimal.RequireFromString("-0.01")), ErrNegativeAmount)
	assert.ErrorIs(t, CheckAmount(decimal.RequireFromString("99.999")), ErrAmountPrecision)
}

func TestDeleteEntryNotFound(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	a := mustLedger(t, e, "A")
	b := mustLedger(t, e, "B")

	entry, err := e.AddEntry(ctx, a.ID, credit(300))
	require.NoError(t, err)

	assert.ErrorIs(t, e.DeleteEntry(ctx, entry.ID+1, a.ID), ErrEntryNotFound)
	// an entry can only be deleted through its own ledger
	assert.ErrorIs(t, e.DeleteEntry(ctx, entry.ID, b.ID), ErrEntryNotFound)

	assert.True(t, balanceOf(t, e, a.ID).Equal(dec(300)))
	assert.True(t, balanceOf(t, e, b.ID).IsZero())
}

func TestFailedBalanceUpdateRollsBackEntry(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db)
	ledger := mustLedger(t, e, "Rollback")
	kept, err := e.AddEntry(ctx, ledger.ID, credit(100))
	require.NoError(t, err)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_ledger_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "ledgers" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	_, err = e.AddEntry(ctx, ledger.ID, credit(50))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	err = e.DeleteEntry(ctx, kept.ID, ledger.ID)
	require.Error(t, err)

	got, err := e.GetLedger(ctx, ledger.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(100)))
	require.Len(t, got.Entries, 1)
	assert.Equal(t, kept.ID, got.Entries[0].ID)
}

func TestBalanceConflictIsRetried(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db)
	ledger := mustLedger(t, e, "Contended")

	// bump the version once behind the engine's back, after it has read the ledger
	bumped := false
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:concurrent_writer", func(tx *gorm.DB) {
		if tx.Statement.Table == "ledger_entries" && !bumped {
			bumped = true
			tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE ledgers SET version = version + 1 WHERE id = ?", ledger.ID)
		}
	}))

	_, err := e.AddEntry(ctx, ledger.ID, credit(80))
	require.NoError(t, err)
	assert.True(t, bumped)

	got, err := e.GetLedger(ctx, ledger.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(80)))
	assert.Len(t, got.Entries, 1, "the conflicting attempt must be rolled back")
}

func TestBalanceConflictGivesUp(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db, WithMaxAttempts(2))
	ledger := mustLedger(t, e, "Always Contended")

	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:always_bump", func(tx *gorm.DB) {
		if tx.Statement.Table == "ledger_entries" {
			tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE ledgers SET version = version + 1 WHERE id = ?", ledger.ID)
		}
	}))

	_, err := e.AddEntry(ctx, ledger.ID, credit(80))
	assert.ErrorIs(t, err, ErrBalanceConflict)

	got, err := e.GetLedger(ctx, ledger.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.Empty(t, got.Entries)
}

func TestConcurrentPostingsKeepEveryUpdate(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Busy")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.AddEntry(ctx, ledger.ID, credit(5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, balanceOf(t, e, ledger.ID).Equal(dec(100)))
}

func TestFindOrCreateLedgerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db)

	for _, owner := range []Models.Owner{Models.CustomerOwner(1), Models.WorkerOwner(1), Models.ProjectOwner(1)} {
		first, err := e.FindOrCreateLedger(ctx, owner, "Owner ledger")
		require.NoError(t, err)
		second, err := e.FindOrCreateLedger(ctx, owner, "Renamed")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Owner ledger", second.Name)
		assert.Equal(t, owner.LedgerType(), second.Type)
		assert.Equal(t, owner, second.Owner())
	}

	var count int64
	require.NoError(t, db.Model(&Models.Ledger{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestFindOrCreateReturnsExistingUnchanged(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))

	ledger, err := e.FindOrCreateLedger(ctx, Models.CustomerOwner(4), "Mehta")
	require.NoError(t, err)
	_, err = e.AddEntry(ctx, ledger.ID, credit(900))
	require.NoError(t, err)

	again, err := e.FindOrCreateLedger(ctx, Models.CustomerOwner(4), "Mehta")
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(dec(900)))
}

func TestCreateLedger(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db)

	t.Run("vendor ledgers are never deduplicated", func(t *testing.T) {
		a, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "Steel Mart", Type: Models.LedgerVendor})
		require.NoError(t, err)
		b, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "Steel Mart", Type: Models.LedgerVendor, EntityID: 3})
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, Models.Owner{}, b.Owner())
	})

	t.Run("owned ledgers go through find-or-create", func(t *testing.T) {
		worker := Models.Worker{Name: "Ravi", Role: "Mason", Contact: "9000000012"}
		require.NoError(t, db.Create(&worker).Error)

		a, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "Ravi", Type: Models.LedgerWorker, EntityID: worker.ID})
		require.NoError(t, err)
		b, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "Ravi", Type: Models.LedgerWorker, EntityID: worker.ID})
		require.NoError(t, err)

		assert.Equal(t, a.ID, b.ID)
		require.NotNil(t, a.WorkerID)
		assert.Equal(t, worker.ID, *a.WorkerID)
	})

	t.Run("owned ledgers need an existing entity", func(t *testing.T) {
		var before int64
		require.NoError(t, db.Model(&Models.Ledger{}).Count(&before).Error)

		for _, in := range []CreateLedgerInput{
			{Name: "Ghost", Type: Models.LedgerWorker, EntityID: 9999},
			{Name: "Ghost", Type: Models.LedgerCustomer, EntityID: 9999},
			{Name: "Ghost", Type: Models.LedgerProject, EntityID: 9999},
		} {
			_, err := e.CreateLedger(ctx, in)
			assert.ErrorIs(t, err, ErrEntityNotFound, in.Type)
		}

		var after int64
		require.NoError(t, db.Model(&Models.Ledger{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})

	t.Run("customer ledger without entity is freestanding", func(t *testing.T) {
		a, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "Walk-in", Type: Models.LedgerCustomer})
		require.NoError(t, err)
		b, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "Walk-in", Type: Models.LedgerCustomer})
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, Models.LedgerCustomer, a.Type)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := e.CreateLedger(ctx, CreateLedgerInput{Name: "X", Type: "BANK"})
		assert.ErrorIs(t, err, ErrInvalidLedgerType)

		_, err = e.CreateLedger(ctx, CreateLedgerInput{Name: "  ", Type: Models.LedgerVendor})
		assert.ErrorIs(t, err, ErrLedgerNameRequired)
	})
}

func TestGetLedgerOrdersEntriesNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Ordered")

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{0, 2, 1} {
		in := credit(10)
		in.Date = day.AddDate(0, 0, offset)
		_, err := e.AddEntry(ctx, ledger.ID, in)
		require.NoError(t, err)
	}

	got, err := e.GetLedger(ctx, ledger.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)
	assert.True(t, got.Entries[0].Date.Equal(day.AddDate(0, 0, 2)))
	assert.True(t, got.Entries[1].Date.Equal(day.AddDate(0, 0, 1)))
	assert.True(t, got.Entries[2].Date.Equal(day))

	_, err = e.GetLedger(ctx, ledger.ID+1)
	assert.ErrorIs(t, err, ErrLedgerNotFound)
}

func TestGetLedgersMostRecentlyUpdatedFirst(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	older := mustLedger(t, e, "Older")
	time.Sleep(5 * time.Millisecond)
	newer := mustLedger(t, e, "Newer")

	ledgers, err := e.GetLedgers(ctx)
	require.NoError(t, err)
	require.Len(t, ledgers, 2)
	assert.Equal(t, newer.ID, ledgers[0].ID)

	time.Sleep(5 * time.Millisecond)
	_, err = e.AddEntry(ctx, older.ID, debit(1))
	require.NoError(t, err)

	ledgers, err = e.GetLedgers(ctx)
	require.NoError(t, err)
	assert.Equal(t, older.ID, ledgers[0].ID)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	a := mustLedger(t, e, "A")
	b := mustLedger(t, e, "B")
	mustLedger(t, e, "Settled")

	_, err := e.AddEntry(ctx, a.ID, credit(700))
	require.NoError(t, err)
	_, err = e.AddEntry(ctx, b.ID, debit(250))
	require.NoError(t, err)

	totals, err := e.Totals(ctx)
	require.NoError(t, err)
	assert.True(t, totals.Receivable.Equal(dec(700)))
	assert.True(t, totals.Payable.Equal(dec(250)))
	assert.True(t, totals.Net.Equal(dec(450)))
}

func TestVerifyBalancesReportsDrift(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	e := New(db)
	ledger := mustLedger(t, e, "Drifted")
	_, err := e.AddEntry(ctx, ledger.ID, credit(40))
	require.NoError(t, err)

	require.NoError(t, db.Model(&Models.Ledger{}).Where("id = ?", ledger.ID).Update("balance", decimal.NewFromInt(55)).Error)

	drifts, err := e.VerifyBalances(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, ledger.ID, drifts[0].LedgerID)
	assert.True(t, drifts[0].Stored.Equal(dec(55)))
	assert.True(t, drifts[0].Computed.Equal(dec(40)))
}

func TestEventsArePublishedAfterCommit(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{err: errors.New("broker down")}
	e := New(newTestDB(t), WithPublisher(publisher))
	ledger := mustLedger(t, e, "Evented")

	entry, err := e.AddEntry(ctx, ledger.ID, credit(60))
	require.NoError(t, err, "publish failures must not fail the write")
	require.NoError(t, e.DeleteEntry(ctx, entry.ID, ledger.ID))
	_, err = e.AddEntry(ctx, ledger.ID+9, credit(1))
	require.Error(t, err)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, EventEntryAdded, publisher.events[0].Kind)
	assert.True(t, publisher.events[0].Balance.Equal(dec(60)))
	assert.Equal(t, EventEntryDeleted, publisher.events[1].Kind)
	assert.Equal(t, entry.ID, publisher.events[1].EntryID)
	assert.True(t, publisher.events[1].Balance.IsZero())
}
