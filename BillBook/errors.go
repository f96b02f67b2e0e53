package BillBook

import "errors"

var (
	ErrLedgerNotFound     = errors.New("ledger not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrLedgerNameRequired = errors.New("ledger name is required")
	ErrInvalidLedgerType  = errors.New("invalid ledger type")
	ErrInvalidEntryType   = errors.New("invalid entry type")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrAmountPrecision    = errors.New("amount can have at most 2 decimal places")
	ErrEntityNotFound     = errors.New("linked record not found")
	// ErrBalanceConflict means another writer changed the ledger between read and update.
	ErrBalanceConflict = errors.New("ledger balance changed concurrently")
)
