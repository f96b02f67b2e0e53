package Models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType is the kind of counterparty a bill-book ledger tracks
type LedgerType string

const (
	LedgerCustomer LedgerType = "CUSTOMER"
	LedgerWorker   LedgerType = "WORKER"
	LedgerVendor   LedgerType = "VENDOR"
	LedgerProject  LedgerType = "PROJECT"
)

func (t LedgerType) Valid() bool {
	switch t {
	case LedgerCustomer, LedgerWorker, LedgerVendor, LedgerProject:
		return true
	}
	return false
}

// EntryType is the direction of a ledger entry.
// CREDIT is "you gave": the counterparty owes more.
// DEBIT is "you got": the counterparty owes less.
type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

func (t EntryType) Valid() bool {
	return t == EntryCredit || t == EntryDebit
}

// Signed returns the effect an entry of this type and amount has on a ledger balance
func (t EntryType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == EntryDebit {
		return amount.Neg()
	}
	return amount
}

// OwnerKind tags which record, if any, a ledger belongs to
type OwnerKind int

const (
	OwnerNone OwnerKind = iota
	OwnerCustomer
	OwnerWorker
	OwnerProject
)

// Owner is the entity a ledger is kept for. The zero value is a freestanding ledger.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

func CustomerOwner(id uint) Owner { return Owner{Kind: OwnerCustomer, ID: id} }
func WorkerOwner(id uint) Owner   { return Owner{Kind: OwnerWorker, ID: id} }
func ProjectOwner(id uint) Owner  { return Owner{Kind: OwnerProject, ID: id} }

// OwnerFor maps the (type, entity id) pair used by the create-ledger form to an owner.
// VENDOR ledgers and requests without an entity id are freestanding.
func OwnerFor(ledgerType LedgerType, entityID uint) Owner {
	if entityID == 0 {
		return Owner{}
	}
	switch ledgerType {
	case LedgerCustomer:
		return CustomerOwner(entityID)
	case LedgerWorker:
		return WorkerOwner(entityID)
	case LedgerProject:
		return ProjectOwner(entityID)
	}
	return Owner{}
}

// LedgerType is the ledger type implied by the owner
func (o Owner) LedgerType() LedgerType {
	switch o.Kind {
	case OwnerCustomer:
		return LedgerCustomer
	case OwnerWorker:
		return LedgerWorker
	case OwnerProject:
		return LedgerProject
	}
	return LedgerVendor
}

// Column is the unique foreign key column holding this owner, "" for freestanding ledgers
func (o Owner) Column() string {
	switch o.Kind {
	case OwnerCustomer:
		return "customer_id"
	case OwnerWorker:
		return "worker_id"
	case OwnerProject:
		return "project_id"
	}
	return ""
}

// Ledger is a bill-book account. Balance is kept equal to the signed sum of its entries.
type Ledger struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Name       string          `json:"name" gorm:"size:255;not null"`
	Type       LedgerType      `json:"type" gorm:"size:16;not null;index"`
	Balance    decimal.Decimal `json:"balance" gorm:"type:decimal(14,2);not null"`
	CustomerID *uint           `json:"customer_id,omitempty" gorm:"uniqueIndex"`
	WorkerID   *uint           `json:"worker_id,omitempty" gorm:"uniqueIndex"`
	ProjectID  *uint           `json:"project_id,omitempty" gorm:"uniqueIndex"`
	Version    int64           `json:"-" gorm:"not null;default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"index"`

	Entries []LedgerEntry `json:"entries,omitempty" gorm:"foreignKey:LedgerID;constraint:OnDelete:CASCADE"`
}

// Owner reads the owner variant back from the storage columns
func (l *Ledger) Owner() Owner {
	switch {
	case l.CustomerID != nil:
		return CustomerOwner(*l.CustomerID)
	case l.WorkerID != nil:
		return WorkerOwner(*l.WorkerID)
	case l.ProjectID != nil:
		return ProjectOwner(*l.ProjectID)
	}
	return Owner{}
}

// SetOwner writes the owner variant into the storage columns, clearing the others
func (l *Ledger) SetOwner(o Owner) {
	l.CustomerID, l.WorkerID, l.ProjectID = nil, nil, nil
	id := o.ID
	switch o.Kind {
	case OwnerCustomer:
		l.CustomerID = &id
	case OwnerWorker:
		l.WorkerID = &id
	case OwnerProject:
		l.ProjectID = &id
	}
}

// Status describes the balance from the business's side
func (l *Ledger) Status() string {
	switch l.Balance.Sign() {
	case 1:
		return "You'll Get"
	case -1:
		return "You'll Give"
	}
	return "Settled"
}

// LedgerEntry is a single dated transaction. Amount is always a magnitude.
type LedgerEntry struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	LedgerID  uint            `json:"ledger_id" gorm:"not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Type      EntryType       `json:"type" gorm:"size:8;not null"`
	Mode      string          `json:"mode" gorm:"size:64;not null"`
	Remarks   string          `json:"remarks,omitempty" gorm:"type:text"`
	Date      time.Time       `json:"date" gorm:"not null;index"`
	CreatedAt time.Time       `json:"created_at"`
}
