package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	gorm.Model
	Name       string          `json:"name" gorm:"size:255;not null"`
	Location   string          `json:"location,omitempty" gorm:"size:255"`
	Area       string          `json:"area,omitempty" gorm:"size:64"`
	Type       string          `json:"type" gorm:"size:64;not null"`
	Status     string          `json:"status" gorm:"size:32;not null;index"`
	CustomerID uint            `json:"customer_id" gorm:"not null;index"`
	ImageURL   string          `json:"image_url,omitempty" gorm:"size:500"`
	StartDate  *datatypes.Date `json:"start_date,omitempty"`
	EndDate    *datatypes.Date `json:"end_date,omitempty"`

	// Relationships
	Customer   *Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Workers    []Worker       `json:"workers,omitempty" gorm:"many2many:project_workers;"`
	Agreements []Agreement    `json:"agreements,omitempty" gorm:"foreignKey:ProjectID"`
	Payments   []Payment      `json:"payments,omitempty" gorm:"foreignKey:ProjectID"`
	Bills      []Bill         `json:"bills,omitempty" gorm:"foreignKey:ProjectID"`
	Documents  []Document     `json:"documents,omitempty" gorm:"foreignKey:ProjectID"`
	Images     []ProjectImage `json:"images,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

type ProjectImage struct {
	gorm.Model
	ProjectID uint   `json:"project_id" gorm:"not null;index"`
	URL       string `json:"url" gorm:"size:500;not null"`
}

type Agreement struct {
	gorm.Model
	Title           string          `json:"title" gorm:"size:255;not null"`
	AgreementNumber string          `json:"agreement_number" gorm:"size:64;not null"`
	Value           decimal.Decimal `json:"value" gorm:"type:decimal(14,2);not null"`
	PaymentTerms    string          `json:"payment_terms,omitempty" gorm:"type:text"`
	ProjectID       uint            `json:"project_id" gorm:"not null;index"`
	StartDate       *datatypes.Date `json:"start_date,omitempty"`
	EndDate         *datatypes.Date `json:"end_date,omitempty"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// Payment is money received against a project
type Payment struct {
	gorm.Model
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Date      time.Time       `json:"date" gorm:"not null;index"`
	Mode      string          `json:"mode" gorm:"size:64;not null"`
	Reference string          `json:"reference,omitempty" gorm:"size:255"`
	Remarks   string          `json:"remarks,omitempty" gorm:"type:text"`
	ProjectID uint            `json:"project_id" gorm:"not null;index"`

	Project   *Project   `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Documents []Document `json:"documents,omitempty" gorm:"foreignKey:PaymentID"`
}

// Bill is a purchase invoice booked against a project
type Bill struct {
	gorm.Model
	Description   string          `json:"description" gorm:"size:500;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	BillDate      time.Time       `json:"bill_date" gorm:"not null;index"`
	InvoiceNumber string          `json:"invoice_number,omitempty" gorm:"size:64"`
	FileURL       string          `json:"file_url,omitempty" gorm:"size:500"`
	ProjectID     uint            `json:"project_id" gorm:"not null;index"`
}

// Document is an uploaded file attached to a project, optionally through a payment
type Document struct {
	gorm.Model
	Name      string `json:"name" gorm:"size:255;not null"`
	Path      string `json:"path" gorm:"size:500;not null"`
	Type      string `json:"type" gorm:"size:64;not null"`
	ProjectID uint   `json:"project_id" gorm:"not null;index"`
	PaymentID *uint  `json:"payment_id,omitempty" gorm:"index"`
}
