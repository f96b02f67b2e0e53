package Models

import (
	"gorm.io/gorm"
)

type Worker struct {
	gorm.Model
	Name            string `json:"name" gorm:"size:255;not null"`
	Role            string `json:"role" gorm:"size:64;not null"`
	Contact         string `json:"contact" gorm:"size:10;not null;index"`
	Status          string `json:"status" gorm:"size:32;not null;default:active"`
	ImageURL        string `json:"image_url,omitempty" gorm:"size:500"`
	BankAccountNo   string `json:"bank_account_no,omitempty" gorm:"size:64"`
	BankIFSC        string `json:"bank_ifsc,omitempty" gorm:"size:32"`
	BankName        string `json:"bank_name,omitempty" gorm:"size:255"`
	UpiID           string `json:"upi_id,omitempty" gorm:"size:255"`
	Address         string `json:"address,omitempty" gorm:"type:text"`
	PanNumber       string `json:"pan_number,omitempty" gorm:"size:16"`
	AadhaarNumber   string `json:"aadhaar_number,omitempty" gorm:"size:12"`
	AccountProofURL string `json:"account_proof_url,omitempty" gorm:"size:500"`

	Projects []Project `json:"projects,omitempty" gorm:"many2many:project_workers;"`
}
